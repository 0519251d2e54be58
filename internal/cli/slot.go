package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// NewSlotCmd создаёт группу команд для расписания.
func NewSlotCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Manage conference schedule slots",
	}

	cmd.AddCommand(
		newSlotShowCmd(clientFn, outputFn),
		newSlotSaveCmd(clientFn, outputFn),
		newSlotFavoriteCmd(clientFn, outputFn),
	)

	return cmd
}

func newSlotShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show SLOT_ID",
		Short: "Show slot details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := clientFn().GetSlot(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			title := "-"
			if t, ok := slot.Talk["title"].(string); ok {
				title = t
			}

			rows := [][]string{{slot.ID, slot.Room, slot.BeginsAt, slot.EndsAt, strconv.Itoa(slot.Favorites), title}}
			outputFn().Print([]string{"ID", "ROOM", "BEGINS", "ENDS", "FAVORITES", "TALK"}, rows, slot)
			return nil
		},
	}
}

func newSlotSaveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var slotFile string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a slot from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(slotFile)
			if err != nil {
				return fmt.Errorf("failed to read slot file: %w", err)
			}

			if !json.Valid(data) {
				return fmt.Errorf("slot file is not valid JSON")
			}

			slot, err := clientFn().SaveSlot(cmd.Context(), json.RawMessage(data))
			if err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Slot saved: %s", slot.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&slotFile, "file", "", "Path to slot JSON file (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newSlotFavoriteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite SLOT_ID COUNT",
		Short: "Set the favorites counter of a slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid count %q: %w", args[1], err)
			}

			if err := clientFn().SetFavorites(cmd.Context(), args[0], count); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Slot %s favorites set to %d", args[0], count))
			return nil
		},
	}
}
