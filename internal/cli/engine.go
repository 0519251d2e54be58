package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewEngineCmd создаёт группу команд управления engine.
func NewEngineCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Control the step engine",
	}

	cmd.AddCommand(
		newEngineStatusCmd(clientFn, outputFn),
		newEngineStartCmd(clientFn, outputFn),
		newEngineStopCmd(clientFn, outputFn),
		newEngineFramesCmd(clientFn, outputFn),
	)

	return cmd
}

func newEngineStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show engine state and the last frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := clientFn().Engine(cmd.Context())
			if err != nil {
				return err
			}

			s := resp.Status
			rows := [][]string{{
				s.ID,
				s.State,
				fmt.Sprintf("%d/%d", s.Index+1, s.StepCount),
				s.Step,
				strconv.Itoa(s.Cycle),
				frameSummary(resp.Frame),
			}}

			outputFn().Print([]string{"ID", "STATE", "POSITION", "STEP", "CYCLE", "LAST_FRAME"}, rows, resp)
			return nil
		},
	}
}

func newEngineStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the engine (a stopped engine is reset first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := clientFn().StartEngine(cmd.Context())
			if err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Engine %s: %s", status.ID, status.State))
			return nil
		},
	}
}

func newEngineStopCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the engine after the active step completes",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := clientFn().StopEngine(cmd.Context())
			if err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Stop requested for engine %s", status.ID))
			return nil
		},
	}
}

func newEngineFramesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "frames",
		Short: "List recently shown frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			frames, err := clientFn().Frames(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(frames))
			for i := range frames {
				f := &frames[i]
				rows[i] = []string{f.Step, f.Kind, f.Duration.String(), frameSummary(f)}
			}

			outputFn().Print([]string{"STEP", "KIND", "DURATION", "CONTENT"}, rows, frames)
			return nil
		},
	}
}

// frameSummary — краткое содержимое кадра для таблицы.
func frameSummary(f *FrameResponse) string {
	if f == nil {
		return "-"
	}

	switch {
	case f.Tweet != nil:
		return fmt.Sprintf("@%s: %s", f.Tweet.User.ScreenName, truncate(f.Tweet.Text, 40))
	case len(f.Sessions) > 0:
		return fmt.Sprintf("%d sessions", len(f.Sessions))
	case len(f.Words) > 0:
		return fmt.Sprintf("%d words", len(f.Words))
	default:
		return f.Kind
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
