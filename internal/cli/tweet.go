package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewTweetCmd создаёт группу команд для сообщений.
func NewTweetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tweet",
		Short: "Send messages to the wall",
	}

	cmd.AddCommand(newTweetPostCmd(clientFn, outputFn))
	return cmd
}

func newTweetPostCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "post TEXT...",
		Short: "Post a message to the wall",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req PostTweetRequest
			req.Text = strings.Join(args, " ")
			req.User.ScreenName = strings.TrimPrefix(user, "@")
			req.User.Name = req.User.ScreenName

			tweet, err := clientFn().PostTweet(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := outputFn()
			if out.jsonMode {
				out.JSON(tweet)
				return nil
			}
			out.Success(fmt.Sprintf("Tweet queued: %s", tweet.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "stepwall", "Author screen name")
	return cmd
}
