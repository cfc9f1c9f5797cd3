package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"monsurface-assistant/internal/app"
)

// newAskCmd creates the ask subcommand.
func (c *cli) newAskCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Run the assistant pipeline for one message",
		Long: `Ask runs the same guard, interpretation, lookup and answer stages as the
webhook and prints the reply a chat user would receive. The requester given
by --user goes through the permission ledger like any other.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := c.context(cmd)

			a, err := app.New(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
			}()

			reply := a.Assistant.Reply(ctx, user, strings.Join(args, " "))

			out := struct {
				Reply   string `json:"reply"`
				Outcome string `json:"outcome"`
			}{reply.Text, string(reply.Outcome)}
			return c.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintln(w, reply.Text)
				fmt.Fprintf(w, "\n(outcome: %s)\n", reply.Outcome)
			})
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "operator", "requester id checked against the ledger")
	return cmd
}
