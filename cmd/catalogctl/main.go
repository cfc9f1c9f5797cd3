// Package main provides the catalog operator CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"monsurface-assistant/internal/config"
	"monsurface-assistant/internal/contextutil"
)

// cli carries state shared by the subcommands.
type cli struct {
	outputJSON bool
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "catalogctl",
		Short: "Build the catalog and administer the permission ledger",
		Long: `catalogctl is the offline companion of the assistant server.

Use this tool to:
- Build the catalog database from the product workbook
- Ask the assistant a question without going through LINE
- Grant, revoke and list requester permissions in the local ledger

Configuration is read from the same environment variables and .env file
as the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			c.cfg = cfg

			level := cfg.LogLevel
			if c.verbose {
				level = slog.LevelDebug
			}
			c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(c.logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&c.outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newAskCmd())
	rootCmd.AddCommand(c.newLedgerCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// context returns a context carrying the CLI logger.
func (c *cli) context(cmd *cobra.Command) context.Context {
	return contextutil.WithLogger(cmd.Context(), c.logger)
}

// print writes v as indented JSON when --json is set, otherwise calls text.
func (c *cli) print(w io.Writer, v any, text func(io.Writer)) error {
	if c.outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
