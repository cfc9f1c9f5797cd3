package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"monsurface-assistant/internal/access"
	"monsurface-assistant/internal/app"
	"monsurface-assistant/internal/config"
	"monsurface-assistant/internal/storage"
)

// newLedgerCmd creates the ledger command group.
func (c *cli) newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Manage requester permissions in the local ledger",
		Long: `Ledger grants and revokes access in the SQLite permission ledger.

Requesters are added to the ledger unauthorized on first contact; grant
flips the flag. When LEDGER_DRIVER=sheets the spreadsheet is edited directly
instead.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if c.cfg.LedgerDriver != config.LedgerSQLite {
				return fmt.Errorf("ledger commands manage the sqlite ledger, LEDGER_DRIVER is %s", c.cfg.LedgerDriver)
			}
			return nil
		},
	}

	cmd.AddCommand(c.newSetAuthorizedCmd("grant", "Authorize a requester", true))
	cmd.AddCommand(c.newSetAuthorizedCmd("revoke", "Remove a requester's authorization", false))
	cmd.AddCommand(c.newLedgerShowCmd())
	return cmd
}

func (c *cli) newSetAuthorizedCmd(use, short string, authorized bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <requester-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := app.OpenLedgerRepo(c.cfg.LedgerDBPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = repo.Close()
			}()

			if err := repo.SetAuthorized(c.context(cmd), args[0], authorized); err != nil {
				return err
			}
			c.logger.Info("ledger updated", "requester_id", args[0], "authorized", authorized)
			return c.print(cmd.OutOrStdout(), map[string]any{"requester_id": args[0], "authorized": authorized}, func(w io.Writer) {
				fmt.Fprintf(w, "%s: authorized=%t\n", args[0], authorized)
			})
		},
	}
}

func (c *cli) newLedgerShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [requester-id]",
		Short: "List ledger records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := c.context(cmd)
			repo, err := app.OpenLedgerRepo(c.cfg.LedgerDBPath)
			if err != nil {
				return err
			}
			defer func() {
				_ = repo.Close()
			}()

			var records []storage.AccessRecord
			if len(args) == 1 {
				rec, err := repo.Lookup(ctx, args[0])
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("requester %s is not in the ledger", args[0])
				}
				if err != nil {
					return err
				}
				records = append(records, rec)
			} else if records, err = repo.List(ctx); err != nil {
				return err
			}

			return c.print(cmd.OutOrStdout(), records, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "REQUESTER\tAUTHORIZED\tUSAGE\tLAST ACCESS")
				for _, rec := range records {
					fmt.Fprintf(tw, "%s\t%t\t%d\t%s\n", rec.RequesterID, rec.Authorized, rec.UsageCount, lastAccess(rec.LastAccess))
				}
				_ = tw.Flush()
			})
		},
	}
}

// lastAccess renders a stamp in the ledger's business timezone.
func lastAccess(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(access.Taipei()).Format(access.SheetTimeLayout)
}
