package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"monsurface-assistant/internal/catalog"
)

// newBuildCmd creates the build subcommand.
func (c *cli) newBuildCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "build <workbook.xlsx>",
		Short: "Build the catalog database from a workbook",
		Long: `Build reads every sheet of the workbook into its own table and derives
the summary index from the brand, model and color columns.

The new database is written next to the target and renamed over it, so a
running server with CATALOG_WATCH=true picks it up without a restart.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = c.cfg.CatalogDBPath
			}

			report, err := catalog.NewBuilder().Build(c.context(cmd), args[0], out)
			if err != nil {
				return fmt.Errorf("build catalog: %w", err)
			}

			return c.print(cmd.OutOrStdout(), report, func(w io.Writer) {
				fmt.Fprintf(w, "Catalog written to %s\n", report.Path)
				for _, t := range report.Tables {
					summary := "not summarized"
					if t.Summarized {
						summary = fmt.Sprintf("%d summary rows", t.SummaryRows)
					}
					fmt.Fprintf(w, "  %s: %d rows, %d columns, %s\n", t.Name, t.Rows, t.Columns, summary)
				}
				for _, s := range report.SkippedSheets {
					fmt.Fprintf(w, "  %s: skipped (empty)\n", s)
				}
				fmt.Fprintf(w, "Summary rows: %d\n", report.SummaryRows)
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output database path (default: CATALOG_DB_PATH)")
	return cmd
}
