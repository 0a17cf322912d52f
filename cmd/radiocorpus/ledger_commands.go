package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"radiocorpus/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or reset build progress",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerResetCommand(ctx))
	return ledgerCmd
}

func (c *commandContext) withLedger(fn func(*ledger.Ledger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var units bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent build runs, or completed units with --units",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Ledger) error {
				if units {
					return listLedgerUnits(cmd, ctx, store, jsonOutput)
				}
				runs, err := store.Runs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No builds recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						formatLedgerTime(run.StartedAt),
						run.Status,
						strconv.Itoa(run.Units),
						strconv.Itoa(run.Failed),
						strconv.Itoa(run.Pairs),
						filepath.Base(run.OutputPath),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), tableView{
					columns: []column{
						textColumn("Run"), textColumn("Started"), textColumn("Status"),
						numericColumn("Units"), numericColumn("Failed"), numericColumn("Pairs"),
						textColumn("Output"),
					},
					rows: rows,
				}.render())
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show")
	cmd.Flags().BoolVar(&units, "units", false, "List completed units for the configured corpus")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print records as JSON")
	return cmd
}

func listLedgerUnits(cmd *cobra.Command, ctx *commandContext, store *ledger.Ledger, jsonOutput bool) error {
	outputPath, err := ctx.absOutputPath()
	if err != nil {
		return err
	}
	records, err := store.Units(cmd.Context(), outputPath)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, records)
	}
	if len(records) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No completed units for %s\n", outputPath)
		return nil
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			strconv.Itoa(rec.SessionKey),
			strconv.Itoa(rec.DriverNumber),
			strconv.Itoa(rec.Pairs),
			formatLedgerTime(rec.CompletedAt),
			shortID(rec.RunID),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), tableView{
		columns: []column{
			numericColumn("Session"), numericColumn("Driver"), numericColumn("Pairs"),
			textColumn("Completed"), textColumn("Run"),
		},
		rows: rows,
	}.render())
	return nil
}

func newLedgerResetCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget completed units so the next build reprocesses them",
		Long: `Reset removes the completed-unit records for a corpus file. The corpus
itself is not modified; use "build --fresh" to truncate it as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputPath := strings.TrimSpace(output)
			if outputPath == "" {
				resolved, err := ctx.absOutputPath()
				if err != nil {
					return err
				}
				outputPath = resolved
			} else {
				abs, err := filepath.Abs(outputPath)
				if err != nil {
					return err
				}
				outputPath = abs
			}
			return ctx.withLedger(func(store *ledger.Ledger) error {
				if err := store.Lock(); err != nil {
					return err
				}
				removed, err := store.Reset(cmd.Context(), outputPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed unit(s) for %s\n", removed, outputPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Corpus file to reset (defaults to the configured output)")
	return cmd
}

func (c *commandContext) absOutputPath() (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return filepath.Abs(cfg.OutputPath())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatLedgerTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
