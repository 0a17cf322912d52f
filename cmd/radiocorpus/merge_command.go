package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"radiocorpus/internal/corpus"
)

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "merge <input.jsonl>... --output <combined.jsonl>",
		Short: "Concatenate corpus files in order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				return errors.New("--output is required")
			}
			if _, err := ctx.ensureLogger(); err != nil {
				return err
			}
			stats, err := corpus.MergeFiles(cmd.Context(), outputPath, args...)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(stats.Sources)+1)
			for _, src := range stats.Sources {
				rows = append(rows, []string{src.Name, strconv.Itoa(src.Records)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, tableView{
				columns: []column{textColumn("Source"), numericColumn("Records")},
				rows:    rows,
				footer:  []string{"Total", strconv.Itoa(stats.Total)},
			}.render())
			fmt.Fprintf(out, "Merged corpus: %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination for the merged corpus")
	return cmd
}
