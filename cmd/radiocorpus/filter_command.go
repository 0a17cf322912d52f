package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"radiocorpus/internal/corpus"
	"radiocorpus/internal/logging"
	"radiocorpus/internal/metrics"
)

func newFilterCommand(ctx *commandContext) *cobra.Command {
	var keptPath string
	var removedPath string
	var strictness string
	var vocabulary string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "filter <corpus.jsonl>",
		Short: "Split a corpus into kept and removed records",
		Long: `Filter classifies the completion of every record. Gibberish and purely
conversational messages are written to the removed file with a
removal_reason field; everything else is copied unchanged to the kept file.

By default the outputs sit next to the input as <name>_filtered.jsonl and
<name>_removed.jsonl.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			classifier, err := ctx.classifier(strictness, vocabulary)
			if err != nil {
				return err
			}

			input := strings.TrimSpace(args[0])
			defaultKept, defaultRemoved := filterOutputPaths(input)
			if strings.TrimSpace(keptPath) == "" {
				keptPath = defaultKept
			}
			if strings.TrimSpace(removedPath) == "" {
				removedPath = defaultRemoved
			}

			start := time.Now()
			stats, err := corpus.FilterFile(cmd.Context(), input, keptPath, removedPath, classifier, corpus.WithLogger(logger))
			if err != nil {
				return err
			}
			logger.Info("filter complete",
				logging.String("input", input),
				logging.Int("kept", stats.Kept),
				logging.Int("removed", stats.Removed()),
				logging.Duration("elapsed", time.Since(start)))

			if cfg.Metrics.Textfile != "" {
				rec := metrics.NewRecorder()
				rec.RecordFilter(stats)
				if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
					logging.WarnWithContext(logger, "metrics export failed", "metrics_export_failed", logging.Error(err))
				}
			}

			if jsonOutput {
				return writeJSON(cmd, filterJSON{
					Input:          input,
					Kept:           keptPath,
					Removed:        removedPath,
					Strictness:     string(classifier.Strictness()),
					Total:          stats.Total,
					KeptCount:      stats.Kept,
					Gibberish:      stats.Gibberish,
					Conversational: stats.Conversational,
					Malformed:      stats.Malformed,
				})
			}
			printFilterStats(cmd.OutOrStdout(), stats, keptPath, removedPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&keptPath, "kept", "", "Destination for kept records")
	cmd.Flags().StringVar(&removedPath, "removed", "", "Destination for removed records")
	cmd.Flags().StringVar(&strictness, "strictness", "", "Conversational matching: substring or anchored")
	cmd.Flags().StringVar(&vocabulary, "vocabulary", "", "YAML vocabulary override file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print counts as JSON")
	return cmd
}

// filterOutputPaths derives sibling output names from the input path.
func filterOutputPaths(input string) (string, string) {
	ext := filepath.Ext(input)
	if ext == "" {
		ext = ".jsonl"
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "_filtered" + ext, base + "_removed" + ext
}

type filterJSON struct {
	Input          string `json:"input"`
	Kept           string `json:"kept_path"`
	Removed        string `json:"removed_path"`
	Strictness     string `json:"strictness"`
	Total          int    `json:"total"`
	KeptCount      int    `json:"kept"`
	Gibberish      int    `json:"gibberish"`
	Conversational int    `json:"conversational"`
	Malformed      int    `json:"malformed"`
}

func printFilterStats(out io.Writer, stats corpus.FilterStats, keptPath, removedPath string) {
	fmt.Fprintln(out, renderCounts("Filter", []countRow{
		{"Records read", stats.Total},
		{"Kept", stats.Kept},
		{"Removed as gibberish", stats.Gibberish},
		{"Removed as conversational", stats.Conversational},
		{"Malformed (skipped)", stats.Malformed},
	}))
	fmt.Fprintf(out, "Kept records: %s\n", keptPath)
	fmt.Fprintf(out, "Removed records: %s\n", removedPath)
}
