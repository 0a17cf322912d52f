package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"radiocorpus/internal/audio"
	"radiocorpus/internal/config"
	"radiocorpus/internal/corpus"
	"radiocorpus/internal/ledger"
	"radiocorpus/internal/logging"
	"radiocorpus/internal/metrics"
	"radiocorpus/internal/openf1"
	"radiocorpus/internal/pairs"
	"radiocorpus/internal/pipeline"
	"radiocorpus/internal/preflight"
	"radiocorpus/internal/transcribe"
)

type buildFlags struct {
	output        string
	years         []int
	sessionType   string
	sessionKeys   []int
	drivers       []int
	maxSessions   int
	maxDrivers    int
	workers       int
	fresh         bool
	skipPreflight bool
	jsonOutput    bool
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build training pairs from OpenF1 telemetry and team radio",
		Long: `Build resolves sessions and drivers from OpenF1, aligns every team radio
message with the telemetry that preceded it, transcribes the recording and
appends one prompt/completion pair per usable message to the corpus file.

Completed (session, driver) units are recorded in the progress ledger, so an
interrupted build resumes where it stopped. Use --fresh to start over.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			applyBuildFlags(cmd, cfg, flags)
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !flags.skipPreflight {
				if err := runBuildPreflight(runCtx, cfg); err != nil {
					return err
				}
			}

			outputPath, err := filepath.Abs(cfg.OutputPath())
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}

			store, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()
			if err := store.Lock(); err != nil {
				return err
			}

			writer, err := corpus.OpenWriter(outputPath)
			if err != nil {
				return err
			}
			defer writer.Close()

			if flags.fresh {
				removed, err := startFresh(runCtx, store, writer, outputPath)
				if err != nil {
					return err
				}
				logger.Info("fresh build requested; corpus truncated",
					logging.String("output", outputPath),
					logging.Int("ledger_units_removed", int(removed)))
			}

			runID, err := store.BeginRun(runCtx, outputPath)
			if err != nil {
				return fmt.Errorf("record run start: %w", err)
			}
			logger = logger.With(logging.String(logging.FieldRunID, runID))

			runner, err := newBuildRunner(cfg, logger, writer, store, outputPath, runID)
			if err != nil {
				return err
			}

			logger.Info("build started",
				logging.String("output", outputPath),
				logging.Any("years", cfg.OpenF1.Years),
				logging.String("session_type", cfg.OpenF1.SessionType),
				logging.Int("workers", cfg.Pipeline.Workers))

			summary, runErr := runner.Run(runCtx)

			status := ledger.StatusCompleted
			if runErr != nil {
				status = ledger.StatusFailed
			}
			totals := ledger.RunTotals{Units: summary.UnitsProcessed, Pairs: summary.Pairs, Failed: summary.UnitsFailed}
			if err := store.FinishRun(context.WithoutCancel(runCtx), runID, status, totals); err != nil {
				logging.WarnWithContext(logger, "failed to record run result", "ledger_write_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "ledger list shows the run as running"))
			}

			exportBuildMetrics(logger, cfg, summary, runErr)

			if flags.jsonOutput {
				if err := writeJSON(cmd, buildSummaryJSON(summary, outputPath, runErr)); err != nil {
					return err
				}
			} else {
				printBuildSummary(cmd.OutOrStdout(), summary, outputPath)
			}
			if runErr != nil {
				return fmt.Errorf("build run %s: %w", runID, runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Corpus file (overrides pipeline.output_file)")
	cmd.Flags().IntSliceVar(&flags.years, "year", nil, "Season years to process (overrides openf1.years)")
	cmd.Flags().StringVar(&flags.sessionType, "session-type", "", "Session type such as Race or Qualifying")
	cmd.Flags().IntSliceVar(&flags.sessionKeys, "session-key", nil, "Only process these session keys")
	cmd.Flags().IntSliceVar(&flags.drivers, "driver", nil, "Only process these driver numbers")
	cmd.Flags().IntVar(&flags.maxSessions, "max-sessions", 0, "Limit the number of sessions (0 = no limit)")
	cmd.Flags().IntVar(&flags.maxDrivers, "max-drivers", 0, "Limit drivers per session (0 = no limit)")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Units processed concurrently")
	cmd.Flags().BoolVar(&flags.fresh, "fresh", false, "Truncate the corpus and forget ledger progress for it")
	cmd.Flags().BoolVar(&flags.skipPreflight, "skip-preflight", false, "Skip binary, directory and OpenF1 checks")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Print the run summary as JSON")
	return cmd
}

func applyBuildFlags(cmd *cobra.Command, cfg *config.Config, flags buildFlags) {
	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.Pipeline.OutputFile = strings.TrimSpace(flags.output)
	}
	if changed("year") {
		cfg.OpenF1.Years = flags.years
	}
	if changed("session-type") {
		cfg.OpenF1.SessionType = strings.TrimSpace(flags.sessionType)
	}
	if changed("session-key") {
		cfg.OpenF1.SessionKeys = flags.sessionKeys
	}
	if changed("driver") {
		cfg.OpenF1.DriverNumbers = flags.drivers
	}
	if changed("max-sessions") {
		cfg.OpenF1.MaxSessions = flags.maxSessions
	}
	if changed("max-drivers") {
		cfg.OpenF1.MaxDriversPerSession = flags.maxDrivers
	}
	if changed("workers") {
		cfg.Pipeline.Workers = flags.workers
	}
}

// runBuildPreflight refuses to start a run that cannot produce pairs.
func runBuildPreflight(ctx context.Context, cfg *config.Config) error {
	if missing := preflight.MissingRequired(preflight.CheckSystemDeps(cfg)); len(missing) > 0 {
		return fmt.Errorf("missing required binaries: %s (run `radiocorpus doctor` for details)", strings.Join(missing, ", "))
	}
	failed := preflight.Failed(preflight.RunAll(ctx, cfg))
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}

func newBuildRunner(cfg *config.Config, logger *slog.Logger, sink pipeline.Sink, progress pipeline.Progress, outputPath, runID string) (*pipeline.Runner, error) {
	client, err := openf1.New(cfg.OpenF1.BaseURL,
		openf1.WithTimeout(cfg.OpenF1Timeout()),
		openf1.WithChannels(cfg.OpenF1.Channels),
		openf1.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	engine := transcribe.NewWhisperX(transcribe.WhisperXConfig{
		Model:       cfg.Transcription.Model,
		CUDAEnabled: cfg.Transcription.CUDAEnabled,
		VADMethod:   cfg.Transcription.VADMethod,
		HFToken:     cfg.Transcription.HFToken,
		Language:    cfg.Transcription.Language,
		UVXBinary:   cfg.UVXBinary(),
		Timeout:     cfg.TranscriptionTimeout(),
		OutputDir:   cfg.Paths.WorkDir,
	})
	decoder := transcribe.NewDecoder(cfg.FFmpegBinary())

	return pipeline.NewRunner(pipeline.Deps{
		Source:      client,
		Fetcher:     audio.NewDownloader(cfg.Paths.WorkDir, audio.WithLogger(logger)),
		Transcriber: transcribe.NewFallback(engine, decoder, cfg.Paths.WorkDir, logger),
		Builder:     pairs.NewBuilder(cfg.Alignment.ChannelPriority),
		Sink:        sink,
		Progress:    progress,
		Cleanup:     audio.Cleanup,
		Logger:      logger,
	}, pipeline.Options{
		Years:                cfg.OpenF1.Years,
		SessionType:          cfg.OpenF1.SessionType,
		SessionKeys:          cfg.OpenF1.SessionKeys,
		DriverNumbers:        cfg.OpenF1.DriverNumbers,
		MaxSessions:          cfg.OpenF1.MaxSessions,
		MaxDriversPerSession: cfg.OpenF1.MaxDriversPerSession,
		Lookback:             cfg.Lookback(),
		Workers:              cfg.Pipeline.Workers,
		CleanupAudio:         cfg.Transcription.CleanupAudio,
		OutputPath:           outputPath,
		RunID:                runID,
	})
}

func exportBuildMetrics(logger *slog.Logger, cfg *config.Config, summary pipeline.Summary, runErr error) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	rec := metrics.NewRecorder()
	rec.RecordRun(summary, time.Now(), runErr)
	if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logging.WarnWithContext(logger, "metrics export failed", "metrics_export_failed",
			logging.Error(err),
			logging.String("path", cfg.Metrics.Textfile),
			logging.String(logging.FieldImpact, "scraped totals are stale"))
	}
}

func printBuildSummary(out io.Writer, summary pipeline.Summary, outputPath string) {
	counts := make([]countRow, 0, len(summary.Rows()))
	for _, row := range summary.Rows() {
		counts = append(counts, countRow{row.Label, row.Value})
	}
	fmt.Fprintln(out, renderCounts("Build summary", counts))
	fmt.Fprintf(out, "Run %s finished in %s; corpus: %s\n", summary.RunID, summary.Duration.Round(time.Millisecond), outputPath)
}

type buildSummaryOutput struct {
	RunID    string         `json:"run_id"`
	Output   string         `json:"output"`
	Duration string         `json:"duration"`
	Totals   map[string]int `json:"totals"`
	Error    string         `json:"error,omitempty"`
}

func buildSummaryJSON(summary pipeline.Summary, outputPath string, runErr error) buildSummaryOutput {
	out := buildSummaryOutput{
		RunID:    summary.RunID,
		Output:   outputPath,
		Duration: summary.Duration.Round(time.Millisecond).String(),
		Totals:   make(map[string]int),
	}
	for _, row := range summary.Rows() {
		out.Totals[row.Key] = row.Value
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	return out
}

type ledgerResetter interface {
	Reset(ctx context.Context, outputPath string) (int64, error)
}

type corpusTruncater interface {
	Truncate() error
}

// startFresh forgets the output's completed units before emptying the
// corpus. A failed reset leaves the corpus intact.
func startFresh(ctx context.Context, store ledgerResetter, writer corpusTruncater, outputPath string) (int64, error) {
	removed, err := store.Reset(ctx, outputPath)
	if err != nil {
		return 0, err
	}
	return removed, writer.Truncate()
}
