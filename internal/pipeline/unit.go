package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"radiocorpus/internal/align"
	"radiocorpus/internal/logging"
	"radiocorpus/internal/pairs"
	"radiocorpus/internal/services"
	"radiocorpus/internal/telemetry"
)

// processUnit turns the radio of one (session, driver) unit into pairs.
// Event-level failures are counted in the result; only failures that
// prevent the whole unit from being processed are returned in err.
func (r *Runner) processUnit(ctx context.Context, unit telemetry.Unit) unitResult {
	res := unitResult{unit: unit}
	ctx = services.WithUnit(ctx, unit.SessionKey, unit.DriverNumber)
	logger := logging.WithContext(ctx, r.logger)

	samples, err := r.deps.Source.CarData(services.WithStage(ctx, "telemetry"), unit.SessionKey, unit.DriverNumber)
	if err != nil {
		if services.Classify(err) != services.OutcomeComplete {
			res.err = err
			return res
		}
		logger.Info("no telemetry for unit; events will not align", logging.Error(err))
	}
	series := align.NewSeries(samples)
	if skipped := series.Skipped(); len(skipped) > 0 {
		res.stats.MalformedSamples = len(skipped)
		logging.WarnWithContext(logger, "telemetry samples with unparseable timestamps dropped", "malformed_samples",
			logging.Int("count", len(skipped)),
			logging.String("first", skipped[0]),
		)
	}

	events, err := r.deps.Source.TeamRadio(services.WithStage(ctx, "radio"), unit.SessionKey, unit.DriverNumber)
	if err != nil {
		res.err = err
		return res
	}
	logger.Debug("unit loaded",
		logging.Int("samples", series.Len()),
		logging.Int("events", len(events)))

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			res.err = err
			return res
		}
		res.stats.Events++
		pair, err := r.processEvent(ctx, series, ev, &res.stats)
		if err != nil {
			res.err = err
			return res
		}
		if pair != nil {
			res.pairs = append(res.pairs, *pair)
		}
	}
	return res
}

// processEvent aligns, downloads and transcribes a single event. A nil pair
// with a nil error means the event was skipped and counted in stats.
func (r *Runner) processEvent(ctx context.Context, series *align.Series, ev telemetry.RadioEvent, stats *Summary) (*pairs.TrainingPair, error) {
	logger := logging.WithContext(ctx, r.logger).With(logging.String("event_date", ev.Date))

	if strings.TrimSpace(ev.Date) == "" || strings.TrimSpace(ev.RecordingURL) == "" {
		stats.MalformedEvents++
		logging.WarnWithContext(logger, "radio event missing date or recording url", "malformed_event")
		return nil, nil
	}
	agg, ok, err := series.AlignEvent(ev, r.opts.Lookback)
	if err != nil {
		stats.MalformedEvents++
		logging.WarnWithContext(logger, "radio event timestamp unparseable", "malformed_event", logging.Error(err))
		return nil, nil
	}
	if !ok {
		stats.UnalignedEvents++
		logger.Debug("no telemetry inside lookback window; event skipped")
		return nil, nil
	}

	path, err := r.deps.Fetcher.Download(services.WithStage(ctx, "download"), ev)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		stats.DownloadFailures++
		logging.WarnWithContext(logger, "radio download failed", "download_failed",
			logging.Error(err),
			logging.String("url", ev.RecordingURL),
			logging.String(logging.FieldErrorHint, "the recording may have been removed; it is retried on the next run only if the unit fails"),
		)
		return nil, nil
	}

	text, err := r.deps.Transcriber.Transcribe(services.WithStage(ctx, "transcribe"), path)
	r.cleanup(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		stats.TranscriptionFailures++
		logging.WarnWithContext(logger, "transcription failed", "transcription_failed",
			logging.Error(err),
			logging.String("audio", path),
		)
		return nil, nil
	}

	pair, ok := r.deps.Builder.Build(agg, true, text)
	if !ok {
		stats.TranscriptionFailures++
		logging.WarnWithContext(logger, "transcript empty after trimming", "transcription_failed",
			logging.String("audio", path))
		return nil, nil
	}
	return &pair, nil
}

func (r *Runner) cleanup(ctx context.Context, path string) {
	if !r.opts.CleanupAudio || r.deps.Cleanup == nil {
		return
	}
	if err := r.deps.Cleanup(path); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "audio cleanup failed", "cleanup_failed",
			logging.Error(err),
			logging.String("audio", path),
			logging.String(logging.FieldImpact, "recording left on disk"),
		)
	}
}

type consumeResult struct {
	summary Summary
	err     error
}

// consume records unit results serially so sink and ledger writes never
// interleave. After a fatal error it keeps draining without recording.
func (r *Runner) consume(ctx context.Context, cancel context.CancelFunc, results <-chan unitResult) consumeResult {
	var out consumeResult
	for res := range results {
		if out.err != nil {
			continue
		}
		out.summary.add(res.stats)
		if err := r.record(ctx, res, &out.summary); err != nil {
			out.err = err
			cancel()
		}
	}
	return out
}

func (r *Runner) record(ctx context.Context, res unitResult, summary *Summary) error {
	unitCtx := services.WithUnit(ctx, res.unit.SessionKey, res.unit.DriverNumber)
	logger := logging.WithContext(unitCtx, r.logger)
	// Ledger writes outlive cancellation so appended pairs are not replayed.
	writeCtx := context.WithoutCancel(unitCtx)

	if res.err != nil {
		if errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded) {
			return nil
		}
		switch services.Classify(res.err) {
		case services.OutcomeComplete:
			logger.Info("unit has no radio; marking complete", logging.Error(res.err))
			summary.UnitsEmpty++
			return r.markComplete(writeCtx, res.unit, 0)
		case services.OutcomeAbort:
			return fmt.Errorf("%s: %w", res.unit, res.err)
		default:
			summary.UnitsFailed++
			logging.WarnWithContext(logger, "unit failed; it will be retried on the next run", "unit_failed",
				logging.Error(res.err),
				logging.String(logging.FieldImpact, "unit not recorded as complete"),
			)
			return nil
		}
	}

	if len(res.pairs) > 0 {
		if err := r.deps.Sink.Append(res.pairs); err != nil {
			return services.Wrap(services.ErrTransient, "pipeline", "append pairs", res.unit.String(), err)
		}
	}
	if err := r.markComplete(writeCtx, res.unit, len(res.pairs)); err != nil {
		return err
	}
	summary.UnitsProcessed++
	summary.Pairs += len(res.pairs)
	if len(res.pairs) == 0 {
		summary.UnitsEmpty++
	}
	logger.Info("unit complete",
		logging.Int("events", res.stats.Events),
		logging.Int("pairs", len(res.pairs)))
	return nil
}

func (r *Runner) markComplete(ctx context.Context, unit telemetry.Unit, count int) error {
	if r.deps.Progress == nil {
		return nil
	}
	if err := r.deps.Progress.MarkComplete(ctx, r.opts.OutputPath, r.opts.RunID, unit, count); err != nil {
		return fmt.Errorf("record %s in ledger: %w", unit, err)
	}
	return nil
}
