package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"radiocorpus/internal/align"
	"radiocorpus/internal/logging"
	"radiocorpus/internal/pairs"
	"radiocorpus/internal/services"
	"radiocorpus/internal/telemetry"
)

// Options selects what a run processes.
type Options struct {
	Years                []int
	SessionType          string
	SessionKeys          []int
	DriverNumbers        []int
	MaxSessions          int
	MaxDriversPerSession int

	Lookback time.Duration
	Workers  int

	// CleanupAudio removes each recording after it has been transcribed.
	CleanupAudio bool
	// OutputPath keys ledger entries; it should be absolute.
	OutputPath string
	RunID      string
}

// Deps are the collaborators of a Runner. Progress and Cleanup are optional.
type Deps struct {
	Source      Source
	Fetcher     Fetcher
	Transcriber Transcriber
	Builder     *pairs.Builder
	Sink        Sink
	Progress    Progress
	Cleanup     func(path string) error
	Logger      *slog.Logger
}

// Runner executes build runs.
type Runner struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// NewRunner validates deps and fills option defaults.
func NewRunner(deps Deps, opts Options) (*Runner, error) {
	switch {
	case deps.Source == nil:
		return nil, errors.New("pipeline: source is required")
	case deps.Fetcher == nil:
		return nil, errors.New("pipeline: fetcher is required")
	case deps.Transcriber == nil:
		return nil, errors.New("pipeline: transcriber is required")
	case deps.Sink == nil:
		return nil, errors.New("pipeline: sink is required")
	}
	if deps.Builder == nil {
		deps.Builder = pairs.NewBuilder(nil)
	}
	if opts.Lookback <= 0 {
		opts.Lookback = align.DefaultLookback
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(deps.Logger, "pipeline"),
	}, nil
}

type unitResult struct {
	unit  telemetry.Unit
	pairs []pairs.TrainingPair
	stats Summary
	err   error
}

// Run processes every selected unit. Per-event failures are counted and
// logged; per-unit failures leave the unit for the next run. The returned
// error is non-nil only for failures that make further work pointless, such
// as an unwritable corpus or a cancelled context.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: r.opts.RunID}
	if r.opts.RunID != "" {
		ctx = services.WithRunID(ctx, r.opts.RunID)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	logger := logging.WithContext(ctx, r.logger)

	sessions := r.resolveSessions(ctx, &summary)
	summary.Sessions = len(sessions)
	logger.Info("sessions resolved", logging.Int("sessions", len(sessions)))

	results := make(chan unitResult)
	consumed := make(chan consumeResult, 1)
	go func() {
		consumed <- r.consume(ctx, cancel, results)
	}()

	var fatal error
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
sessions:
	for _, session := range sessions {
		for _, unit := range r.resolveUnits(gctx, session, &summary) {
			if gctx.Err() != nil {
				break sessions
			}
			done, err := r.isComplete(gctx, unit)
			if err != nil {
				fatal = err
				cancel()
				break sessions
			}
			if done {
				summary.UnitsSkipped++
				logger.Info("unit already complete; skipping",
					logging.Int(logging.FieldSessionKey, unit.SessionKey),
					logging.Int(logging.FieldDriverNumber, unit.DriverNumber))
				continue
			}
			g.Go(func() error {
				res := r.processUnit(gctx, unit)
				select {
				case results <- res:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
	}
	waitErr := g.Wait()
	close(results)
	out := <-consumed

	summary.add(out.summary)
	summary.Duration = time.Since(start)
	switch {
	case fatal != nil:
		return summary, fatal
	case out.err != nil:
		return summary, out.err
	case waitErr != nil:
		return summary, waitErr
	default:
		return summary, ctx.Err()
	}
}

func (r *Runner) isComplete(ctx context.Context, unit telemetry.Unit) (bool, error) {
	if r.deps.Progress == nil {
		return false, nil
	}
	done, err := r.deps.Progress.IsComplete(ctx, r.opts.OutputPath, unit)
	if err != nil {
		return false, fmt.Errorf("check ledger for %s: %w", unit, err)
	}
	return done, nil
}

// resolveSessions lists sessions for every configured year and applies the
// session key filter and limit.
func (r *Runner) resolveSessions(ctx context.Context, summary *Summary) []telemetry.Session {
	var sessions []telemetry.Session
	for _, year := range r.opts.Years {
		found, err := r.deps.Source.Sessions(ctx, year, r.opts.SessionType)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.warnSource(ctx, err, "no sessions for year", logging.Int("year", year))
			if services.Classify(err) != services.OutcomeComplete {
				summary.SourceErrors++
			}
			continue
		}
		sessions = append(sessions, found...)
	}
	if len(r.opts.SessionKeys) > 0 {
		sessions = slices.DeleteFunc(slices.Clone(sessions), func(s telemetry.Session) bool {
			return !slices.Contains(r.opts.SessionKeys, s.Key)
		})
	}
	if r.opts.MaxSessions > 0 && len(sessions) > r.opts.MaxSessions {
		sessions = sessions[:r.opts.MaxSessions]
	}
	return sessions
}

// resolveUnits lists the drivers with radio in session and applies the
// driver filter and limit.
func (r *Runner) resolveUnits(ctx context.Context, session telemetry.Session, summary *Summary) []telemetry.Unit {
	drivers, err := r.deps.Source.DriversWithRadio(ctx, session.Key)
	if err != nil {
		if ctx.Err() == nil {
			r.warnSource(ctx, err, "no drivers with radio", logging.Int(logging.FieldSessionKey, session.Key))
			if services.Classify(err) != services.OutcomeComplete {
				summary.SourceErrors++
			}
		}
		return nil
	}
	if len(r.opts.DriverNumbers) > 0 {
		drivers = slices.DeleteFunc(slices.Clone(drivers), func(d int) bool {
			return !slices.Contains(r.opts.DriverNumbers, d)
		})
	}
	if r.opts.MaxDriversPerSession > 0 && len(drivers) > r.opts.MaxDriversPerSession {
		drivers = drivers[:r.opts.MaxDriversPerSession]
	}
	r.logger.Info("session drivers resolved",
		logging.Int(logging.FieldSessionKey, session.Key),
		logging.String("session", session.Label()),
		logging.Int("drivers", len(drivers)))

	units := make([]telemetry.Unit, 0, len(drivers))
	for _, d := range drivers {
		units = append(units, telemetry.Unit{SessionKey: session.Key, DriverNumber: d})
	}
	return units
}

func (r *Runner) warnSource(ctx context.Context, err error, msg string, attrs ...logging.Attr) {
	logger := logging.WithContext(ctx, r.logger)
	if services.Classify(err) == services.OutcomeComplete {
		logger.Info(msg, logging.Args(append(attrs, logging.Error(err))...)...)
		return
	}
	attrs = append(attrs,
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check network access to the data source"),
		logging.String(logging.FieldImpact, "sessions or drivers missing from this run"),
	)
	logging.WarnWithContext(logger, msg, "source_error", attrs...)
}
