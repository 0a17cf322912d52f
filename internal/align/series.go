package align

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"radiocorpus/internal/telemetry"
)

// DefaultLookback is the window preceding a radio message that is averaged.
const DefaultLookback = 30 * time.Second

// MeanPrefix marks aggregate keys that hold a channel mean.
const MeanPrefix = "avg_"

// ErrEventTimestamp is returned when an event instant cannot be parsed.
var ErrEventTimestamp = errors.New("event timestamp unparseable")

// Aggregate summarises the samples that fell inside one event window.
type Aggregate struct {
	// Samples is the number of samples in the window.
	Samples int
	// Means maps MeanPrefix+channel to the channel mean over the samples
	// where that channel was present.
	Means map[string]float64
}

// Mean returns the mean for a bare channel name.
func (a Aggregate) Mean(channel string) (float64, bool) {
	v, ok := a.Means[MeanPrefix+channel]
	return v, ok
}

type point struct {
	at       time.Time
	channels map[string]float64
}

// Series is a time-ordered telemetry stream. It is read-only after
// construction and safe for concurrent use.
type Series struct {
	points  []point
	skipped []string
}

// NewSeries parses and orders samples. Samples whose timestamp cannot be
// parsed are excluded from every window and reported by Skipped.
func NewSeries(samples []telemetry.Sample) *Series {
	s := &Series{points: make([]point, 0, len(samples))}
	for _, sample := range samples {
		at, err := telemetry.ParseTimestamp(sample.Date)
		if err != nil {
			s.skipped = append(s.skipped, sample.Date)
			continue
		}
		s.points = append(s.points, point{at: at, channels: sample.Channels})
	}
	sort.SliceStable(s.points, func(i, j int) bool {
		return s.points[i].at.Before(s.points[j].at)
	})
	return s
}

// Len reports the number of usable samples.
func (s *Series) Len() int { return len(s.points) }

// Skipped returns the raw timestamps of samples that were dropped.
func (s *Series) Skipped() []string {
	out := make([]string, len(s.skipped))
	copy(out, s.skipped)
	return out
}

// Window returns the samples with at-lookback <= t < at.
func (s *Series) Window(at time.Time, lookback time.Duration) []telemetry.Sample {
	lo, hi := s.bounds(at, lookback)
	out := make([]telemetry.Sample, 0, hi-lo)
	for _, p := range s.points[lo:hi] {
		out = append(out, telemetry.Sample{Date: p.at.Format(time.RFC3339Nano), Channels: p.channels})
	}
	return out
}

func (s *Series) bounds(at time.Time, lookback time.Duration) (int, int) {
	start := at.Add(-lookback)
	lo := sort.Search(len(s.points), func(i int) bool {
		return !s.points[i].at.Before(start)
	})
	hi := sort.Search(len(s.points), func(i int) bool {
		return !s.points[i].at.Before(at)
	})
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Align averages every channel observed inside the window ending at at. The
// boolean is false when no sample fell inside the window; callers must treat
// that as "no alignment", never as a zero-valued aggregate.
func (s *Series) Align(at time.Time, lookback time.Duration) (Aggregate, bool) {
	lo, hi := s.bounds(at, lookback)
	if hi == lo {
		return Aggregate{}, false
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, p := range s.points[lo:hi] {
		for name, value := range p.channels {
			sums[name] += value
			counts[name]++
		}
	}

	means := make(map[string]float64, len(sums))
	for name, sum := range sums {
		means[MeanPrefix+name] = sum / float64(counts[name])
	}
	return Aggregate{Samples: hi - lo, Means: means}, true
}

// AlignEvent parses the event instant and aligns it. An unparseable instant
// returns an error wrapping ErrEventTimestamp.
func (s *Series) AlignEvent(event telemetry.RadioEvent, lookback time.Duration) (Aggregate, bool, error) {
	at, err := telemetry.ParseTimestamp(event.Date)
	if err != nil {
		return Aggregate{}, false, fmt.Errorf("%w: %w", ErrEventTimestamp, err)
	}
	agg, ok := s.Align(at, lookback)
	return agg, ok, nil
}
