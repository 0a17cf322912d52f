package pipeline

import "time"

// Summary totals a run. It is returned even when the run fails.
type Summary struct {
	RunID    string
	Sessions int

	UnitsProcessed int
	UnitsSkipped   int
	UnitsFailed    int
	UnitsEmpty     int

	Events                int
	MalformedEvents       int
	UnalignedEvents       int
	DownloadFailures      int
	TranscriptionFailures int
	Pairs                 int

	MalformedSamples int
	SourceErrors     int

	Duration time.Duration
}

// Row is one labelled total for display or export.
type Row struct {
	Key   string
	Label string
	Value int
}

// Rows lists the totals in display order.
func (s Summary) Rows() []Row {
	return []Row{
		{"sessions", "Sessions", s.Sessions},
		{"units_processed", "Units processed", s.UnitsProcessed},
		{"units_skipped", "Units skipped (already complete)", s.UnitsSkipped},
		{"units_empty", "Units without pairs", s.UnitsEmpty},
		{"units_failed", "Units failed (will retry)", s.UnitsFailed},
		{"events", "Radio events", s.Events},
		{"malformed_events", "Malformed events", s.MalformedEvents},
		{"unaligned_events", "Events without telemetry", s.UnalignedEvents},
		{"download_failures", "Download failures", s.DownloadFailures},
		{"transcription_failures", "Transcription failures", s.TranscriptionFailures},
		{"malformed_samples", "Malformed telemetry samples", s.MalformedSamples},
		{"source_errors", "Data source errors", s.SourceErrors},
		{"pairs", "Training pairs", s.Pairs},
	}
}

// add folds the per-unit counters of other into s.
func (s *Summary) add(other Summary) {
	s.UnitsProcessed += other.UnitsProcessed
	s.UnitsFailed += other.UnitsFailed
	s.UnitsEmpty += other.UnitsEmpty
	s.Events += other.Events
	s.MalformedEvents += other.MalformedEvents
	s.UnalignedEvents += other.UnalignedEvents
	s.DownloadFailures += other.DownloadFailures
	s.TranscriptionFailures += other.TranscriptionFailures
	s.Pairs += other.Pairs
	s.MalformedSamples += other.MalformedSamples
	s.SourceErrors += other.SourceErrors
}
