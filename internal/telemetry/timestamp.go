package telemetry

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrTimestamp marks a timestamp that could not be parsed.
var ErrTimestamp = errors.New("unparseable timestamp")

// naiveLayouts are accepted when the upstream value carries no offset; they
// are interpreted as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp converts an upstream timestamp to a UTC instant. A trailing
// "Z" and explicit offsets are honoured; values without an offset are taken
// as UTC rather than local time.
func ParseTimestamp(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrTimestamp)
	}
	if ts, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return ts.UTC(), nil
	}
	// Offsets without a colon ("+0000") and a space separator show up in
	// older exports.
	if ts, err := time.Parse("2006-01-02T15:04:05.999999999-0700", trimmed); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02 15:04:05.999999999Z07:00", trimmed); err == nil {
		return ts.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrTimestamp, value)
}

// FileStamp renders a timestamp as YYYYMMDD_HHMMSS for file naming.
func FileStamp(value string) (string, error) {
	ts, err := ParseTimestamp(value)
	if err != nil {
		return "", err
	}
	return ts.Format("20060102_150405"), nil
}
