package telemetry_test

import (
	"errors"
	"testing"
	"time"

	"radiocorpus/internal/telemetry"
)

func TestParseTimestampNormalisesToUTC(t *testing.T) {
	want := time.Date(2023, 9, 17, 12, 4, 31, 200_000_000, time.UTC)
	cases := []struct {
		name  string
		value string
	}{
		{"zulu", "2023-09-17T12:04:31.200Z"},
		{"offset", "2023-09-17T12:04:31.200000+00:00"},
		{"non-utc offset", "2023-09-17T14:04:31.2+02:00"},
		{"compact offset", "2023-09-17T12:04:31.2+0000"},
		{"naive", "2023-09-17T12:04:31.2"},
		{"naive space", "2023-09-17 12:04:31.200"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := telemetry.ParseTimestamp(tc.value)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) returned error: %v", tc.value, err)
			}
			if !got.Equal(want) {
				t.Fatalf("ParseTimestamp(%q) = %v, want %v", tc.value, got, want)
			}
			if got.Location() != time.UTC {
				t.Fatalf("expected UTC location, got %v", got.Location())
			}
		})
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "   ", "yesterday", "2023-13-45T99:00:00Z"} {
		if _, err := telemetry.ParseTimestamp(value); !errors.Is(err, telemetry.ErrTimestamp) {
			t.Fatalf("ParseTimestamp(%q) error = %v, want ErrTimestamp", value, err)
		}
	}
}

func TestFileStamp(t *testing.T) {
	got, err := telemetry.FileStamp("2023-03-05T18:02:09.123Z")
	if err != nil {
		t.Fatalf("FileStamp returned error: %v", err)
	}
	if got != "20230305_180209" {
		t.Fatalf("unexpected stamp %q", got)
	}
}

func TestSessionLabel(t *testing.T) {
	if got := (telemetry.Session{Key: 9161}).Label(); got != "Session 9161" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := (telemetry.Session{Key: 1, Name: "Race", Location: "Monza"}).Label(); got != "Monza Race" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := (telemetry.Session{Key: 2, Name: "sprint qualifying", Location: "spa-francorchamps"}).Label(); got != "Spa-Francorchamps Sprint Qualifying" {
		t.Fatalf("unexpected label %q", got)
	}
}
