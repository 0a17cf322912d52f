package openf1

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"radiocorpus/internal/services"
	"radiocorpus/internal/telemetry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	base := []Option{WithHTTPClient(server.Client()), WithRateLimit(0), WithRetries(2, time.Millisecond)}
	client, err := New(server.URL+"/v1", append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestSessionsBuildsQueryAndDecodes(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[
			{"session_key":9158,"session_name":"Race","session_type":"Race","year":2023,"location":"Sakhir","country_name":"Bahrain","date_start":"2023-03-05T15:00:00+00:00"},
			{"session_name":"orphan"}
		]`))
	})

	sessions, err := client.Sessions(context.Background(), 2023, "Race")
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if gotPath != "/v1/sessions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotQuery != "session_type=Race&year=2023" {
		t.Fatalf("query = %q", gotQuery)
	}
	want := []telemetry.Session{{
		Key: 9158, Name: "Race", Type: "Race", Year: 2023,
		Location: "Sakhir", CountryName: "Bahrain", DateStart: "2023-03-05T15:00:00+00:00",
	}}
	if diff := cmp.Diff(want, sessions); diff != "" {
		t.Fatalf("sessions mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionsWithoutTypeOmitsFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("session_type") {
			t.Errorf("unexpected session_type in %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"session_key":1}]`))
	})
	if _, err := client.Sessions(context.Background(), 2024, " "); err != nil {
		t.Fatal(err)
	}
}

func TestEmptyAndNotFoundAreNoData(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"empty array": func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`[]`)) },
		"404":         func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, handler)
			_, err := client.CarData(context.Background(), 9158, 44)
			if !errors.Is(err, ErrNoData) || !errors.Is(err, services.ErrNotFound) {
				t.Fatalf("expected ErrNoData marked not found, got %v", err)
			}
			if errors.Is(err, services.ErrTransient) {
				t.Fatalf("no data must not be transient: %v", err)
			}
		})
	}
}

func TestServerErrorsRetryThenFailTransient(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})
	_, err := client.TeamRadio(context.Background(), 9158, 44)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3 (1 + 2 retries)", got)
	}
}

func TestRetryRecovers(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[{"date":"2023-03-05T15:10:00Z","recording_url":"https://x/a.mp3","session_key":9158,"driver_number":44}]`))
	})
	events, err := client.TeamRadio(context.Background(), 9158, 44)
	if err != nil {
		t.Fatalf("TeamRadio: %v", err)
	}
	if len(events) != 1 || events[0].RecordingURL != "https://x/a.mp3" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad query", http.StatusBadRequest)
	})
	_, err := client.Sessions(context.Background(), 2023, "")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestCarDataChannels(t *testing.T) {
	body := `[
		{"date":"2023-03-05T15:00:00.1Z","session_key":9158,"meeting_key":1141,"driver_number":44,"speed":280,"rpm":11000.5,"throttle":99,"brake":0,"n_gear":7,"drs":null},
		{"date":"2023-03-05T15:00:00.3Z","session_key":9158,"driver_number":44,"speed":null,"rpm":10900,"label":"x"}
	]`
	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/car_data" || r.URL.Query().Get("driver_number") != "44" || r.URL.Query().Get("session_key") != "9158" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(body))
	}

	all := newTestClient(t, handler)
	samples, err := all.CarData(context.Background(), 9158, 44)
	if err != nil {
		t.Fatal(err)
	}
	want := []telemetry.Sample{
		{Date: "2023-03-05T15:00:00.1Z", Channels: map[string]float64{"speed": 280, "rpm": 11000.5, "throttle": 99, "brake": 0, "n_gear": 7}},
		{Date: "2023-03-05T15:00:00.3Z", Channels: map[string]float64{"rpm": 10900}},
	}
	if diff := cmp.Diff(want, samples); diff != "" {
		t.Fatalf("samples mismatch (-want +got):\n%s", diff)
	}

	restricted := newTestClient(t, handler, WithChannels([]string{"speed", "brake"}))
	samples, err = restricted.CarData(context.Background(), 9158, 44)
	if err != nil {
		t.Fatal(err)
	}
	want = []telemetry.Sample{
		{Date: "2023-03-05T15:00:00.1Z", Channels: map[string]float64{"speed": 280, "brake": 0}},
		{Date: "2023-03-05T15:00:00.3Z", Channels: map[string]float64{}},
	}
	if diff := cmp.Diff(want, samples); diff != "" {
		t.Fatalf("restricted samples mismatch (-want +got):\n%s", diff)
	}
}

func TestDriversWithRadioSortedUnique(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("driver_number") {
			t.Errorf("unexpected driver filter")
		}
		_, _ = w.Write([]byte(`[{"driver_number":44},{"driver_number":1},{"driver_number":44},{"date":"x"}]`))
	})
	drivers, err := client.DriversWithRadio(context.Background(), 9158)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 44}, drivers); diff != "" {
		t.Fatalf("drivers mismatch (-want +got):\n%s", diff)
	}
}

func TestTeamRadioKeepsIncompleteRows(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"date":"2023-03-05T15:10:00Z"},{"recording_url":"https://x/b.mp3"},"junk"]`))
	})
	events, err := client.TeamRadio(context.Background(), 9158, 44)
	if err != nil {
		t.Fatal(err)
	}
	want := []telemetry.RadioEvent{
		{Date: "2023-03-05T15:10:00Z", SessionKey: 9158, DriverNumber: 44},
		{RecordingURL: "https://x/b.mp3", SessionKey: 9158, DriverNumber: 44},
		{SessionKey: 9158, DriverNumber: 44},
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestPing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestNewRejectsRelativeURL(t *testing.T) {
	if _, err := New("api.openf1.org/v1"); err == nil {
		t.Fatal("expected error for relative base url")
	}
	c, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	if c.baseURL.String() != defaultBaseURL {
		t.Fatalf("base = %s", c.baseURL)
	}
}

func TestWaitSpacesRequests(t *testing.T) {
	c, err := New("", WithRateLimit(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := c.wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("requests not spaced: %v", elapsed)
	}
}
