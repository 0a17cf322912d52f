package openf1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"radiocorpus/internal/services"
	"radiocorpus/internal/telemetry"
)

// identifierFields are car_data keys that never become channels.
var identifierFields = map[string]struct{}{
	"date":          {},
	"driver_number": {},
	"session_key":   {},
	"meeting_key":   {},
}

type sessionRow struct {
	SessionKey  int    `json:"session_key"`
	SessionName string `json:"session_name"`
	SessionType string `json:"session_type"`
	Year        int    `json:"year"`
	Location    string `json:"location"`
	CountryName string `json:"country_name"`
	DateStart   string `json:"date_start"`
}

type radioRow struct {
	Date         string `json:"date"`
	RecordingURL string `json:"recording_url"`
	SessionKey   int    `json:"session_key"`
	DriverNumber *int   `json:"driver_number"`
}

// Sessions lists the sessions of a year, optionally restricted to one
// session type such as "Race". Rows without a session key are dropped.
func (c *Client) Sessions(ctx context.Context, year int, sessionType string) ([]telemetry.Session, error) {
	params := url.Values{}
	params.Set("year", strconv.Itoa(year))
	if st := strings.TrimSpace(sessionType); st != "" {
		params.Set("session_type", st)
	}
	rows, err := c.fetch(ctx, "sessions", params)
	if err != nil {
		return nil, err
	}
	sessions := make([]telemetry.Session, 0, len(rows))
	for _, raw := range rows {
		var row sessionRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, services.Wrap(services.ErrTransient, "openf1", "sessions", "decode session", err)
		}
		if row.SessionKey == 0 {
			continue
		}
		sessions = append(sessions, telemetry.Session{
			Key:         row.SessionKey,
			Name:        row.SessionName,
			Type:        row.SessionType,
			Year:        row.Year,
			Location:    row.Location,
			CountryName: row.CountryName,
			DateStart:   row.DateStart,
		})
	}
	return sessions, nil
}

// DriversWithRadio returns the sorted driver numbers that have at least one
// team radio message in the session.
func (c *Client) DriversWithRadio(ctx context.Context, sessionKey int) ([]int, error) {
	params := url.Values{}
	params.Set("session_key", strconv.Itoa(sessionKey))
	rows, err := c.fetch(ctx, "team_radio", params)
	if err != nil {
		return nil, err
	}
	seen := map[int]struct{}{}
	for _, raw := range rows {
		var row radioRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, services.Wrap(services.ErrTransient, "openf1", "team_radio", "decode radio", err)
		}
		if row.DriverNumber != nil {
			seen[*row.DriverNumber] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "openf1", "team_radio", query(params), ErrNoData)
	}
	drivers := make([]int, 0, len(seen))
	for d := range seen {
		drivers = append(drivers, d)
	}
	sort.Ints(drivers)
	return drivers, nil
}

// TeamRadio returns the radio events of one driver in input order. Rows are
// returned even when fields are missing so the caller can count them.
func (c *Client) TeamRadio(ctx context.Context, sessionKey, driverNumber int) ([]telemetry.RadioEvent, error) {
	params := unitParams(sessionKey, driverNumber)
	rows, err := c.fetch(ctx, "team_radio", params)
	if err != nil {
		return nil, err
	}
	events := make([]telemetry.RadioEvent, 0, len(rows))
	for _, raw := range rows {
		var row radioRow
		if err := json.Unmarshal(raw, &row); err != nil {
			// keep a blank event so the pipeline counts it as malformed
			events = append(events, telemetry.RadioEvent{SessionKey: sessionKey, DriverNumber: driverNumber})
			continue
		}
		ev := telemetry.RadioEvent{
			Date:         strings.TrimSpace(row.Date),
			RecordingURL: strings.TrimSpace(row.RecordingURL),
			SessionKey:   sessionKey,
			DriverNumber: driverNumber,
		}
		if row.SessionKey != 0 {
			ev.SessionKey = row.SessionKey
		}
		if row.DriverNumber != nil {
			ev.DriverNumber = *row.DriverNumber
		}
		events = append(events, ev)
	}
	return events, nil
}

// CarData returns the telemetry samples of one driver. Every numeric field
// other than the identifiers becomes a channel, restricted to the configured
// channel list when one is set. Null and non-numeric values are dropped.
func (c *Client) CarData(ctx context.Context, sessionKey, driverNumber int) ([]telemetry.Sample, error) {
	rows, err := c.fetch(ctx, "car_data", unitParams(sessionKey, driverNumber))
	if err != nil {
		return nil, err
	}
	samples := make([]telemetry.Sample, 0, len(rows))
	for _, raw := range rows {
		sample, err := c.decodeSample(raw)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "openf1", "car_data", "decode sample", err)
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func (c *Client) decodeSample(raw json.RawMessage) (telemetry.Sample, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return telemetry.Sample{}, err
	}
	if fields == nil {
		return telemetry.Sample{}, fmt.Errorf("sample is not an object")
	}

	sample := telemetry.Sample{Channels: make(map[string]float64, len(fields))}
	if date, ok := fields["date"].(string); ok {
		sample.Date = date
	}
	for key, value := range fields {
		if _, skip := identifierFields[key]; skip {
			continue
		}
		if c.channels != nil {
			if _, want := c.channels[key]; !want {
				continue
			}
		}
		num, ok := value.(json.Number)
		if !ok {
			continue
		}
		f, err := num.Float64()
		if err != nil {
			continue
		}
		sample.Channels[key] = f
	}
	return sample, nil
}

func unitParams(sessionKey, driverNumber int) url.Values {
	params := url.Values{}
	params.Set("session_key", strconv.Itoa(sessionKey))
	params.Set("driver_number", strconv.Itoa(driverNumber))
	return params
}
