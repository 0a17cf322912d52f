package telemetry

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sample is a single telemetry reading. Channels is sparse: a channel that
// was not measured for this sample has no key.
type Sample struct {
	Date     string
	Channels map[string]float64
}

// Channel returns the value of a channel and whether it was measured.
func (s Sample) Channel(name string) (float64, bool) {
	v, ok := s.Channels[name]
	return v, ok
}

// RadioEvent is a team radio message. Transcript stays empty until the
// transcription collaborator produces text for it.
type RadioEvent struct {
	Date         string
	RecordingURL string
	SessionKey   int
	DriverNumber int
	Transcript   string
}

// Session describes a timed session returned by the data source.
type Session struct {
	Key         int
	Name        string
	Type        string
	Year        int
	Location    string
	CountryName string
	DateStart   string
}

// Label returns a human readable session label such as "Monza Race".
func (s Session) Label() string {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return fmt.Sprintf("Session %d", s.Key)
	}
	caser := cases.Title(language.Und)
	location := strings.TrimSpace(s.Location)
	if location == "" {
		return caser.String(name)
	}
	return caser.String(location + " " + name)
}

// Unit identifies one (session, driver) unit of work.
type Unit struct {
	SessionKey   int
	DriverNumber int
}

func (u Unit) String() string {
	return fmt.Sprintf("session %d driver %d", u.SessionKey, u.DriverNumber)
}
