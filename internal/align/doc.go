// Package align joins an irregular telemetry stream against radio event
// instants. A Series is built once per (session, driver) unit; each event
// then looks back over a fixed window and receives the per-channel means of
// the samples inside it, or a "no alignment" result when the window is empty.
package align
