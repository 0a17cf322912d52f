// Package telemetry holds the data model shared by the alignment pipeline:
// telemetry samples, team radio events, sessions, and the (session, driver)
// unit of work. Timestamps arrive as strings from the data source and are
// parsed here into UTC instants so every consumer compares the same clock.
package telemetry
