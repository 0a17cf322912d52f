// Package pipeline builds a corpus from the data source.
//
// A run resolves sessions, lists the drivers with team radio in each, and
// processes every (session, driver) unit: fetch telemetry and radio, align
// each event against the telemetry, download and transcribe the aligned
// ones, and build training pairs. Units run one at a time by default; with
// more than one worker they run on a bounded pool while a single consumer
// appends pairs and records units in the ledger, so output order within a
// unit is always the order of its radio events.
package pipeline
