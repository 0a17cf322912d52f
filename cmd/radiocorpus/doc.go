// Package main hosts the radiocorpus CLI entrypoint and command graph.
//
// The Cobra-based command tree builds training corpora from OpenF1 telemetry
// and team radio, filters and merges corpus files, inspects the progress
// ledger, and scaffolds configuration. It centralizes configuration
// resolution and logging setup so subcommands can focus on output.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is surfaced here through dedicated commands or flags.
package main
