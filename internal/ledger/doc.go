// Package ledger records which (session, driver) units have been written to
// a corpus so a rerun against the same output skips them.
//
// The ledger is a SQLite database. Completed units are keyed by output path,
// session key and driver number; each build run gets a UUID row with its
// totals. A file lock next to the database keeps two builds from sharing it.
package ledger
