// Package preflight provides readiness checks for the external services,
// binaries and filesystem paths radiocorpus depends on.
//
// The build command calls RunAll before starting a run and refuses to start
// when a check fails. The doctor command renders the same results together
// with CheckSystemDeps.
package preflight
