// Package metrics exports run and filter totals in the Prometheus text
// format so a node exporter textfile collector can scrape them.
package metrics
