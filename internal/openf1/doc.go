// Package openf1 is a small client for the OpenF1 REST API.
//
// Only the endpoints the corpus builder needs are covered: sessions,
// car_data and team_radio. An empty result and a 404 are both reported as
// ErrNoData (marked services.ErrNotFound); every other failure is marked
// services.ErrTransient and retried with backoff when the status suggests the
// condition will clear.
package openf1
