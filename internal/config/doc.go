// Package config loads, normalizes, and validates radiocorpus configuration.
//
// Configuration is TOML, read from an explicit path, the user config
// directory, or ./radiocorpus.toml, layered over Default(). Normalization
// expands paths and applies environment overrides (OPENF1_BASE_URL,
// RADIOCORPUS_HF_TOKEN, optionally sourced from a local .env file);
// Validate rejects values the pipeline cannot run with.
package config
