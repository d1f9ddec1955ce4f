// Package config loads and validates the TOML configuration for the
// migration tool, including the business rule tables (test keywords,
// preferred version labels, allowed source extensions, go-live date)
// that the pipeline stages consult.
package config
