// Package logging builds the slog loggers used across the migration tool
// and provides typed attribute helpers plus context-carried fields so every
// component logs with the same structure.
package logging
