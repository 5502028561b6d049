// Package logging assembles structured slog loggers and formatting helpers used
// across srcset.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run IDs, source paths, and stages. Skips are always logged with
// an event_type so a run's skipped items can be recovered from the log alone.
package logging
