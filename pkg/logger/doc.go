// Package logger builds configured log/slog loggers: text or JSON format,
// level, static attributes. The CLI logs text to stderr by default; batch
// jobs switch to JSON for aggregation.
package logger
