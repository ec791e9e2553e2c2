// Package logging builds the slog loggers used across the tool: a console
// handler for interactive runs and a JSON handler for log files and
// machine consumers.
package logging
