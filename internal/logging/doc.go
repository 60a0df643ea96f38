// Package logging assembles the structured slog loggers used by the TUI and
// the CLI commands.
//
// The TUI owns the terminal, so its logger writes to a size-rotated file under
// the configured log directory; CLI commands log warnings to stderr instead.
// Component loggers tag every record with a "component" attribute and a no-op
// logger is available for tests and optional dependencies.
//
// Tail reads the last lines of the log file for the in-app log view.
package logging
