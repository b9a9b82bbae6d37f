// Package logging builds the slog loggers used across maestro and keeps the
// structured field vocabulary in one place.
//
// Loggers are constructed once from config and handed to components
// explicitly; nothing in the repository relies on slog's process-wide
// default. NewComponentLogger tags a logger with the standard component
// attribute so console and JSON output stay greppable.
package logging
