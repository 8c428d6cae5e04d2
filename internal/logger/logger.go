// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a thin wrapper around the slog.Logger so that the components of the map widget
// share a single logging type.
type Logger struct {
	*slog.Logger
}

// New returns a new Logger that writes text records to stderr.
func New(level slog.Level) *Logger {
	return NewLogger(level, os.Stderr)
}

// NewLogger returns a new Logger that writes text records with the given level to output.
func NewLogger(level slog.Level, output io.Writer) *Logger {
	return &Logger{slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))}
}

// Discard returns a Logger that drops every record. Useful for embedding hosts that do not
// want any diagnostics.
func Discard() *Logger {
	return &Logger{slog.New(slog.DiscardHandler)}
}

// Err returns an slog attribute for the given error.
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}
