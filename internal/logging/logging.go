// Package logging provides logging functionality.
package logging

import (
	"io"
	"log/slog"
)

// Format selects the output format of a logger.
type Format int

const (
	// FormatText writes key=value pairs, for development.
	FormatText Format = iota
	// FormatJSON writes one JSON object per line, for production.
	FormatJSON
)

// NewLogger creates a new text logger writing to w at info level.
func NewLogger(w io.Writer) *slog.Logger {
	return NewLoggerWithLevel(w, slog.LevelInfo, FormatText)
}

// NewLoggerWithLevel creates a new logger writing to w with the given minimum level and format.
func NewLoggerWithLevel(w io.Writer, level slog.Level, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// ErrAttr creates a new attribute with the key "err" and the given error value.
func ErrAttr(value error) slog.Attr { return slog.Any("err", value) }
