package slogx

import (
	"context"
	"fmt"
	"log/slog"
)

// Error returns a slog.Attr representing the provided error.
// The attribute key is "error" and the value is the error's message.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Stringer creates a slog.Attr with the provided key and the string representation
// of the given fmt.Stringer value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// Entity groups the kind and path of a broker entity under the "entity" key.
func Entity(kind fmt.Stringer, path string) slog.Attr {
	return slog.Group("entity", slog.String("kind", kind.String()), slog.String("path", path))
}

// Namespace returns an attribute for a namespace connection string.
func Namespace(connectionString string) slog.Attr {
	return slog.String("namespace", connectionString)
}

const (
	// KeyLoggerName is the key for the logger name attribute.
	KeyLoggerName = "logger"
)

// LoggerName creates a slog.Attr with the provided logger name.
// The attribute key is defined by KeyLoggerName.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// LevelFatal marks records for failures the caller can't recover from.
// It does not exit the process.
const LevelFatal = slog.Level(12)

// Fatal logs msg at LevelFatal.
func Fatal(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	logger.Log(ctx, LevelFatal, msg, args...)
}
