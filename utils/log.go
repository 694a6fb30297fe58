package utils

import (
	"context"
	"log/slog"
)

const (
	// Finer than debug; one line per emitted element
	LevelTrace slog.Level = slog.LevelDebug - 4
)

func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
