package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"application-intake-go/internal/config"
)

func InitFromConfig() {
	Init(os.Stdout, config.AppConfig.LogLevel, config.AppConfig.LogFormat)
}

// Init installs the default logger. Every record also lands in the recent
// ring and is published to live subscribers.
func Init(w io.Writer, level, format string) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "json"
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(NewBroadcastHandler(handler)))
}

func Info(msg string, args ...any) {
	slog.Default().Info(msg, args...)
}

func Error(msg string, args ...any) {
	slog.Default().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	slog.Default().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	slog.Default().Debug(msg, args...)
}

func parseLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
