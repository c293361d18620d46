package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls the sinks of the process logger.
type Options struct {
	Level string
	// File enables an additional JSON sink with size based rotation.
	File string
}

// New builds a fanout logger: human readable text on stdout, errors as JSON on
// stderr and, when configured, everything as JSON into a rotated file.
func New(opts Options) *slog.Logger {
	level := ParseLevel(opts.Level)

	handlers := []slog.Handler{
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}),
	}

	if opts.File != "" {
		handlers = append(handlers, slog.NewJSONHandler(newRotatingWriter(opts.File), &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slogmulti.Fanout(handlers...))
}

func newRotatingWriter(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
