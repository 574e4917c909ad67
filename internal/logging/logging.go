// Package logging uygulama genelindeki slog logger'ını kurar.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"restoran-analytics/internal/config"
)

// Init cfg'ye göre logger kurar ve varsayılan yapar. Standart log paketi de bu logger'a yönlenir.
func Init(cfg *config.Config) *slog.Logger {
	logger := New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return logger
}

// New verilen çıktıya yazan logger döner. format "text" değilse JSON kullanılır.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
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
