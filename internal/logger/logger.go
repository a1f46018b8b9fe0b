package logger

import (
	"log/slog"
	"os"

	"github.com/bankrecon-engine/internal/config"
)

// NewLogger builds the JSON slog.Logger both binaries share. The level comes
// from config (unknown values fall back to info), every record carries the
// service name and environment, and source locations are attached only at
// debug level.
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})

	logger := slog.New(handler).With(
		"service", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	logger.Info("logger initialized", "level", level.String())

	return logger
}
