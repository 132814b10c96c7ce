package cli

import (
	"log/slog"
	"os"

	"github.com/fatih/color"

	"quiz-conductor/internal/config"
	"quiz-conductor/internal/lib/slogcustom"
)

func setupLogger(cfg config.Config) {
	if !cfg.Log.Color {
		color.NoColor = true
	}
	slog.SetDefault(slog.New(slogcustom.NewCustomHandler(os.Stdout, cfg.LogLevel())))
}
