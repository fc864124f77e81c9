package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"perfboard/internal/app/server"
	"perfboard/internal/platform/config"
	"perfboard/internal/platform/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.Environment)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := server.Run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
