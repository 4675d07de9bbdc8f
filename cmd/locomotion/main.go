package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Versifine/locomotion/internal/config"
	"github.com/Versifine/locomotion/internal/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	variant := flag.String("variant", "", "override character.variant (dynamic, kinematic, kinematic-simple)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *variant != "" {
		cfg.Character.Variant = *variant
		if err := cfg.Validate(); err != nil {
			slog.Error("Invalid variant override", "error", err)
			os.Exit(1)
		}
	}

	out, closeLog, err := logger.OpenOutput(cfg.Logging.File, !cfg.Console.Enabled)
	if err != nil {
		slog.Error("Failed to open log output", "error", err)
		os.Exit(1)
	}
	defer closeLog()
	logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      out,
		RawTerminal: cfg.Console.Enabled && cfg.Logging.File == "",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger.L()); err != nil {
		slog.Error("Simulation failed", "error", err)
		os.Exit(1)
	}
}
