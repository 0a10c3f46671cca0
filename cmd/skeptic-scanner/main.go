package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/code-skeptic-scanner/internal/app"
	"github.com/lueurxax/code-skeptic-scanner/internal/platform/config"
)

func main() {
	mode := flag.String("mode", "", "Service mode (nats, stdin, sweep, catalog)")
	once := flag.Bool("once", false, "Run background tasks once and exit (for sweep mode)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer application.Close()

	if *mode == "nats" || (*mode == "sweep" && !*once) {
		// Start health server in background
		go func() {
			if err := application.StartHealthServer(ctx); err != nil {
				logger.Error().Err(err).Msg("health check server error")
			}
		}()
	}

	if err := runMode(ctx, application, *mode, *once); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Error().Err(err).Msg("application error")
		application.Close()
		os.Exit(1) //nolint:gocritic // close already ran
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.IsLocal() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(level).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, mode string, once bool) error {
	switch mode {
	case "nats":
		return application.RunNATS(ctx)
	case "stdin":
		return application.RunStdin(ctx, os.Stdin)
	case "sweep":
		return application.RunSweep(ctx, once)
	case "catalog":
		return application.SeedCatalog(ctx)
	default:
		log.Fatalf("Usage: %s --mode=[nats|stdin|sweep|catalog] [--once]", os.Args[0])

		return nil
	}
}
