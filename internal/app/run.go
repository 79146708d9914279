package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"callmonitor-bridge/internal/common/logging"
	"callmonitor-bridge/internal/config"
)

// Run is the main entry point for the application
func Run() error {
	// Load environment variables
	_ = godotenv.Load()

	// Load and validate configuration
	cfg := config.Load()

	logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", err)
		return err
	}

	logger.Info("Starting call monitor bridge",
		logging.String("host", cfg.FritzHost),
		logging.String("http_port", cfg.HTTPPort),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", err)
		return err
	}
	defer app.Cleanup()

	if err := app.Start(ctx); err != nil {
		logger.Error("Failed to start application", err)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.Shutdown(shutdownCtx)
		return err
	}

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", err)
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}
