package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cortexstat/internal"
	"cortexstat/internal/config"
	"cortexstat/internal/container"
	"cortexstat/internal/errors"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Printf("Configuration error: %v", err)
		os.Exit(errors.ExitCode(err))
	}

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	c, err := container.New(appConfig, logger, os.Stdout)
	if err != nil {
		logger.Error("Failed to initialize container: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := c.Pipeline.Run(ctx)
	if err != nil {
		logger.Error("Run failed: %v", err)
	} else {
		logger.Info("Run %s completed in %s", report.Manifest.RunID, report.Duration())
	}
	_ = c.Close()
	os.Exit(errors.ExitCode(err))
}
