package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wschart/config"
	"wschart/internal/collector"
	"wschart/logger"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "An error occurred: %v\n", err)
		os.Exit(1)
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	for _, w := range cfg.Warnings {
		log.Warn(w)
	}
	log.Info("starting chart",
		zap.String("symbol", cfg.Symbol), zap.String("interval", cfg.Interval),
		zap.Int("height", cfg.Chart.Height), zap.Int("width", cfg.Chart.Width))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// run until interrupted
	if err := collector.Run(ctx, cfg, log, os.Stdout); err != nil {
		log.Error("chart failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "An error occurred: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nCharts closed.")
}
