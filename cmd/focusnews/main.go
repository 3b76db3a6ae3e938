package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"FocusNews/internal/app"
	"FocusNews/internal/config"
	"FocusNews/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single fetch-and-score cycle and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	if *once {
		err = application.RunOnce(ctx)
	} else {
		err = application.Run(ctx)
	}
	_ = application.Close()

	if err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
