package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "scenario.yaml", "path to the scenario YAML file")
	mode := flag.String("mode", "plan", "one of plan, compare or serve")
	runs := flag.Int("runs", 0, "number of comparison runs, 0 uses the configured value")
	envFile := flag.String("env-file", ".env", "file with THREATNAV_* overrides")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load %s: %v", *envFile, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(*configPath, os.Stdout)
	if err != nil {
		log.Fatalf("failed to create app: %v", err)
	}
	defer app.Logger.Sync()

	if err := app.Run(ctx, *mode, *runs); err != nil {
		app.Logger.Error("run failed", zap.String("mode", *mode), zap.Error(err))
		_ = app.Logger.Sync()
		os.Exit(1)
	}
}
