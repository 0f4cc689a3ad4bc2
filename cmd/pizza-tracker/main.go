package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/PizzaTrack/config"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env")
	}

	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("config parse error, %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := trackerOpts{swaggerPath: os.Getenv("swaggerPath")}
	if err := RunPizzaTracker(ctx, cfg, opts, defaultTrackerFactories()); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}
