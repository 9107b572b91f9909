package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/avetikov/ledgersync/internal/buildinfo"
	"github.com/avetikov/ledgersync/internal/console/cli"
	"github.com/avetikov/ledgersync/internal/console/config"
	"github.com/avetikov/ledgersync/internal/logging"
	"github.com/joho/godotenv"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	// A .env file, if present, supplies environment variables for config.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
