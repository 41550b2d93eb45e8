package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/scratchmap/internal/buildinfo"
	"github.com/dmitrijs2005/scratchmap/internal/logging"
	"github.com/dmitrijs2005/scratchmap/internal/server"
	"github.com/dmitrijs2005/scratchmap/internal/server/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	logger, err := logging.NewProductionZapLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Zap().Sync() //nolint:errcheck

	ctx := context.Background()
	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(ctx)
}
