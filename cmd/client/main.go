package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/scratchmap/internal/buildinfo"
	"github.com/dmitrijs2005/scratchmap/internal/client/cli"
	"github.com/dmitrijs2005/scratchmap/internal/client/config"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		buildinfo.PrintBuildData(os.Stdout)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := cli.Execute(ctx, cfg, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}
