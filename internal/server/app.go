// Package server wires storage, services and the gRPC endpoint of the
// scratchmap sync server.
package server

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/scratchmap/internal/logging"
	"github.com/dmitrijs2005/scratchmap/internal/server/config"
	"github.com/dmitrijs2005/scratchmap/internal/server/docstore"
	gs "github.com/dmitrijs2005/scratchmap/internal/server/grpc"
	"github.com/dmitrijs2005/scratchmap/internal/server/repomanager"
	"github.com/dmitrijs2005/scratchmap/internal/server/storage"
	"github.com/dmitrijs2005/scratchmap/internal/server/users"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	userService *users.Service
	docService  *docstore.Service
	presigner   *storage.Presigner
}

// NewApp opens storage, applies migrations and builds the services.
func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	repos, err := repomanager.New(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repos.RunMigrations(ctx); err != nil {
		repos.Close()
		return nil, err
	}

	return &App{
		config:      c,
		logger:      l,
		repos:       repos,
		userService: users.NewService(repos.Users(), c),
		docService:  docstore.NewService(repos.Documents()),
		presigner:   storage.NewPresigner(c),
	}, nil
}

func (app *App) Close() {
	app.repos.Close()
}

// Run serves until SIGINT, SIGTERM or SIGQUIT arrives or ctx is done.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "storage", storageKind(app.config.DatabaseDSN))

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.docService, app.presigner, app.config.SecretKey)
	if err := s.Run(ctx); err != nil {
		return fmt.Errorf("grpc server: %w", err)
	}

	app.logger.Info(ctx, "Stopped")
	return nil
}

func storageKind(dsn string) string {
	if repomanager.IsMemoryDSN(dsn) {
		return "memory"
	}
	return "postgres"
}
