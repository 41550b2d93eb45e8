// Package cli implements the scratchmap command-line client on top of cobra.
// Every command runs against the local store first; the remote is used when
// the connectivity probe says it is reachable.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/scratchmap/internal/client/config"
	"github.com/dmitrijs2005/scratchmap/internal/client/connectivity"
	"github.com/dmitrijs2005/scratchmap/internal/client/fog"
	"github.com/dmitrijs2005/scratchmap/internal/client/geocode"
	"github.com/dmitrijs2005/scratchmap/internal/client/images"
	"github.com/dmitrijs2005/scratchmap/internal/client/reconcile"
	"github.com/dmitrijs2005/scratchmap/internal/client/remote"
	"github.com/dmitrijs2005/scratchmap/internal/client/services"
	"github.com/dmitrijs2005/scratchmap/internal/client/spatial"
	"github.com/dmitrijs2005/scratchmap/internal/client/store"
	"github.com/dmitrijs2005/scratchmap/internal/filex"
	"github.com/dmitrijs2005/scratchmap/internal/logging"
	"github.com/dmitrijs2005/scratchmap/internal/transport"
)

const probeTimeout = 3 * time.Second

// Backend is everything the client needs from the server.
type Backend interface {
	remote.Store
	services.Authenticator
	images.Presigner
}

type options struct {
	backend Backend
	checker connectivity.Checker
	logger  logging.Logger
}

type Option func(*options)

// WithBackend replaces the gRPC connection, mainly for tests.
func WithBackend(b Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithChecker replaces the health-check watcher.
func WithChecker(c connectivity.Checker) Option {
	return func(o *options) { o.checker = c }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

type App struct {
	config *config.Config
	logger logging.Logger
	out    io.Writer
	in     *bufio.Reader

	coll    *store.Collections
	online  connectivity.Checker
	watcher *connectivity.Watcher
	overlay *services.Overlay
	state   *reconcile.State

	authService      services.AuthService
	discoveryService services.DiscoveryService
	scratchService   services.ScratchService
	syncService      services.SyncService

	closers []func() error
}

func NewApp(ctx context.Context, cfg *config.Config, out io.Writer, in io.Reader, opts ...Option) (*App, error) {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = logging.NewTextLogger(os.Stderr, cfg.LogLevel)
	}

	a := &App{config: cfg, logger: o.logger, out: out, in: bufio.NewReader(in), state: reconcile.NewState()}

	dir, err := filex.EnsureDir(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.StoreBackend, dir, a.logger)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	a.coll = store.NewCollections(st, a.logger)
	a.closers = append(a.closers, a.coll.Close)

	backend := o.backend
	if backend == nil {
		rs, err := remote.Dial(cfg.ServerEndpointAddr)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		backend = rs

		if o.checker == nil {
			a.watcher = connectivity.NewWatcher(connectivity.HealthProbe(rs.Conn(), transport.ServiceName), probeTimeout, a.logger)
			o.checker = a.watcher
		}
	}
	if o.checker == nil {
		o.checker = connectivity.Static(true)
	}
	a.online = o.checker
	if a.watcher != nil {
		a.watcher.Check(ctx)
	}

	texture, err := a.fogTexture(ctx)
	if err != nil {
		a.logger.Warn(ctx, "fog texture unavailable, using flat colour", "error", err)
	}
	cache := fog.NewCache(spatial.NewIndex(), fog.WithTexture(texture), fog.WithLogger(a.logger))
	a.overlay = services.NewOverlay(nil, cache)

	var geocoder geocode.Geocoder
	if cfg.GeocoderURL != "" {
		geocoder = geocode.NewNominatim(cfg.GeocoderURL, nil, a.logger)
	}

	deps := services.Deps{
		Collections:          a.coll,
		Gateways:             services.NewGateways(remote.NewGuarded(backend, a.online), images.NewResolver(backend, a.online, nil, a.logger), a.coll, a.logger),
		Online:               a.online,
		Geocoder:             geocoder,
		Overlay:              a.overlay,
		State:                a.state,
		Logger:               a.logger,
		ScratchSpacingMeters: cfg.ScratchSpacingMeters,
	}
	a.authService = services.NewAuthService(backend, deps)
	a.discoveryService = services.NewDiscoveryService(deps)
	a.scratchService = services.NewScratchService(deps)
	a.syncService = services.NewSyncService(deps)

	if _, err := a.overlay.Refresh(ctx, a.coll); err != nil {
		_ = a.Close()
		return nil, err
	}

	if _, err := a.authService.Restore(ctx); err != nil && !errors.Is(err, remote.ErrNoSession) {
		a.logger.Warn(ctx, "stored session unusable", "error", err)
	}
	return a, nil
}

// fogTexture returns nil, meaning flat colour, unless the shader is on.
func (a *App) fogTexture(ctx context.Context) (image.Image, error) {
	on, err := a.coll.ShaderEnabled(ctx)
	if err != nil || !on {
		return nil, err
	}
	if a.config.FogTexturePath == "" {
		return fog.ProceduralTexture(128), nil
	}
	img, err := fog.LoadTexture(a.config.FogTexturePath)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (a *App) Online() bool { return a.online.Online() }

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
