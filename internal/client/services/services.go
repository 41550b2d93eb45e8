// Package services contains the application services behind the scratchmap
// client commands. Every mutation is written to the local store first; the
// remote write is attempted only when online and otherwise queued.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/scratchmap/internal/client/connectivity"
	"github.com/dmitrijs2005/scratchmap/internal/client/geocode"
	"github.com/dmitrijs2005/scratchmap/internal/client/models"
	"github.com/dmitrijs2005/scratchmap/internal/client/reconcile"
	"github.com/dmitrijs2005/scratchmap/internal/client/remote"
	"github.com/dmitrijs2005/scratchmap/internal/client/store"
	"github.com/dmitrijs2005/scratchmap/internal/common"
	"github.com/dmitrijs2005/scratchmap/internal/logging"
)

var (
	ErrSyncInProgress    = errors.New("sync already in progress")
	ErrDiscoveryNotFound = errors.New("discovery not found")
	ErrSessionExpired    = errors.New("session expired, log in again")
)

// DefaultScratchSpacingMeters is how far the user must move from every
// scratched point before a new one is recorded.
const DefaultScratchSpacingMeters = 30.0

// Deps is the shared wiring handed to every service.
type Deps struct {
	Collections *store.Collections
	Gateways    *Gateways
	Online      connectivity.Checker
	Geocoder    geocode.Geocoder
	Overlay     *Overlay
	State       *reconcile.State
	Logger      logging.Logger

	ScratchSpacingMeters float64
	Now                  func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Online == nil {
		d.Online = connectivity.Static(false)
	}
	if d.Geocoder == nil {
		d.Geocoder = geocode.Static(common.UnknownPlace)
	}
	if d.Overlay == nil {
		d.Overlay = NewOverlay(nil, nil)
	}
	if d.State == nil {
		d.State = reconcile.NewState()
	}
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	if d.ScratchSpacingMeters <= 0 {
		d.ScratchSpacingMeters = DefaultScratchSpacingMeters
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Gateways builds remote gateways for whoever is currently signed in.
type Gateways struct {
	remote remote.Store
	images remote.ImageResolver
	coll   *store.Collections
	logger logging.Logger
}

func NewGateways(r remote.Store, images remote.ImageResolver, c *store.Collections, l logging.Logger) *Gateways {
	if l == nil {
		l = logging.Nop()
	}
	return &Gateways{remote: r, images: images, coll: c, logger: l.With("module", "gateways")}
}

func (g *Gateways) userID(ctx context.Context) (string, error) {
	if g == nil || g.remote == nil {
		return "", remote.ErrNoSession
	}
	s, err := g.coll.Session(ctx)
	if err != nil {
		return "", err
	}
	if !s.Valid() {
		return "", remote.ErrNoSession
	}
	return s.UserID, nil
}

func (g *Gateways) Discoveries(ctx context.Context) (*remote.DiscoveryGateway, error) {
	id, err := g.userID(ctx)
	if err != nil {
		return nil, err
	}
	return remote.NewDiscoveryGateway(g.remote, id, g.images).WithImageRecorder(g.recordImage), nil
}

// recordImage swaps a pushed local image ref for its remote URI in the
// stored discovery and in queued actions for it, so the file is not
// uploaded again after a restart. Entries whose ref changed meanwhile are
// left alone.
func (g *Gateways) recordImage(ctx context.Context, uuid, localRef, uri string) {
	swap := func(ref *string) *string {
		if ref != nil && *ref == localRef {
			return &uri
		}
		return ref
	}

	if err := g.coll.MutateDiscoveries(ctx, func(cur []models.Discovery) ([]models.Discovery, error) {
		for i := range cur {
			if cur[i].UUID == uuid {
				cur[i].ImageURI = swap(cur[i].ImageURI)
			}
		}
		return cur, nil
	}); err != nil {
		g.logger.Warn(ctx, "could not record uploaded image", "uuid", uuid, "error", err)
		return
	}

	if err := g.coll.MutatePendingActions(ctx, func(cur []models.PendingAction) ([]models.PendingAction, error) {
		for i := range cur {
			if d := cur[i].Discovery; d != nil && d.UUID == uuid {
				d.ImageURI = swap(d.ImageURI)
			}
		}
		return cur, nil
	}); err != nil {
		g.logger.Warn(ctx, "could not record uploaded image in queue", "uuid", uuid, "error", err)
	}
}

func (g *Gateways) Scratches(ctx context.Context) (*remote.ScratchGateway, error) {
	id, err := g.userID(ctx)
	if err != nil {
		return nil, err
	}
	return remote.NewScratchGateway(g.remote, id), nil
}
