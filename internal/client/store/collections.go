package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/scratchmap/internal/client/models"
	"github.com/dmitrijs2005/scratchmap/internal/geo"
	"github.com/dmitrijs2005/scratchmap/internal/logging"
)

// Collections is the typed view over a Store. All read-modify-write cycles
// go through its Mutate helpers, which hold a single lock so concurrent
// writers cannot lose each other's updates.
//
// Loading a value that fails to decode yields the empty value; the
// corruption is logged, not returned.
type Collections struct {
	mu     sync.Mutex
	store  Store
	logger logging.Logger
}

func NewCollections(s Store, l logging.Logger) *Collections {
	return &Collections{store: s, logger: l.With("module", "store")}
}

func (c *Collections) Close() error {
	return c.store.Close()
}

func decode[T any](ctx context.Context, c *Collections, key string) (T, error) {
	var v T
	raw, err := c.store.Load(ctx, key)
	if err != nil {
		return v, err
	}
	if raw == nil {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.Warn(ctx, "corrupt value ignored", "key", key, "error", err)
		var zero T
		return zero, nil
	}
	return v, nil
}

func encode[T any](ctx context.Context, c *Collections, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.store.Save(ctx, key, raw)
}

func load[T any](ctx context.Context, c *Collections, key string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return decode[T](ctx, c, key)
}

func save[T any](ctx context.Context, c *Collections, key string, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return encode(ctx, c, key, v)
}

func mutate[T any](ctx context.Context, c *Collections, key string, fn func(T) (T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, err := decode[T](ctx, c, key)
	if err != nil {
		return err
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	return encode(ctx, c, key, next)
}

// Discoveries

func (c *Collections) Discoveries(ctx context.Context) ([]models.Discovery, error) {
	return load[[]models.Discovery](ctx, c, KeyDiscoveries)
}

func (c *Collections) SaveDiscoveries(ctx context.Context, items []models.Discovery) error {
	return save(ctx, c, KeyDiscoveries, nonNil(items))
}

func (c *Collections) MutateDiscoveries(ctx context.Context, fn func([]models.Discovery) ([]models.Discovery, error)) error {
	return mutate(ctx, c, KeyDiscoveries, func(cur []models.Discovery) ([]models.Discovery, error) {
		next, err := fn(cur)
		return nonNil(next), err
	})
}

// Scratch points

func (c *Collections) ScratchPoints(ctx context.Context) ([]models.ScratchPoint, error) {
	return load[[]models.ScratchPoint](ctx, c, KeyScratchedPoints)
}

func (c *Collections) SaveScratchPoints(ctx context.Context, items []models.ScratchPoint) error {
	return save(ctx, c, KeyScratchedPoints, nonNil(items))
}

func (c *Collections) MutateScratchPoints(ctx context.Context, fn func([]models.ScratchPoint) ([]models.ScratchPoint, error)) error {
	return mutate(ctx, c, KeyScratchedPoints, func(cur []models.ScratchPoint) ([]models.ScratchPoint, error) {
		next, err := fn(cur)
		return nonNil(next), err
	})
}

// Queues

// PendingActions returns the discovery queue. Entries that do not validate
// are dropped and logged.
func (c *Collections) PendingActions(ctx context.Context) ([]models.PendingAction, error) {
	items, err := load[[]models.PendingAction](ctx, c, KeyPendingActionDiscovery)
	if err != nil {
		return nil, err
	}
	return c.validActions(ctx, items), nil
}

func (c *Collections) MutatePendingActions(ctx context.Context, fn func([]models.PendingAction) ([]models.PendingAction, error)) error {
	return mutate(ctx, c, KeyPendingActionDiscovery, func(cur []models.PendingAction) ([]models.PendingAction, error) {
		next, err := fn(c.validActions(ctx, cur))
		return nonNil(next), err
	})
}

func (c *Collections) validActions(ctx context.Context, items []models.PendingAction) []models.PendingAction {
	out := items[:0:0]
	for i, a := range items {
		if err := a.Validate(); err != nil {
			c.logger.Warn(ctx, "invalid pending action dropped", "index", i, "error", err)
			continue
		}
		out = append(out, a)
	}
	return out
}

func (c *Collections) PendingScratch(ctx context.Context) ([]models.ScratchPoint, error) {
	return load[[]models.ScratchPoint](ctx, c, KeyPendingScratch)
}

func (c *Collections) MutatePendingScratch(ctx context.Context, fn func([]models.ScratchPoint) ([]models.ScratchPoint, error)) error {
	return mutate(ctx, c, KeyPendingScratch, func(cur []models.ScratchPoint) ([]models.ScratchPoint, error) {
		next, err := fn(cur)
		return nonNil(next), err
	})
}

// Singletons

// LastKnownPoint returns nil when no point was recorded yet.
func (c *Collections) LastKnownPoint(ctx context.Context) (*geo.Point, error) {
	return load[*geo.Point](ctx, c, KeyLastKnownPoint)
}

func (c *Collections) SetLastKnownPoint(ctx context.Context, p geo.Point) error {
	return save(ctx, c, KeyLastKnownPoint, p)
}

func (c *Collections) ClearLastKnownPoint(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Remove(ctx, KeyLastKnownPoint)
}

// ShaderEnabled defaults to false when never set.
func (c *Collections) ShaderEnabled(ctx context.Context) (bool, error) {
	return load[bool](ctx, c, KeyShaderEnabled)
}

func (c *Collections) SetShaderEnabled(ctx context.Context, enabled bool) error {
	return save(ctx, c, KeyShaderEnabled, enabled)
}

// Session returns nil when nobody is signed in.
func (c *Collections) Session(ctx context.Context) (*models.Session, error) {
	return load[*models.Session](ctx, c, KeySession)
}

func (c *Collections) SetSession(ctx context.Context, s models.Session) error {
	return save(ctx, c, KeySession, s)
}

func (c *Collections) ClearSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Remove(ctx, KeySession)
}

// nonNil keeps empty collections serialized as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
