package remote

import (
	"context"

	"github.com/dmitrijs2005/scratchmap/internal/client/connectivity"
)

// Guarded consults a connectivity.Checker once at call time and refuses
// every call with ErrOffline while offline. It never re-checks mid-call.
type Guarded struct {
	next   Store
	online connectivity.Checker
}

func NewGuarded(next Store, online connectivity.Checker) *Guarded {
	return &Guarded{next: next, online: online}
}

func (g *Guarded) Online() bool { return g.online.Online() }

func (g *Guarded) Upsert(ctx context.Context, collection, docID string, fields map[string]any, merge bool) error {
	if !g.online.Online() {
		return ErrOffline
	}
	return g.next.Upsert(ctx, collection, docID, fields, merge)
}

func (g *Guarded) Delete(ctx context.Context, collection, docID string) error {
	if !g.online.Online() {
		return ErrOffline
	}
	return g.next.Delete(ctx, collection, docID)
}

func (g *Guarded) Get(ctx context.Context, collection, docID string) (*Document, error) {
	if !g.online.Online() {
		return nil, ErrOffline
	}
	return g.next.Get(ctx, collection, docID)
}

func (g *Guarded) Query(ctx context.Context, collection string, f Filter) ([]Document, error) {
	if !g.online.Online() {
		return nil, ErrOffline
	}
	return g.next.Query(ctx, collection, f)
}
