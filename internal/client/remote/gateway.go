package remote

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/scratchmap/internal/client/models"
	"github.com/dmitrijs2005/scratchmap/internal/common"
)

// ImageResolver turns a local image reference into a remote URI, uploading
// the file if needed. An empty result means "no image".
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// ImageRecorder is told the remote URI a local image ref was pushed under,
// once the document carrying it has been written.
type ImageRecorder func(ctx context.Context, uuid, localRef, uri string)

// DiscoveryGateway maps discoveries onto the pings collection, one document
// per discovery keyed by its uuid.
type DiscoveryGateway struct {
	store    Store
	userID   string
	images   ImageResolver
	recorder ImageRecorder
}

func NewDiscoveryGateway(s Store, userID string, images ImageResolver) *DiscoveryGateway {
	return &DiscoveryGateway{store: s, userID: userID, images: images}
}

// WithImageRecorder makes successful writes report uploaded images to r.
func (g *DiscoveryGateway) WithImageRecorder(r ImageRecorder) *DiscoveryGateway {
	g.recorder = r
	return g
}

// uploaded is a local image ref replaced by a remote URI in outgoing fields.
type uploaded struct {
	localRef, uri string
}

func (g *DiscoveryGateway) fields(ctx context.Context, d models.Discovery) (map[string]any, *uploaded, error) {
	if g.userID == "" {
		return nil, nil, ErrNoSession
	}
	var up *uploaded
	if d.HasLocalImage() && g.images != nil {
		ref := *d.ImageURI
		uri, err := g.images.Resolve(ctx, ref)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve image for %s: %w", d.UUID, err)
		}
		if uri == "" {
			d.ImageURI = nil
		} else {
			d.ImageURI = &uri
			up = &uploaded{localRef: ref, uri: uri}
		}
	}
	return d.RemoteFields(g.userID), up, nil
}

func (g *DiscoveryGateway) write(ctx context.Context, d models.Discovery, merge bool) error {
	f, up, err := g.fields(ctx, d)
	if err != nil {
		return err
	}
	if err := g.store.Upsert(ctx, common.CollectionPings, d.UUID, f, merge); err != nil {
		return err
	}
	if up != nil && g.recorder != nil {
		g.recorder(ctx, d.UUID, up.localRef, up.uri)
	}
	return nil
}

// Put writes the full document.
func (g *DiscoveryGateway) Put(ctx context.Context, d models.Discovery) error {
	return g.write(ctx, d, false)
}

// Merge writes only non-nil fields over the existing document.
func (g *DiscoveryGateway) Merge(ctx context.Context, d models.Discovery) error {
	return g.write(ctx, d, true)
}

func (g *DiscoveryGateway) Exists(ctx context.Context, uuid string) (bool, error) {
	doc, err := g.store.Get(ctx, common.CollectionPings, uuid)
	if err != nil {
		return false, err
	}
	return doc != nil, nil
}

// Delete removes the document; deleting an absent document succeeds.
func (g *DiscoveryGateway) Delete(ctx context.Context, uuid string) error {
	return g.store.Delete(ctx, common.CollectionPings, uuid)
}

// FetchAll returns every pings document owned by the user.
func (g *DiscoveryGateway) FetchAll(ctx context.Context) ([]Document, error) {
	if g.userID == "" {
		return nil, ErrNoSession
	}
	return g.store.Query(ctx, common.CollectionPings, Where("userId", g.userID))
}

// ScratchGateway maps scratch points onto the single per-user scratches
// document: {userId, points: [{lat, lon}, ...]}.
type ScratchGateway struct {
	store  Store
	userID string
}

func NewScratchGateway(s Store, userID string) *ScratchGateway {
	return &ScratchGateway{store: s, userID: userID}
}

// Fetch returns the raw point entries of the user's document, or nil when
// the document does not exist. A document whose points field is not a list
// yields ErrMalformedRecord.
func (g *ScratchGateway) Fetch(ctx context.Context) ([]any, error) {
	if g.userID == "" {
		return nil, ErrNoSession
	}
	doc, err := g.store.Get(ctx, common.CollectionScratches, g.userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	raw, ok := doc.Fields["points"]
	if !ok || raw == nil {
		return nil, nil
	}
	points, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: points: want list, got %T", models.ErrMalformedRecord, raw)
	}
	return points, nil
}

// Put replaces the user's document with points.
func (g *ScratchGateway) Put(ctx context.Context, points []models.ScratchPoint) error {
	if g.userID == "" {
		return ErrNoSession
	}
	list := make([]any, 0, len(points))
	for _, p := range points {
		list = append(list, p.RemoteFields())
	}
	fields := map[string]any{"userId": g.userID, "points": list}
	return g.store.Upsert(ctx, common.CollectionScratches, g.userID, fields, false)
}

// ScratchEntryID names the i-th entry of a points list in parse reports.
func ScratchEntryID(i int) string {
	return fmt.Sprintf("points[%d]", i)
}

// ParseScratchEntry strictly parses one {lat, lon} entry.
func ParseScratchEntry(raw any) (models.ScratchPoint, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return models.ScratchPoint{}, fmt.Errorf("%w: want object, got %T", models.ErrMalformedRecord, raw)
	}
	return models.ScratchPointFromFields(m)
}

// ParseScratchEntries strictly parses raw point entries.
func ParseScratchEntries(raw []any, report *models.ParseReport) []models.ScratchPoint {
	out := make([]models.ScratchPoint, 0, len(raw))
	for i, r := range raw {
		p, err := ParseScratchEntry(r)
		if err != nil {
			report.Skip(ScratchEntryID(i), err)
			continue
		}
		report.Ok()
		out = append(out, p)
	}
	return out
}
