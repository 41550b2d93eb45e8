package services

import (
	"context"

	"github.com/dmitrijs2005/scratchmap/internal/client/fog"
	"github.com/dmitrijs2005/scratchmap/internal/client/models"
	"github.com/dmitrijs2005/scratchmap/internal/client/spatial"
	"github.com/dmitrijs2005/scratchmap/internal/client/store"
	"github.com/dmitrijs2005/scratchmap/internal/geo"
)

// Overlay keeps the spatial index and the fog cache in step with the local
// collections. The fog cache is optional.
type Overlay struct {
	index *spatial.Index
	fog   *fog.Cache
}

func NewOverlay(idx *spatial.Index, cache *fog.Cache) *Overlay {
	if idx == nil {
		idx = spatial.NewIndex()
	}
	return &Overlay{index: idx, fog: cache}
}

func (o *Overlay) Index() *spatial.Index { return o.index }

func (o *Overlay) Fog() *fog.Cache { return o.fog }

func (o *Overlay) invalidate() {
	if o.fog != nil {
		o.fog.Invalidate()
	}
}

// Refresh feeds the stored collections into the index. Scratch points are
// only ever added; discoveries are rebuilt since they can be deleted.
func (o *Overlay) Refresh(ctx context.Context, c *store.Collections) (int, error) {
	ds, err := c.Discoveries(ctx)
	if err != nil {
		return 0, err
	}
	sp, err := c.ScratchPoints(ctx)
	if err != nil {
		return 0, err
	}

	o.DiscoveriesChanged(ds)
	added := o.index.AddScratches(scratchGeo(sp)...)
	o.invalidate()
	return added, nil
}

func (o *Overlay) Scratched(p models.ScratchPoint) {
	o.index.AddScratches(p.Point())
	if o.fog != nil {
		o.fog.MarkScratched()
	}
}

func (o *Overlay) DiscoveriesChanged(ds []models.Discovery) {
	pts := make([]geo.Point, len(ds))
	for i, d := range ds {
		pts[i] = d.Point()
	}
	o.index.ResetDiscoveries(pts...)
	o.invalidate()
}

func (o *Overlay) AlreadyScratched(p geo.Point, spacingMeters float64) bool {
	return o.index.AlreadyScratched(p, spacingMeters)
}

func scratchGeo(sp []models.ScratchPoint) []geo.Point {
	out := make([]geo.Point, len(sp))
	for i, p := range sp {
		out[i] = p.Point()
	}
	return out
}
