// Package spatial provides a uniform-grid index over geographic points for
// fast approximate bounding-box queries.
package spatial

import (
	"math"
	"sync"

	"github.com/dmitrijs2005/scratchmap/internal/geo"
)

// CellMeters is the real-world edge length of a grid cell.
const CellMeters = 100.0

type cellKey struct {
	lat, lon int64
}

// Grid buckets points into square cells of equal size in degrees on both
// axes. Duplicate inserts are kept; callers dedupe. Safe for concurrent use.
type Grid struct {
	cellDeg float64

	mu    sync.RWMutex
	cells map[cellKey][]geo.Point
	n     int
}

func NewGrid() *Grid {
	return NewGridWithCell(CellMeters)
}

func NewGridWithCell(meters float64) *Grid {
	return &Grid{cellDeg: geo.MetersToDegrees(meters), cells: map[cellKey][]geo.Point{}}
}

// CellDegrees is the cell edge in degrees.
func (g *Grid) CellDegrees() float64 { return g.cellDeg }

func (g *Grid) index(v float64) int64 {
	return int64(math.Floor(v / g.cellDeg))
}

func (g *Grid) key(p geo.Point) cellKey {
	return cellKey{lat: g.index(p.Latitude), lon: g.index(p.Longitude)}
}

func (g *Grid) Insert(p geo.Point) {
	k := g.key(p)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells[k] = append(g.cells[k], p)
	g.n++
}

func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.n
}

func (g *Grid) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cells = map[cellKey][]geo.Point{}
	g.n = 0
}

// Query returns the contents of every cell overlapping b, inclusive of the
// edge cells. Points slightly outside b may be returned.
func (g *Grid) Query(b geo.Bounds) []geo.Point {
	lo := g.key(geo.Point{Latitude: b.MinLat, Longitude: b.MinLon})
	hi := g.key(geo.Point{Latitude: b.MaxLat, Longitude: b.MaxLon})
	if hi.lat < lo.lat || hi.lon < lo.lon {
		return nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []geo.Point
	span := float64(hi.lat-lo.lat+1) * float64(hi.lon-lo.lon+1)
	if span > float64(len(g.cells)) {
		// wide box over a sparse grid: walk occupied cells instead
		for k, pts := range g.cells {
			if k.lat >= lo.lat && k.lat <= hi.lat && k.lon >= lo.lon && k.lon <= hi.lon {
				out = append(out, pts...)
			}
		}
		return out
	}

	for r := lo.lat; r <= hi.lat; r++ {
		for c := lo.lon; c <= hi.lon; c++ {
			out = append(out, g.cells[cellKey{r, c}]...)
		}
	}
	return out
}

// Within reports whether any indexed point lies within meters of p.
func (g *Grid) Within(p geo.Point, meters float64) bool {
	d := geo.MetersToDegrees(meters)
	box := geo.Bounds{MinLat: p.Latitude, MinLon: p.Longitude, MaxLat: p.Latitude, MaxLon: p.Longitude}.Expand(d)
	for _, q := range g.Query(box) {
		if geo.Distance(p, q) <= meters {
			return true
		}
	}
	return false
}
