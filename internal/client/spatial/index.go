package spatial

import (
	"sync"

	"github.com/dmitrijs2005/scratchmap/internal/geo"
)

// Index keeps the scratch and discovery grids side by side. They are never
// merged because they render with different radii. Unlike Grid, Index
// ignores points it has already seen, so feeding it a whole collection after
// a sync only inserts what is new.
type Index struct {
	Scratches   *Grid
	Discoveries *Grid

	mu          sync.Mutex
	seenScratch map[geo.Point]struct{}
	seenDisc    map[geo.Point]struct{}
}

func NewIndex() *Index {
	return &Index{
		Scratches:   NewGrid(),
		Discoveries: NewGrid(),
		seenScratch: map[geo.Point]struct{}{},
		seenDisc:    map[geo.Point]struct{}{},
	}
}

func addNew(g *Grid, seen map[geo.Point]struct{}, points []geo.Point) int {
	added := 0
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		g.Insert(p)
		added++
	}
	return added
}

// AddScratches inserts the unseen points and returns how many were new.
func (i *Index) AddScratches(points ...geo.Point) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return addNew(i.Scratches, i.seenScratch, points)
}

// AddDiscoveries inserts the unseen discovery positions.
func (i *Index) AddDiscoveries(points ...geo.Point) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return addNew(i.Discoveries, i.seenDisc, points)
}

// ResetDiscoveries rebuilds the discovery grid from scratch; discoveries can
// be deleted, scratch points cannot.
func (i *Index) ResetDiscoveries(points ...geo.Point) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Discoveries.Reset()
	i.seenDisc = map[geo.Point]struct{}{}
	addNew(i.Discoveries, i.seenDisc, points)
}

// AlreadyScratched reports whether a scratch point lies within spacing
// meters of p.
func (i *Index) AlreadyScratched(p geo.Point, spacingMeters float64) bool {
	return i.Scratches.Within(p, spacingMeters)
}
