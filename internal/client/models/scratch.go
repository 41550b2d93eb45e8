package models

import (
	"slices"

	"github.com/dmitrijs2005/scratchmap/internal/geo"
)

// ScratchPoint marks a revealed coordinate. Two points are the same iff
// both coordinates are exactly equal.
type ScratchPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func ScratchPointAt(p geo.Point) ScratchPoint {
	return ScratchPoint{Latitude: p.Latitude, Longitude: p.Longitude}
}

func (p ScratchPoint) Point() geo.Point {
	return geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}
}

// RemoteFields is the element shape inside a scratches document.
func (p ScratchPoint) RemoteFields() map[string]any {
	return map[string]any{"lat": p.Latitude, "lon": p.Longitude}
}

func ScratchPointFromFields(f map[string]any) (ScratchPoint, error) {
	lat, err := requiredNumber(f, "lat")
	if err != nil {
		return ScratchPoint{}, err
	}
	lon, err := requiredNumber(f, "lon")
	if err != nil {
		return ScratchPoint{}, err
	}
	return ScratchPoint{Latitude: lat, Longitude: lon}, nil
}

func compareScratch(a, b ScratchPoint) int {
	switch {
	case a.Latitude < b.Latitude:
		return -1
	case a.Latitude > b.Latitude:
		return 1
	case a.Longitude < b.Longitude:
		return -1
	case a.Longitude > b.Longitude:
		return 1
	}
	return 0
}

// CleanAndSort returns a new slice with exact duplicates removed, ordered
// by latitude then longitude.
func CleanAndSort(points []ScratchPoint) []ScratchPoint {
	out := slices.Clone(points)
	slices.SortFunc(out, compareScratch)
	return slices.Compact(out)
}

// ScratchSet is a membership set keyed by exact coordinates.
type ScratchSet map[ScratchPoint]struct{}

func NewScratchSet(points []ScratchPoint) ScratchSet {
	s := make(ScratchSet, len(points))
	for _, p := range points {
		s[p] = struct{}{}
	}
	return s
}

func (s ScratchSet) Has(p ScratchPoint) bool {
	_, ok := s[p]
	return ok
}

func (s ScratchSet) Add(p ScratchPoint) bool {
	if s.Has(p) {
		return false
	}
	s[p] = struct{}{}
	return true
}
