package fog

import (
	"math"

	"github.com/dmitrijs2005/scratchmap/internal/geo"
)

const (
	// TileSize is the Web Mercator world tile edge in pixels at zoom 0.
	TileSize = 256.0

	mercatorRadius = 6378137.0
	maxMercatorLat = 85.05112878
)

// Viewport is the map camera: centre and Web Mercator zoom level. The pixel
// size comes from the cache bitmap.
type Viewport struct {
	Center geo.Point
	Zoom   float64
}

// Projection maps between geographic and screen coordinates for a viewport
// of a given pixel size.
type Projection struct {
	scale        float64
	cx, cy       float64
	halfW, halfH float64
	lat          float64
}

func (v Viewport) Projection(width, height int) Projection {
	scale := TileSize * math.Exp2(v.Zoom)
	cx, cy := toWorld(v.Center, scale)
	return Projection{
		scale: scale,
		cx:    cx,
		cy:    cy,
		halfW: float64(width) / 2,
		halfH: float64(height) / 2,
		lat:   clampLat(v.Center.Latitude),
	}
}

func clampLat(lat float64) float64 {
	return math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
}

func toWorld(p geo.Point, scale float64) (float64, float64) {
	x := (p.Longitude + 180) / 360 * scale
	s := math.Sin(clampLat(p.Latitude) * math.Pi / 180)
	y := (0.5 - math.Log((1+s)/(1-s))/(4*math.Pi)) * scale
	return x, y
}

func fromWorld(x, y, scale float64) geo.Point {
	n := math.Pi - 2*math.Pi*y/scale
	return geo.Point{
		Latitude:  180 / math.Pi * math.Atan(math.Sinh(n)),
		Longitude: x/scale*360 - 180,
	}
}

// ToScreen projects p into pixel coordinates with the origin top-left.
func (p Projection) ToScreen(pt geo.Point) (float64, float64) {
	x, y := toWorld(pt, p.scale)
	return x - p.cx + p.halfW, y - p.cy + p.halfH
}

func (p Projection) FromScreen(x, y float64) geo.Point {
	return fromWorld(x-p.halfW+p.cx, y-p.halfH+p.cy, p.scale)
}

// MetersToPixels converts a ground distance at the viewport centre latitude.
func (p Projection) MetersToPixels(m float64) float64 {
	perPixel := math.Cos(p.lat*math.Pi/180) * 2 * math.Pi * mercatorRadius / p.scale
	return m / perPixel
}

// Bounds is the geographic box covered by the screen grown by marginPx on
// every side.
func (p Projection) Bounds(marginPx float64) geo.Bounds {
	tl := p.FromScreen(-marginPx, -marginPx)
	br := p.FromScreen(2*p.halfW+marginPx, 2*p.halfH+marginPx)
	return geo.Bounds{
		MinLat: br.Latitude,
		MinLon: tl.Longitude,
		MaxLat: tl.Latitude,
		MaxLon: br.Longitude,
	}
}
