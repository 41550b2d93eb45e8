// Package fog renders and caches the fog-of-war overlay: an opaque tiled
// texture with holes punched at every scratched and discovered location.
//
// The cache redraws only when the viewport zoom changes, the centre moves
// at least MoveThresholdMeters, a point is scratched or the bitmap is
// resized. Otherwise Draw blits the previous frame.
package fog

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/dmitrijs2005/scratchmap/internal/client/spatial"
	"github.com/dmitrijs2005/scratchmap/internal/geo"
	"github.com/dmitrijs2005/scratchmap/internal/logging"
)

const (
	ScratchRadiusMeters   = 150.0
	DiscoveryRadiusMeters = 300.0
	MoveThresholdMeters   = 50.0

	moveEpsilon = 1e-6

	// points closer than this fraction of the punch radius share a hole
	clusterFactor = 0.5
)

type State int

const (
	Dirty State = iota
	Clean
)

func (s State) String() string {
	if s == Clean {
		return "clean"
	}
	return "dirty"
}

type Option func(*Cache)

// WithTexture sets the tile painted under the holes. A nil texture paints
// the flat fog colour.
func WithTexture(img image.Image) Option {
	return func(c *Cache) { c.texture = img }
}

func WithFogColor(col color.RGBA) Option {
	return func(c *Cache) { c.fogColor = col }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Cache) { c.logger = l.With("module", "fog") }
}

// Cache owns the fog bitmap. It is safe for concurrent use, though drawing
// is expected from a single render loop.
type Cache struct {
	index    *spatial.Index
	texture  image.Image
	fogColor color.RGBA
	logger   logging.Logger

	mu       sync.Mutex
	bitmap   *image.RGBA
	state    State
	rendered Viewport
	redraws  int
}

func NewCache(index *spatial.Index, opts ...Option) *Cache {
	c := &Cache{
		index:    index,
		fogColor: DefaultFogColor,
		logger:   logging.Nop(),
		state:    Dirty,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Resize reallocates the bitmap. Non-positive sizes release it.
func (c *Cache) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width <= 0 || height <= 0 {
		c.bitmap = nil
	} else {
		c.bitmap = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	c.state = Dirty
}

// MarkScratched invalidates the cache after a new point was scratched.
func (c *Cache) MarkScratched() { c.Invalidate() }

func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Dirty
}

// SetTexture swaps the fog tile, nil meaning flat colour, and invalidates.
func (c *Cache) SetTexture(img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texture = img
	c.state = Dirty
}

func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Redraws counts full re-renders since creation.
func (c *Cache) Redraws() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redraws
}

// Bitmap returns the current frame. The caller must not modify it.
func (c *Cache) Bitmap() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bitmap
}

// Draw composites the fog over dst, re-rendering first when needed. It
// reports whether a re-render happened. Without a bitmap it does nothing.
func (c *Cache) Draw(ctx context.Context, dst draw.Image, v Viewport) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bitmap == nil {
		return false
	}

	if c.state == Clean && c.moved(v) {
		c.state = Dirty
	}

	redrawn := false
	if c.state == Dirty {
		c.redraw(ctx, v)
		c.rendered = v
		c.state = Clean
		c.redraws++
		redrawn = true
	}

	if dst != nil {
		draw.Draw(dst, dst.Bounds(), c.bitmap, image.Point{}, draw.Over)
	}
	return redrawn
}

func (c *Cache) moved(v Viewport) bool {
	if v.Zoom != c.rendered.Zoom {
		return true
	}
	return geo.Distance(c.rendered.Center, v.Center) >= MoveThresholdMeters-moveEpsilon
}

func (c *Cache) redraw(ctx context.Context, v Viewport) {
	b := c.bitmap.Bounds()
	proj := v.Projection(b.Dx(), b.Dy())

	// 1. clear
	draw.Draw(c.bitmap, b, image.Transparent, image.Point{}, draw.Src)

	// 2. texture
	c.paintFog(proj)

	// 3. query
	margin := proj.MetersToPixels(math.Max(ScratchRadiusMeters, DiscoveryRadiusMeters))
	box := proj.Bounds(margin)

	var scratches, discoveries []geo.Point
	if c.index != nil {
		scratches = c.index.Scratches.Query(box)
		discoveries = c.index.Discoveries.Query(box)
	}

	// 4, 5. cluster and punch
	holes := c.punch(proj, scratches, ScratchRadiusMeters)
	holes += c.punch(proj, discoveries, DiscoveryRadiusMeters)

	c.logger.Debug(ctx, "fog redrawn",
		"zoom", v.Zoom, "scratches", len(scratches), "discoveries", len(discoveries), "holes", holes)
}

// tileOrigin is where the tile containing the world origin starts on screen,
// reduced into [0, size).
func tileOrigin(proj Projection, w, h int) (int, int) {
	ax, ay := proj.ToScreen(geo.Point{})
	return int(math.Floor(posMod(ax, float64(w)))), int(math.Floor(posMod(ay, float64(h))))
}

func (c *Cache) paintFog(proj Projection) {
	b := c.bitmap.Bounds()
	if c.texture == nil {
		draw.Draw(c.bitmap, b, image.NewUniform(c.fogColor), image.Point{}, draw.Src)
		return
	}

	tb := c.texture.Bounds()
	tw, th := tb.Dx(), tb.Dy()
	ox, oy := tileOrigin(proj, tw, th)

	for y := oy - th; y < b.Max.Y; y += th {
		for x := ox - tw; x < b.Max.X; x += tw {
			r := image.Rect(x, y, x+tw, y+th).Intersect(b)
			if r.Empty() {
				continue
			}
			sp := tb.Min.Add(r.Min.Sub(image.Pt(x, y)))
			draw.Draw(c.bitmap, r, c.texture, sp, draw.Src)
		}
	}
}

func (c *Cache) punch(proj Projection, points []geo.Point, radiusMeters float64) int {
	if len(points) == 0 {
		return 0
	}
	r := math.Max(1, proj.MetersToPixels(radiusMeters))

	sp := make([]screenPoint, len(points))
	for i, p := range points {
		x, y := proj.ToScreen(p)
		sp[i] = screenPoint{X: x, Y: y}
	}

	holes := cluster(sp, r*clusterFactor)
	for _, h := range holes {
		clearDisc(c.bitmap, h.X, h.Y, r)
	}
	return len(holes)
}
