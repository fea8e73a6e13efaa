// Package merge fuses adjacent same-owner Voronoi cells into territories.
//
// A territory is traced at one of several nested layers. Layer 0 follows the
// true cell boundaries; every higher layer pulls each boundary point a little
// further toward its own site, so drawing all layers on top of each other
// with low opacity gives soft, blurred borders between players.
//
// Two neighbouring cells of the same owner always fuse at layer 0. Above it
// they fuse along their shared edge when their layer points at both shared
// vertices stay close to each other compared to how far they are from their
// sites. The threshold is tunable with [WithFusionThreshold].
//
//	e := merge.New(diagram, merge.WithLayers(8))
//	regions, err := e.Layer(0)
package merge

import (
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/geom"
	"github.com/matzehuels/starmap/pkg/voronoi"
)

const (
	// DefaultLayers is the number of layers traced by Layers.
	DefaultLayers = 8

	// DefaultRadius is the distance a boundary point travels toward its site
	// at the innermost layer.
	DefaultRadius = 2.0

	// DefaultFusionThreshold scales the fusion test.
	DefaultFusionThreshold = 1.0
)

// Option configures an Engine.
type Option func(*Engine)

// WithLayers sets the number of layers. Values below 1 become 1.
func WithLayers(n int) Option { return func(e *Engine) { e.layers = max(n, 1) } }

// WithRadius sets how far boundary points shrink toward their site.
func WithRadius(r float64) Option { return func(e *Engine) { e.radius = r } }

// WithFusionThreshold sets the factor of the fusion test. Larger values fuse
// more eagerly; zero disables fusion above layer 0.
func WithFusionThreshold(t float64) Option { return func(e *Engine) { e.threshold = t } }

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option { return func(e *Engine) { e.logger = l } }

// Engine traces territories of one diagram. It caches per-point work and is
// not safe for concurrent use.
type Engine struct {
	d         *voronoi.Diagram
	layers    int
	radius    float64
	threshold float64
	logger    *log.Logger
	tol       float64

	radii map[pointKey]geom.Point
}

type pointKey struct{ cell, index int }

// New returns an engine for d.
func New(d *voronoi.Diagram, opts ...Option) *Engine {
	e := &Engine{
		d:         d,
		layers:    DefaultLayers,
		radius:    DefaultRadius,
		threshold: DefaultFusionThreshold,
		radii:     make(map[pointKey]geom.Point),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	e.tol = vertexTolerance * math.Max(1, math.Max(d.Box.Width(), d.Box.Height()))
	return e
}

// LayerCount returns the configured number of layers.
func (e *Engine) LayerCount() int { return e.layers }

// Point returns boundary point index of c projected to layer. Layer 0 is the
// boundary point itself; layer i lies i/layers of the way from the boundary
// point to its radius point, which sits at most radius away toward the site.
func (e *Engine) Point(c *voronoi.Cell, index, layer int) geom.Point {
	b := *c.Boundary[geom.Mod(index, len(c.Boundary))]
	if layer <= 0 {
		return b
	}
	r := e.radiusPoint(c, geom.Mod(index, len(c.Boundary)))
	return geom.WeightedMiddle(
		geom.Point{X: r.X, Y: r.Y, Weight: float64(e.layers - layer)},
		geom.Point{X: b.X, Y: b.Y, Weight: float64(layer)},
	)
}

func (e *Engine) radiusPoint(c *voronoi.Cell, index int) geom.Point {
	key := pointKey{c.Index(), index}
	if r, ok := e.radii[key]; ok {
		return r
	}
	b := *c.Boundary[index]
	l := geom.NewLine(b, *c.Site)
	r := b
	if n := l.Length(); n > 0 {
		step := math.Min(e.radius, n)
		r = geom.Pt(b.X-step*l.Cos(), b.Y-step*l.Sin())
	}
	e.radii[key] = r
	return r
}

// seam is edge k of cell c seen from its neighbour: edge j of n runs the
// other way along the same segment.
type seam struct {
	c, n *voronoi.Cell
	k, j int
}

// seamAt returns the seam on edge k of c, if both cells record the other as
// a neighbour. With unequal weights the two sides need not agree on their
// shared vertices, so the records alone decide.
func (e *Engine) seamAt(c *voronoi.Cell, k int) (seam, bool) {
	nb, ok := c.NeighborAt(geom.Mod(k, c.EdgeCount()))
	if !ok {
		return seam{}, false
	}
	back, ok := nb.Cell.NeighborFor(c)
	if !ok {
		return seam{}, false
	}
	return seam{c: c, n: nb.Cell, k: geom.Mod(k, c.EdgeCount()), j: back.Edge}, true
}

// Fused reports whether edge k of c is an internal seam of a territory at
// layer. Same-owner seams always fuse at layer 0. Fusion is symmetric: both
// cells see the same answer.
func (e *Engine) Fused(c *voronoi.Cell, k, layer int) bool {
	s, ok := e.seamAt(c, k)
	if !ok || c.Owner == "" || c.Owner != s.n.Owner {
		return false
	}
	if layer <= 0 {
		return true
	}
	// Shared vertex v_k of c is vertex j+1 of n, v_k+1 is vertex j.
	return e.close(s.c, 2*s.k, s.n, 2*(s.j+1), layer) &&
		e.close(s.c, 2*(s.k+1), s.n, 2*s.j, layer)
}

// close is the fusion test at one shared vertex.
func (e *Engine) close(c *voronoi.Cell, ci int, n *voronoi.Cell, ni int, layer int) bool {
	pc := e.Point(c, ci, layer)
	pn := e.Point(n, ni, layer)
	cross := geom.Distance(pc, pn)
	own := math.Min(geom.Distance(*c.Site, pc), geom.Distance(*n.Site, pn))
	return cross < e.threshold*own || cross <= e.tol
}

// startingEdge returns the first edge of c, scanning from vertex 0, that lies
// on a territory outline at layer. It reports false when c is fully enclosed
// by fused neighbours.
func (e *Engine) startingEdge(c *voronoi.Cell, layer int) (int, bool) {
	for k := 0; k < c.EdgeCount(); k++ {
		if !e.Fused(c, k, layer) {
			return k, true
		}
	}
	return 0, false
}

func (e *Engine) checkLayer(layer int) error {
	if layer < 0 || layer >= e.layers {
		return errors.New(errors.ErrCodeInvalidLayer, "layer %d out of range [0, %d)", layer, e.layers)
	}
	return nil
}

const vertexTolerance = 1e-9
