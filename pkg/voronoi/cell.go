package voronoi

import (
	"math"

	"github.com/matzehuels/starmap/pkg/geom"
)

// Cell is the clipped region of one site.
//
// Boundary is closed implicitly and traversed clockwise. Even indices hold
// vertices; index 2k+1 holds a point strictly inside edge k, the edge from
// vertex k to vertex k+1.
type Cell struct {
	Site      *geom.Point
	Owner     string
	Name      string
	Boundary  []*geom.Point
	Neighbors []Neighbor

	index int
}

// Neighbor records one edge shared with another cell. P1 and P2 are the
// edge's vertices in this cell's traversal order; the neighbour sees them
// reversed.
type Neighbor struct {
	Cell   *Cell
	Edge   int
	P1, P2 *geom.Point
}

// Index returns the cell's position in Diagram.Cells.
func (c *Cell) Index() int { return c.index }

// EdgeCount returns the number of polygon edges, which equals the number of
// vertices.
func (c *Cell) EdgeCount() int { return len(c.Boundary) / 2 }

// Vertex returns vertex k, wrapping around.
func (c *Cell) Vertex(k int) *geom.Point {
	return c.Boundary[2*geom.Mod(k, c.EdgeCount())]
}

// EdgePoint returns the interior point of edge k, wrapping around.
func (c *Cell) EdgePoint(k int) *geom.Point {
	return c.Boundary[2*geom.Mod(k, c.EdgeCount())+1]
}

// Vertices returns the polygon vertices without the edge points.
func (c *Cell) Vertices() []*geom.Point {
	out := make([]*geom.Point, 0, c.EdgeCount())
	for i := 0; i < len(c.Boundary); i += 2 {
		out = append(out, c.Boundary[i])
	}
	return out
}

// Polygon returns the vertices by value.
func (c *Cell) Polygon() []geom.Point {
	out := make([]geom.Point, 0, c.EdgeCount())
	for _, p := range c.Vertices() {
		out = append(out, *p)
	}
	return out
}

// Path returns the full interleaved boundary by value.
func (c *Cell) Path() []geom.Point {
	out := make([]geom.Point, len(c.Boundary))
	for i, p := range c.Boundary {
		out[i] = *p
	}
	return out
}

// Area returns the polygon area.
func (c *Cell) Area() float64 {
	return math.Abs(geom.PolygonArea(c.Polygon()))
}

// Centroid returns the area centroid of the polygon, or the site for a
// degenerate polygon.
func (c *Cell) Centroid() geom.Point {
	poly := c.Polygon()
	a := geom.PolygonArea(poly)
	if a == 0 {
		return *c.Site
	}
	var cx, cy float64
	for i := range poly {
		p, q := poly[i], poly[(i+1)%len(poly)]
		f := p.X*q.Y - q.X*p.Y
		cx += (p.X + q.X) * f
		cy += (p.Y + q.Y) * f
	}
	return geom.Pt(cx/(6*a), cy/(6*a))
}

// Contains reports whether p lies inside the polygon or on its border.
func (c *Cell) Contains(p geom.Point) bool {
	n := c.EdgeCount()
	if n < 3 {
		return false
	}
	for k := 0; k < n; k++ {
		if geom.Cross(*c.Vertex(k), *c.Vertex(k+1), p) > containsTolerance {
			return false
		}
	}
	return true
}

// NeighborAt returns the adjacency recorded for edge k.
func (c *Cell) NeighborAt(edge int) (Neighbor, bool) {
	for _, nb := range c.Neighbors {
		if nb.Edge == edge {
			return nb, true
		}
	}
	return Neighbor{}, false
}

// NeighborFor returns the adjacency shared with other. Two convex cells share
// at most one edge.
func (c *Cell) NeighborFor(other *Cell) (Neighbor, bool) {
	for _, nb := range c.Neighbors {
		if nb.Cell == other {
			return nb, true
		}
	}
	return Neighbor{}, false
}

// Neutral reports whether the cell has no owner.
func (c *Cell) Neutral() bool { return c.Owner == "" }

const containsTolerance = 1e-9
