package merge

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/starmap/pkg/geom"
	"github.com/matzehuels/starmap/pkg/voronoi"
)

// Region is one territory at one layer: a maximal set of fused cells.
//
// Rings are closed implicitly. The outline is traced clockwise and comes
// first; holes left by enclosed foreign cells run the other way. Render with
// the even-odd fill rule.
type Region struct {
	Owner string         `json:"owner,omitempty"`
	Layer int            `json:"layer"`
	Sites []string       `json:"sites"`
	Rings [][]geom.Point `json:"rings"`
}

// Area returns the region's area: the outline minus its holes.
func (r Region) Area() float64 {
	var a float64
	for _, ring := range r.Rings {
		a -= geom.PolygonArea(ring)
	}
	return math.Abs(a)
}

// edgeRef identifies edge k of a cell.
type edgeRef struct {
	cell *voronoi.Cell
	k    int
}

func (r edgeRef) key() pointKey { return pointKey{r.cell.Index(), r.k} }

// Layer traces every territory at layer.
func (e *Engine) Layer(layer int) ([]Region, error) {
	if err := e.checkLayer(layer); err != nil {
		return nil, err
	}

	comp := e.components(layer)
	byRoot := make(map[int]*Region)
	var roots []int

	visited := make(map[pointKey]bool)
	for _, c := range e.d.Cells {
		k0, ok := e.startingEdge(c, layer)
		if !ok {
			continue
		}
		n := c.EdgeCount()
		for off := 0; off < n; off++ {
			start := edgeRef{cell: c, k: (k0 + off) % n}
			if visited[start.key()] || e.Fused(c, start.k, layer) {
				continue
			}
			ring := e.trace(start, layer, visited)
			if len(ring) < 3 {
				continue
			}
			root := comp[c.Index()]
			reg, ok := byRoot[root]
			if !ok {
				reg = &Region{Owner: c.Owner, Layer: layer}
				byRoot[root] = reg
				roots = append(roots, root)
			}
			reg.Rings = append(reg.Rings, ring)
		}
	}

	out := make([]Region, 0, len(roots))
	for _, root := range roots {
		reg := byRoot[root]
		for _, c := range e.d.Cells {
			if comp[c.Index()] == root {
				reg.Sites = append(reg.Sites, c.Name)
			}
		}
		slices.SortStableFunc(reg.Rings, func(a, b []geom.Point) int {
			return cmp.Compare(math.Abs(geom.PolygonArea(b)), math.Abs(geom.PolygonArea(a)))
		})
		out = append(out, *reg)
	}

	e.logger.Debug("traced layer", "layer", layer, "regions", len(out))
	return out, nil
}

// Layers traces all layers, outermost first.
func (e *Engine) Layers() ([][]Region, error) {
	out := make([][]Region, e.layers)
	for i := range out {
		regions, err := e.Layer(i)
		if err != nil {
			return nil, err
		}
		out[i] = regions
	}
	return out, nil
}

// trace follows a territory outline from the outline edge start until it
// returns there. Crossing a fused seam hands the walk to the neighbouring
// cell. Above layer 0 the shared vertex is emitted once as the average of
// every cell's layer point around it. Reaching an edge some earlier ring
// already used ends the ring early.
func (e *Engine) trace(start edgeRef, layer int, visited map[pointKey]bool) []geom.Point {
	limit := 4 * e.totalEdges()
	var ring []geom.Point
	cur := start
	for steps := 0; ; steps++ {
		if steps > limit {
			e.logger.Warn("territory trace hit the step cap", "cell", cur.cell.Name, "layer", layer)
			break
		}
		visited[cur.key()] = true
		ring = append(ring, e.Point(cur.cell, 2*cur.k+1, layer))

		next, vertex := e.pivot(cur, layer)
		ring = append(ring, vertex...)
		if next == start {
			break
		}
		if visited[next.key()] {
			e.logger.Debug("territory trace rejoined a used edge", "cell", next.cell.Name, "edge", next.k)
			break
		}
		cur = next
	}
	// Start on the vertex that opens the first edge.
	last := ring[len(ring)-1]
	return append([]geom.Point{last}, ring[:len(ring)-1]...)
}

// pivot resolves the vertex at the end of outline edge cur. It returns the
// next outline edge and the points to emit for the vertex.
//
// Cells of unequal weight need not agree on a shared vertex. At layer 0 every
// distinct corner around the vertex is kept, so the outline bridges the gap
// between them and still encloses each fused cell exactly.
func (e *Engine) pivot(cur edgeRef, layer int) (edgeRef, []geom.Point) {
	c, k := cur.cell, cur.k
	n := c.EdgeCount()
	pts := []geom.Point{e.Point(c, 2*((k+1)%n), layer)}
	next := edgeRef{cell: c, k: (k + 1) % n}
	for range e.totalEdges() {
		if !e.Fused(next.cell, next.k, layer) {
			break
		}
		s, _ := e.seamAt(next.cell, next.k)
		nn := s.n.EdgeCount()
		// The shared vertex opens edge j+1 of the neighbour.
		v := (s.j + 1) % nn
		p := e.Point(s.n, 2*v, layer)
		if layer > 0 || !p.Near(pts[len(pts)-1], e.tol) {
			pts = append(pts, p)
		}
		next = edgeRef{cell: s.n, k: v}
	}
	if layer > 0 {
		return next, []geom.Point{average(pts)}
	}
	return next, pts
}

func (e *Engine) totalEdges() int {
	total := 0
	for _, c := range e.d.Cells {
		total += c.EdgeCount()
	}
	return max(total, 1)
}

// components groups cells connected by fused seams at layer. The result maps
// a cell index to the smallest cell index of its group.
func (e *Engine) components(layer int) []int {
	parent := make([]int, len(e.d.Cells))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for _, c := range e.d.Cells {
		for _, nb := range c.Neighbors {
			if !e.Fused(c, nb.Edge, layer) {
				continue
			}
			a, b := find(c.Index()), find(nb.Cell.Index())
			if a != b {
				parent[max(a, b)] = min(a, b)
			}
		}
	}
	out := make([]int, len(parent))
	for i := range out {
		out[i] = find(i)
	}
	return out
}

func average(pts []geom.Point) geom.Point {
	if len(pts) == 1 {
		return pts[0]
	}
	var x, y float64
	for _, p := range pts {
		x += p.X
		y += p.Y
	}
	n := float64(len(pts))
	return geom.Pt(x/n, y/n)
}
