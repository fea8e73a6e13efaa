package voronoi

import (
	"math"
	"slices"

	"github.com/matzehuels/starmap/pkg/geom"
)

// Diagram is the result of one Build pass. Its points are interned in the
// registry the pass used and must not be mixed with another pass's points.
type Diagram struct {
	Box     geom.BBox
	Cells   []*Cell
	Dropped []Site
}

// Adjacency is an unordered pair of cells sharing an edge.
type Adjacency struct {
	A, B   *Cell
	Length float64
}

// CellByName returns the first cell with the given name.
func (d *Diagram) CellByName(name string) (*Cell, bool) {
	for _, c := range d.Cells {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Area returns the summed area of all cells.
func (d *Diagram) Area() float64 {
	var a float64
	for _, c := range d.Cells {
		a += c.Area()
	}
	return a
}

// Uncovered returns the part of the box that no cell covers. It vanishes up
// to rounding when all weights are equal. Unequal weights leave gaps where
// the pairwise bisectors of three sites do not meet in one point.
func (d *Diagram) Uncovered() float64 {
	return math.Max(0, d.Box.Area()-d.Area())
}

// Owners returns the distinct non-empty owners in sorted order.
func (d *Diagram) Owners() []string {
	var out []string
	for _, c := range d.Cells {
		if c.Owner != "" && !slices.Contains(out, c.Owner) {
			out = append(out, c.Owner)
		}
	}
	slices.Sort(out)
	return out
}

// OwnerArea returns the summed cell area per owner. Neutral cells are keyed
// by the empty string.
func (d *Diagram) OwnerArea() map[string]float64 {
	out := make(map[string]float64)
	for _, c := range d.Cells {
		out[c.Owner] += c.Area()
	}
	return out
}

// Adjacencies lists every shared edge once, ordered by cell index.
func (d *Diagram) Adjacencies() []Adjacency {
	var out []Adjacency
	for _, c := range d.Cells {
		for _, nb := range c.Neighbors {
			if nb.Cell.index <= c.index {
				continue
			}
			out = append(out, Adjacency{A: c, B: nb.Cell, Length: geom.Distance(*nb.P1, *nb.P2)})
		}
	}
	return out
}

// Locate returns the cell containing p.
func (d *Diagram) Locate(p geom.Point) (*Cell, bool) {
	for _, c := range d.Cells {
		if c.Contains(p) {
			return c, true
		}
	}
	return nil, false
}
