package voronoi

import (
	"io"
	"math"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/geom"
)

// Option configures Build.
type Option func(*builder)

// WithRegistry makes Build intern points into r instead of a fresh registry.
func WithRegistry(r *geom.Registry) Option { return func(b *builder) { b.reg = r } }

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option { return func(b *builder) { b.logger = l } }

// WithMaxSteps overrides the boundary walk cap. Zero keeps the default of one
// more step than the site has candidate lines.
func WithMaxSteps(n int) Option { return func(b *builder) { b.maxSteps = n } }

// WithWorkers runs up to n boundary walks concurrently.
func WithWorkers(n int) Option { return func(b *builder) { b.workers = n } }

type builder struct {
	reg      *geom.Registry
	logger   *log.Logger
	maxSteps int
	workers  int
	tol      float64
}

// candidate is a line that may bound a cell. other is the index of the site
// on the far side of a bisector, or -1 for box edges.
type candidate struct {
	line  geom.Line
	other int
}

// step is one vertex of a boundary walk: the walk reached point and
// continued along cands[line].
type step struct {
	line  int
	point geom.Point
}

// Build constructs the weighted Voronoi diagram of sites clipped to box.
//
// Sites must have finite coordinates strictly inside box. Weights that are
// missing or not positive default to 1. A site within geom.Epsilon of an
// earlier one is not given a cell and is reported in Diagram.Dropped.
//
// Cells never overlap. With unequal weights they can leave gaps where three
// cells would meet; see Diagram.Uncovered.
func Build(sites []Site, box geom.BBox, opts ...Option) (*Diagram, error) {
	b := &builder{workers: 1}
	for _, opt := range opts {
		opt(b)
	}
	if b.reg == nil {
		b.reg = geom.NewRegistry()
	}
	if b.logger == nil {
		b.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if err := box.Validate(); err != nil {
		return nil, err
	}
	b.tol = walkTolerance * math.Max(box.Width(), box.Height())

	d, err := b.ingest(sites, box)
	if err != nil {
		return nil, err
	}

	switch len(d.Cells) {
	case 0:
		b.logger.Debug("no sites, empty diagram")
		return d, nil
	case 1:
		b.boxCell(d.Cells[0], box)
		return d, nil
	}

	cands := b.candidates(d, box)
	walks := make([][]step, len(d.Cells))

	var g errgroup.Group
	g.SetLimit(max(b.workers, 1))
	for i, c := range d.Cells {
		site := *c.Site
		g.Go(func() error {
			steps, err := b.walk(site, cands[i])
			if err != nil {
				return errors.Wrap(errors.GetCode(err), err, "boundary walk for site %s", d.Cells[i].label())
			}
			walks[i] = steps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, c := range d.Cells {
		if err := b.assemble(d, c, cands[i], walks[i]); err != nil {
			return nil, err
		}
	}

	b.logger.Debug("built diagram",
		"cells", len(d.Cells),
		"dropped", len(d.Dropped),
		"points", b.reg.Len(),
		"uncovered", d.Uncovered())
	return d, nil
}

func (b *builder) ingest(sites []Site, box geom.BBox) (*Diagram, error) {
	d := &Diagram{Box: box}
	seen := make(map[*geom.Point]bool, len(sites))
	for _, s := range sites {
		s = s.normalize()
		if err := s.validate(box); err != nil {
			return nil, err
		}
		p := b.reg.Intern(s.X, s.Y)
		if seen[p] {
			b.logger.Debug("dropping coincident site", "name", s.Name, "at", p)
			d.Dropped = append(d.Dropped, s)
			continue
		}
		seen[p] = true
		p.Weight = s.Weight
		d.Cells = append(d.Cells, &Cell{
			Site:  p,
			Owner: s.Owner,
			Name:  s.Name,
			index: len(d.Cells),
		})
	}
	return d, nil
}

// boxCell makes c cover the whole box.
func (b *builder) boxCell(c *Cell, box geom.BBox) {
	corners := box.Corners()
	c.Boundary = make([]*geom.Point, 0, 2*len(corners))
	for k, p := range corners {
		q := corners[(k+1)%len(corners)]
		m := geom.WeightedMiddle(p, q)
		c.Boundary = append(c.Boundary, b.reg.Intern(p.X, p.Y), b.reg.Intern(m.X, m.Y))
	}
}

func (b *builder) candidates(d *Diagram, box geom.BBox) [][]candidate {
	n := len(d.Cells)
	edges := box.Lines()
	cands := make([][]candidate, n)
	for i := range cands {
		cands[i] = make([]candidate, 0, len(edges)+n-1)
		for _, l := range edges {
			cands[i] = append(cands[i], candidate{line: l, other: -1})
		}
	}
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			l := geom.NewBisector(*d.Cells[i].Site, *d.Cells[j].Site)
			cands[i] = append(cands[i], candidate{line: l, other: j})
			cands[j] = append(cands[j], candidate{line: l, other: i})
		}
	}
	return cands
}

// walk traces the boundary of the cell around site clockwise. It starts on
// the candidate closest to the site, at the foot of the perpendicular from
// the site, and stops once it is back on that line.
func (b *builder) walk(site geom.Point, cands []candidate) ([]step, error) {
	first, at := closest(site, cands)
	limit := b.maxSteps
	if limit <= 0 {
		limit = len(cands) + 1
	}

	used := make([]bool, len(cands))
	cur := first
	var steps []step
	for len(steps) == 0 || cur != first {
		if len(steps) >= limit {
			return nil, errors.New(errors.ErrCodeUnterminatedWalk, "walk did not close after %d steps", limit)
		}
		next, p, ok := b.next(site, cands, used, cur, at)
		if !ok {
			return nil, errors.New(errors.ErrCodeUnterminatedWalk, "walk ran out of candidate lines after %d steps", len(steps))
		}
		used[next] = true
		steps = append(steps, step{line: next, point: p})
		cur, at = next, p
	}
	return steps, nil
}

// closest returns the candidate nearest to site and the foot of the
// perpendicular from site onto it. For a bisector the foot is its weighted
// middle.
func closest(site geom.Point, cands []candidate) (int, geom.Point) {
	best, bestD := -1, math.Inf(1)
	var foot geom.Point
	for k, c := range cands {
		l := c.line
		n2 := l.A*l.A + l.B*l.B
		e := l.Eval(site)
		if d := math.Abs(e) / math.Sqrt(n2); d < bestD {
			best, bestD = k, d
			foot = geom.Pt(site.X-e/n2*l.A, site.Y-e/n2*l.B)
		}
	}
	return best, foot
}

// next picks the line the walk runs into first when moving clockwise along
// cands[cur] from at. Only lines the walk would leave the site's side of are
// considered; lines meeting at the same spot are resolved by keeping the one
// whose own clockwise direction stays inside all the others.
func (b *builder) next(site geom.Point, cands []candidate, used []bool, cur int, at geom.Point) (int, geom.Point, bool) {
	line := cands[cur].line
	dir := direction(line, site)

	type hit struct {
		k int
		t float64
		p geom.Point
	}
	var hits []hit
	best := math.Inf(1)
	for k, c := range cands {
		if k == cur || used[k] {
			continue
		}
		if side(c.line, site)*(c.line.A*dir.X+c.line.B*dir.Y) >= 0 {
			continue
		}
		p, err := line.Intersect(c.line)
		if err != nil {
			continue
		}
		// Ahead of at on a clockwise walk means turning right around site.
		t := (p.X-at.X)*dir.X + (p.Y-at.Y)*dir.Y
		if t < -b.tol {
			continue
		}
		hits = append(hits, hit{k: k, t: t, p: p})
		best = math.Min(best, t)
	}
	if len(hits) == 0 {
		return 0, geom.Point{}, false
	}

	var tied []hit
	for _, h := range hits {
		if h.t <= best+b.tol {
			tied = append(tied, h)
		}
	}
	if len(tied) == 1 {
		return tied[0].k, tied[0].p, true
	}
	for _, h := range tied {
		d := direction(cands[h.k].line, site)
		ok := true
		for _, o := range tied {
			if o.k == h.k {
				continue
			}
			l := cands[o.k].line
			if side(l, site)*(l.A*d.X+l.B*d.Y)/math.Hypot(l.A, l.B) < -walkTolerance {
				ok = false
				break
			}
		}
		if ok {
			return h.k, h.p, true
		}
	}
	return tied[0].k, tied[0].p, true
}

// direction returns the unit vector along l that keeps site on the right.
func direction(l geom.Line, site geom.Point) geom.Point {
	s := side(l, site)
	n := math.Hypot(l.A, l.B)
	return geom.Pt(-s*l.B/n, s*l.A/n)
}

// side returns the sign of l at p as ±1.
func side(l geom.Line, p geom.Point) float64 {
	if l.Eval(p) < 0 {
		return -1
	}
	return 1
}

// assemble interns the walk's vertices, inserts edge points and records
// neighbours.
func (b *builder) assemble(d *Diagram, c *Cell, cands []candidate, steps []step) error {
	steps = b.dropShortEdges(steps)
	n := len(steps)
	if n < 3 {
		return errors.New(errors.ErrCodeDegenerateSites, "cell for site %s collapsed to %d vertices", c.label(), n)
	}

	verts := make([]*geom.Point, n)
	for k, s := range steps {
		verts[k] = b.reg.Intern(s.point.X, s.point.Y)
	}

	c.Boundary = make([]*geom.Point, 0, 2*n)
	for k, s := range steps {
		p1, p2 := verts[k], verts[(k+1)%n]
		cand := cands[s.line]
		m := b.edgePoint(cand.line, *p1, *p2)
		c.Boundary = append(c.Boundary, p1, b.reg.Intern(m.X, m.Y))
		if cand.other >= 0 {
			c.Neighbors = append(c.Neighbors, Neighbor{
				Cell: d.Cells[cand.other],
				Edge: k,
				P1:   p1,
				P2:   p2,
			})
		}
	}
	return nil
}

// dropShortEdges removes steps whose edge has (numerically) zero length.
// Such steps come from several lines meeting in one vertex.
func (b *builder) dropShortEdges(steps []step) []step {
	out := steps[:0:0]
	for k, s := range steps {
		q := steps[(k+1)%len(steps)].point
		if len(steps) > 1 && s.point.Near(q, b.tol) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// edgePoint returns the point stored between p1 and p2. A bisector edge uses
// the bisector's weighted middle when that lies inside the edge; every other
// edge uses the plain midpoint.
func (b *builder) edgePoint(l geom.Line, p1, p2 geom.Point) geom.Point {
	mid := geom.WeightedMiddle(geom.Pt(p1.X, p1.Y), geom.Pt(p2.X, p2.Y))
	if !l.Bisector {
		return mid
	}
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	n2 := dx*dx + dy*dy
	if n2 == 0 {
		return mid
	}
	u := ((l.Middle.X-p1.X)*dx + (l.Middle.Y-p1.Y)*dy) / n2
	if u <= walkTolerance || u >= 1-walkTolerance {
		return mid
	}
	return l.Middle
}

// walkTolerance is the relative tolerance of the boundary walk, scaled by
// the box size where distances are compared.
const walkTolerance = 1e-9

func (c *Cell) label() string {
	if c.Name == "" {
		return "<unnamed>"
	}
	return `"` + c.Name + `"`
}
