package voronoi

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/geom"
)

const tol = 1e-6

func mustBuild(t *testing.T, sites []Site, box geom.BBox, opts ...Option) *Diagram {
	t.Helper()
	d, err := Build(sites, box, opts...)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return d
}

func randomSites(seed uint64, n int, box geom.BBox) []Site {
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	sites := make([]Site, n)
	for i := range sites {
		sites[i] = Site{
			Name: string(rune('a'+i%26)) + string(rune('0'+i/26)),
			X:    geom.RandomBetween(rng, box.MinX+1, box.MaxX-1),
			Y:    geom.RandomBetween(rng, box.MinY+1, box.MaxY-1),
		}
	}
	return sites
}

func TestBuildDegenerate(t *testing.T) {
	box := geom.BBox{MinX: -2, MinY: -2, MaxX: 2, MaxY: 2}

	t.Run("no sites", func(t *testing.T) {
		d := mustBuild(t, nil, box)
		if len(d.Cells) != 0 {
			t.Errorf("cells = %d, want 0", len(d.Cells))
		}
	})

	t.Run("single site covers the box", func(t *testing.T) {
		d := mustBuild(t, []Site{{Name: "solo", X: 0.5, Y: -1}}, box)
		if len(d.Cells) != 1 {
			t.Fatalf("cells = %d, want 1", len(d.Cells))
		}
		c := d.Cells[0]
		corners := box.Corners()
		if c.EdgeCount() != len(corners) {
			t.Fatalf("vertices = %d, want 4", c.EdgeCount())
		}
		for k, want := range corners {
			if !c.Vertex(k).Equal(want) {
				t.Errorf("vertex %d = %v, want %v", k, c.Vertex(k), want)
			}
		}
		if math.Abs(c.Area()-box.Area()) > tol {
			t.Errorf("area = %g, want %g", c.Area(), box.Area())
		}
		if len(c.Neighbors) != 0 {
			t.Errorf("neighbors = %d, want 0", len(c.Neighbors))
		}
	})

	t.Run("coincident sites are dropped", func(t *testing.T) {
		d := mustBuild(t, []Site{
			{Name: "a", X: -1, Y: 0},
			{Name: "b", X: 1, Y: 0},
			{Name: "a2", X: -1 + 1e-15, Y: 0},
		}, box)
		if len(d.Cells) != 2 {
			t.Fatalf("cells = %d, want 2", len(d.Cells))
		}
		if len(d.Dropped) != 1 || d.Dropped[0].Name != "a2" {
			t.Errorf("dropped = %+v, want [a2]", d.Dropped)
		}
	})
}

func TestBuildInvalidInput(t *testing.T) {
	box := geom.BBox{MaxX: 10, MaxY: 10}
	tests := []struct {
		name string
		site Site
		box  geom.BBox
		code errors.Code
	}{
		{"outside box", Site{X: 11, Y: 5}, box, errors.ErrCodeInvalidSite},
		{"on border", Site{X: 0, Y: 5}, box, errors.ErrCodeInvalidSite},
		{"nan", Site{X: math.NaN(), Y: 5}, box, errors.ErrCodeInvalidSite},
		{"infinite weight", Site{X: 5, Y: 5, Weight: math.Inf(1)}, box, errors.ErrCodeInvalidSite},
		{"empty box", Site{X: 5, Y: 5}, geom.BBox{}, errors.ErrCodeInvalidBox},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build([]Site{tt.site}, tt.box)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestBuildTwoEqualSites(t *testing.T) {
	box := geom.BBox{MinX: -2, MinY: -2, MaxX: 2, MaxY: 2}
	d := mustBuild(t, []Site{{Name: "w", X: -1, Y: 0}, {Name: "e", X: 1, Y: 0}}, box)

	for _, c := range d.Cells {
		if math.Abs(c.Area()-8) > tol {
			t.Errorf("%s area = %g, want 8", c.Name, c.Area())
		}
		if len(c.Neighbors) != 1 {
			t.Fatalf("%s neighbors = %d, want 1", c.Name, len(c.Neighbors))
		}
		nb := c.Neighbors[0]
		if math.Abs(nb.P1.X) > tol || math.Abs(nb.P2.X) > tol {
			t.Errorf("%s shared edge %v-%v not on x = 0", c.Name, nb.P1, nb.P2)
		}
		if mid := c.EdgePoint(nb.Edge); !mid.Near(geom.Pt(0, 0), tol) {
			t.Errorf("%s edge point = %v, want the weighted middle (0, 0)", c.Name, mid)
		}
	}
}

func TestBuildHeavierSiteClaimsMore(t *testing.T) {
	box := geom.BBox{MinX: -4, MinY: -4, MaxX: 4, MaxY: 4}
	d := mustBuild(t, []Site{
		{Name: "big", X: -1, Y: 0, Weight: 3},
		{Name: "small", X: 1, Y: 0, Weight: 1},
	}, box)
	big, _ := d.CellByName("big")
	small, _ := d.CellByName("small")
	if big.Area() <= small.Area() {
		t.Errorf("big area %g should exceed small area %g", big.Area(), small.Area())
	}
	// Weighted middle of (-1,0,w3) and (1,0,w1) is (0.5, 0).
	nb, ok := big.NeighborFor(small)
	if !ok {
		t.Fatal("big and small should be neighbours")
	}
	if math.Abs(nb.P1.X-0.5) > tol || math.Abs(nb.P2.X-0.5) > tol {
		t.Errorf("shared edge %v-%v not on x = 0.5", nb.P1, nb.P2)
	}
}

func TestBuildCocircularSites(t *testing.T) {
	box := geom.BBox{MinX: -3, MinY: -3, MaxX: 3, MaxY: 3}
	d := mustBuild(t, []Site{
		{Name: "sw", X: -1, Y: -1},
		{Name: "nw", X: -1, Y: 1},
		{Name: "ne", X: 1, Y: 1},
		{Name: "se", X: 1, Y: -1},
	}, box)
	for _, c := range d.Cells {
		if c.EdgeCount() != 4 {
			t.Errorf("%s vertices = %d, want 4: %v", c.Name, c.EdgeCount(), c.Polygon())
		}
		if math.Abs(c.Area()-9) > tol {
			t.Errorf("%s area = %g, want 9", c.Name, c.Area())
		}
		if len(c.Neighbors) != 2 {
			t.Errorf("%s neighbors = %d, want 2", c.Name, len(c.Neighbors))
		}
	}
	ne, _ := d.CellByName("ne")
	sw, _ := d.CellByName("sw")
	if _, ok := ne.NeighborFor(sw); ok {
		t.Error("diagonal cells only touch in a point and must not be neighbours")
	}
}

func TestBuildPartition(t *testing.T) {
	box := geom.BBox{MaxX: 100, MaxY: 80}
	for _, seed := range []uint64{1, 42, 1337} {
		d := mustBuild(t, randomSites(seed, 30, box), box)

		if got := d.Area(); math.Abs(got-box.Area()) > 1e-6*box.Area() {
			t.Errorf("seed %d: summed area = %g, want %g", seed, got, box.Area())
		}

		for _, c := range d.Cells {
			if !c.Contains(*c.Site) {
				t.Errorf("seed %d: cell %s does not contain its site", seed, c.Name)
			}
			n := c.EdgeCount()
			for k := 0; k < n; k++ {
				v := *c.Vertex(k)
				if v.X < box.MinX-tol || v.X > box.MaxX+tol || v.Y < box.MinY-tol || v.Y > box.MaxY+tol {
					t.Errorf("seed %d: vertex %v of %s outside the box", seed, v, c.Name)
				}
				if !geom.TurningRight(*c.Vertex(k), *c.Vertex(k+1), *c.Vertex(k+2)) {
					t.Errorf("seed %d: cell %s is not clockwise at vertex %d", seed, c.Name, k)
				}
			}
		}

		// With equal weights every point belongs to the nearest site.
		rng := rand.New(rand.NewPCG(seed, 99))
		for range 200 {
			p := geom.Pt(geom.RandomBetween(rng, 0, 100), geom.RandomBetween(rng, 0, 80))
			nearest := d.Cells[0]
			for _, c := range d.Cells[1:] {
				if geom.Distance(p, *c.Site) < geom.Distance(p, *nearest.Site) {
					nearest = c
				}
			}
			if !nearest.Contains(p) {
				t.Errorf("seed %d: %v is closest to %s but outside its cell", seed, p, nearest.Name)
			}
		}
	}
}

func TestBuildNeighborsAreSymmetric(t *testing.T) {
	box := geom.BBox{MaxX: 50, MaxY: 50}
	// Equal weights: only then do three bisectors meet in one vertex.
	d := mustBuild(t, randomSites(7, 20, box), box)

	for _, c := range d.Cells {
		for _, nb := range c.Neighbors {
			back, ok := nb.Cell.NeighborFor(c)
			if !ok {
				t.Errorf("%s lists %s but not the other way round", c.Name, nb.Cell.Name)
				continue
			}
			if !nb.P1.Near(*back.P2, tol) || !nb.P2.Near(*back.P1, tol) {
				t.Errorf("%s/%s shared edge disagrees: %v-%v vs %v-%v",
					c.Name, nb.Cell.Name, nb.P1, nb.P2, back.P1, back.P2)
			}
			if nb.P1 != c.Vertex(nb.Edge) || nb.P2 != c.Vertex(nb.Edge+1) {
				t.Errorf("%s neighbour edge %d does not match the boundary", c.Name, nb.Edge)
			}
		}
	}
}

func TestBuildEdgePointsInsideEdges(t *testing.T) {
	box := geom.BBox{MaxX: 40, MaxY: 40}
	sites := randomSites(3, 12, box)
	for i := range sites {
		sites[i].Weight = float64(1 + i%3)
	}
	d := mustBuild(t, sites, box)
	for _, c := range d.Cells {
		for k := 0; k < c.EdgeCount(); k++ {
			a, b, m := *c.Vertex(k), *c.Vertex(k+1), *c.EdgePoint(k)
			if math.Abs(geom.Cross(a, b, m)) > tol {
				t.Errorf("%s edge %d: point %v off the edge", c.Name, k, m)
			}
			if geom.Distance(a, m)+geom.Distance(m, b) > geom.Distance(a, b)+tol {
				t.Errorf("%s edge %d: point %v outside the segment", c.Name, k, m)
			}
		}
	}
}

func TestBuildWalkCap(t *testing.T) {
	box := geom.BBox{MaxX: 10, MaxY: 10}
	sites := []Site{{X: 2, Y: 2}, {X: 8, Y: 3}, {X: 5, Y: 8}}
	_, err := Build(sites, box, WithMaxSteps(2))
	if !errors.Is(err, errors.ErrCodeUnterminatedWalk) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeUnterminatedWalk)
	}
}

func TestBuildWorkersMatchSerial(t *testing.T) {
	box := geom.BBox{MaxX: 100, MaxY: 100}
	sites := randomSites(11, 40, box)
	serial := mustBuild(t, sites, box)
	parallel := mustBuild(t, sites, box, WithWorkers(8))

	for i := range serial.Cells {
		a, b := serial.Cells[i].Polygon(), parallel.Cells[i].Polygon()
		if len(a) != len(b) {
			t.Fatalf("cell %d: %d vs %d vertices", i, len(a), len(b))
		}
		for k := range a {
			if !a[k].Equal(b[k]) {
				t.Errorf("cell %d vertex %d: %v vs %v", i, k, a[k], b[k])
			}
		}
	}
}

func TestBuildSharedRegistry(t *testing.T) {
	box := geom.BBox{MinX: -2, MinY: -2, MaxX: 2, MaxY: 2}
	reg := geom.NewRegistry()
	d := mustBuild(t, []Site{{X: -1, Y: 0}, {X: 1, Y: 0}}, box, WithRegistry(reg))
	if reg.Len() == 0 {
		t.Fatal("registry should hold the diagram's points")
	}
	// Shared vertices are the very same pointers in both cells.
	nb := d.Cells[0].Neighbors[0]
	back, _ := d.Cells[1].NeighborFor(d.Cells[0])
	if nb.P1 != back.P2 || nb.P2 != back.P1 {
		t.Error("shared vertices should be interned to the same points")
	}
}

func weightedSites(seed uint64, n int, box geom.BBox) []Site {
	sites := randomSites(seed, n, box)
	for i := range sites {
		sites[i].Weight = float64(1 + i%4)
	}
	return sites
}

func TestBuildWeightedBisectorContainment(t *testing.T) {
	box := geom.BBox{MaxX: 100, MaxY: 80}
	for _, seed := range []uint64{4, 17, 256} {
		d := mustBuild(t, weightedSites(seed, 25, box), box)
		for _, c := range d.Cells {
			for _, nb := range c.Neighbors {
				l := geom.NewBisector(*c.Site, *nb.Cell.Site)
				norm := math.Hypot(l.A, l.B)
				for _, p := range []geom.Point{*nb.P1, *nb.P2, *c.EdgePoint(nb.Edge)} {
					if dist := math.Abs(l.Eval(p)) / norm; dist > tol {
						t.Errorf("seed %d: %s/%s point %v is %g off their bisector",
							seed, c.Name, nb.Cell.Name, p, dist)
					}
				}
			}
		}
	}
}

func TestBuildWeightedCellsAreDisjoint(t *testing.T) {
	box := geom.BBox{MaxX: 100, MaxY: 80}
	for _, seed := range []uint64{4, 17, 256} {
		d := mustBuild(t, weightedSites(seed, 25, box), box)
		if d.Area() > box.Area()*(1+1e-9) {
			t.Errorf("seed %d: summed area %g exceeds the box %g", seed, d.Area(), box.Area())
		}
		for _, c := range d.Cells {
			if !c.Contains(*c.Site) {
				t.Errorf("seed %d: cell %s does not contain its site", seed, c.Name)
			}
		}
		rng := rand.New(rand.NewPCG(seed, 7))
		for range 500 {
			p := geom.Pt(geom.RandomBetween(rng, 0, 100), geom.RandomBetween(rng, 0, 80))
			var in []string
			for _, c := range d.Cells {
				if c.Contains(p) {
					in = append(in, c.Name)
				}
			}
			if len(in) > 1 {
				t.Errorf("seed %d: %v lies in cells %v", seed, p, in)
			}
		}
	}
}

// Three sites with unequal weights: the pairwise bisectors do not meet in
// one point, so the cells leave a small triangle uncovered where they would
// otherwise meet. The neighbour records still pair up on both sides.
func TestBuildWeightedJunctionGap(t *testing.T) {
	box := geom.BBox{MaxX: 20, MaxY: 20}
	sites := []Site{
		{Name: "a", X: 5, Y: 5, Weight: 5},
		{Name: "b", X: 15, Y: 6, Weight: 1},
		{Name: "c", X: 9, Y: 15, Weight: 2},
	}
	d := mustBuild(t, sites, box)
	if got := d.Uncovered(); math.Abs(got-0.595241) > tol {
		t.Errorf("uncovered = %g, want 0.595241", got)
	}
	for _, c := range d.Cells {
		if len(c.Neighbors) != 2 {
			t.Errorf("%s neighbours = %d, want 2", c.Name, len(c.Neighbors))
		}
		for _, nb := range c.Neighbors {
			if _, ok := nb.Cell.NeighborFor(c); !ok {
				t.Errorf("%s lists %s but not the other way round", c.Name, nb.Cell.Name)
			}
		}
	}

	for i := range sites {
		sites[i].Weight = 1
	}
	if got := mustBuild(t, sites, box).Uncovered(); got > tol {
		t.Errorf("equal weights leave %g uncovered, want 0", got)
	}
}
