package turn

import (
	"math"

	"github.com/matzehuels/starmap/pkg/geom"
	"github.com/matzehuels/starmap/pkg/voronoi"
)

const (
	// MaxPlanetSize caps the drawn planet radius.
	MaxPlanetSize = 3.0
	// MinPlanetSize is the smallest drawn planet radius.
	MinPlanetSize = 0.5
	// OrbitSize is the gap kept around each planet for orbiting fleets.
	OrbitSize = 2.0
	// Padding is the margin added around the outermost planets.
	Padding = 5.0
)

// PlanetSizes returns the drawn radius of every planet, keyed by name.
// A planet gets half the distance to its nearest neighbour minus two orbits,
// clamped to [MinPlanetSize, MaxPlanetSize].
func (s *State) PlanetSizes() map[string]float64 {
	pts := make([]geom.Point, len(s.Planets))
	for i, p := range s.Planets {
		pts[i] = p.Point()
	}
	out := make(map[string]float64, len(s.Planets))
	for _, p := range s.Planets {
		closest := geom.FindClosest(p.Point(), pts)/2 - OrbitSize*2
		out[p.Name] = geom.Clamp(closest, MinPlanetSize, MaxPlanetSize)
	}
	return out
}

// ViewBox returns the region that holds every planet with its orbit and a
// margin. A board without planets yields the unit box.
func (s *State) ViewBox() geom.BBox {
	if len(s.Planets) == 0 {
		return geom.BBox{MaxX: 1, MaxY: 1}
	}
	sizes := s.PlanetSizes()
	box := geom.BBox{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, p := range s.Planets {
		off := sizes[p.Name] + OrbitSize + Padding
		box.MinX = math.Min(box.MinX, p.X-off)
		box.MinY = math.Min(box.MinY, p.Y-off)
		box.MaxX = math.Max(box.MaxX, p.X+off)
		box.MaxY = math.Max(box.MaxY, p.Y+off)
	}
	return box
}

// WeightBy selects how planets weigh their Voronoi site.
type WeightBy string

const (
	// WeightUnit gives every planet weight 1.
	WeightUnit WeightBy = "unit"
	// WeightShips weighs a planet by 1 + log2(1 + ships), so large garrisons
	// claim more space without swamping the board.
	WeightShips WeightBy = "ships"
)

// Valid reports whether w is a known weighting.
func (w WeightBy) Valid() bool {
	return w == "" || w == WeightUnit || w == WeightShips
}

// Sites converts the planets of s into Voronoi sites.
func (s *State) Sites(w WeightBy) []voronoi.Site {
	out := make([]voronoi.Site, len(s.Planets))
	for i, p := range s.Planets {
		weight := 1.0
		if w == WeightShips {
			weight = 1 + math.Log2(1+float64(p.ShipCount))
		}
		out[i] = voronoi.Site{Name: p.Name, Owner: p.Owner, X: p.X, Y: p.Y, Weight: weight}
	}
	return out
}
