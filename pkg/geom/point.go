package geom

import (
	"fmt"
	"math"
)

// Epsilon is the coordinate tolerance used for interning. Two points closer
// than Epsilon on both axes are the same point.
const Epsilon = 1e-13

// cellSize is the side of a spatial hash bucket. It must be at least Epsilon
// so that any match lies in the 3×3 neighbourhood of the lookup bucket.
const cellSize = 1e-6

// Point is a location in the plane with an optional weight. Weight only
// matters for sites; derived points carry weight 1.
type Point struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Weight float64 `json:"weight,omitempty"`
}

// Pt is shorthand for a unit-weight point.
func Pt(x, y float64) Point { return Point{X: x, Y: y, Weight: 1} }

// Equal reports exact coordinate equality.
func (p Point) Equal(q Point) bool {
	return p.X == q.X && p.Y == q.Y
}

// Near reports whether p and q differ by less than eps on both axes.
func (p Point) Near(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) < eps && math.Abs(p.Y-q.Y) < eps
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y, Weight: p.Weight} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y, Weight: p.Weight} }

// Scale returns p scaled by f.
func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f, Weight: p.Weight} }

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

type bucket struct{ x, y int64 }

// Registry interns points so that nearly coincident coordinates share one
// *Point. The zero value is not usable; call NewRegistry.
//
// A Registry is not safe for concurrent mutation.
type Registry struct {
	buckets map[bucket][]*Point
	n       int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{buckets: make(map[bucket][]*Point)}
}

// Intern returns the registered point within Epsilon of (x, y), creating and
// registering a new one when none exists. Non-finite coordinates are never
// registered; a fresh point is returned for them.
func (r *Registry) Intern(x, y float64) *Point {
	p := Point{X: x, Y: y, Weight: 1}
	if !p.Finite() {
		return &p
	}
	key := keyOf(x, y)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, q := range r.buckets[bucket{key.x + dx, key.y + dy}] {
				if q.Near(p, Epsilon) {
					return q
				}
			}
		}
	}
	np := &p
	r.buckets[key] = append(r.buckets[key], np)
	r.n++
	return np
}

// InternPoint interns p's coordinates, keeping p's weight on a newly created
// point.
func (r *Registry) InternPoint(p Point) *Point {
	before := r.n
	q := r.Intern(p.X, p.Y)
	if r.n > before && p.Weight != 0 {
		q.Weight = p.Weight
	}
	return q
}

// Len returns the number of interned points.
func (r *Registry) Len() int { return r.n }

// Reset forgets every interned point.
func (r *Registry) Reset() {
	clear(r.buckets)
	r.n = 0
}

// maxBucket bounds bucket indices so the float to int64 conversion stays in
// range. Coordinates beyond ±maxBucket·cellSize share the outermost buckets.
const maxBucket = 1 << 52

func keyOf(x, y float64) bucket {
	return bucket{quantize(x), quantize(y)}
}

func quantize(v float64) int64 {
	return int64(Clamp(math.Floor(v/cellSize), -maxBucket, maxBucket))
}
