package geom

import (
	"math"
	"math/rand/v2"
)

// Distance returns the Euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// WeightedMiddle returns the point on segment pq that divides it in the
// inverse ratio of the weights: the heavier endpoint ends up farther from the
// result. Both weights must be positive. The result has weight 1.
func WeightedMiddle(p, q Point) Point {
	sum := p.Weight + q.Weight
	return Point{
		X:      (p.X*q.Weight + q.X*p.Weight) / sum,
		Y:      (p.Y*q.Weight + q.Y*p.Weight) / sum,
		Weight: 1,
	}
}

// Cross returns the z component of (p2-p1) × (p3-p1).
func Cross(p1, p2, p3 Point) float64 {
	return (p2.X-p1.X)*(p3.Y-p1.Y) - (p2.Y-p1.Y)*(p3.X-p1.X)
}

// TurningRight reports whether p1 → p2 → p3 makes a strict right turn.
// Collinear triples are not right turns.
func TurningRight(p1, p2, p3 Point) bool {
	return Cross(p1, p2, p3) < 0
}

// FindClosest returns the smallest nonzero distance from p to any of points.
// Points located exactly at p are ignored. It returns +Inf when no candidate
// remains.
func FindClosest(p Point, points []Point) float64 {
	best := math.Inf(1)
	for _, q := range points {
		d := Distance(p, q)
		if d > 0 && d < best {
			best = d
		}
	}
	return best
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// Mod returns the non-negative remainder of n modulo m.
func Mod(n, m int) int {
	return ((n % m) + m) % m
}

// ToRadians converts degrees to radians.
func ToRadians(deg float64) float64 { return deg * math.Pi / 180 }

// ToDegrees converts radians to degrees.
func ToDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// RandomBetween returns a uniformly distributed float in [lo, hi).
func RandomBetween(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// RandomIntBetween returns a uniformly distributed int in [lo, hi].
func RandomIntBetween(rng *rand.Rand, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + rng.IntN(hi-lo+1)
}

// PolygonArea returns the signed shoelace area of ring. Clockwise rings
// (y-up) have negative area.
func PolygonArea(ring []Point) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := range ring {
		j := (i + 1) % n
		sum += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return sum / 2
}
