package geom

import (
	"fmt"
	"math"

	"github.com/matzehuels/starmap/pkg/errors"
)

// parallelTolerance scales the determinant test in Intersect relative to the
// magnitude of the coefficients.
const parallelTolerance = 1e-12

// Line is the implicit line A·x + B·y + C = 0.
//
// For plain lines P1 and P2 are the two points the line was built through.
// For bisectors they are the two sites the line separates, and Middle is the
// weighted middle it passes through.
type Line struct {
	A, B, C  float64
	P1, P2   Point
	Middle   Point
	Bisector bool
}

// NewLine returns the line through p1 and p2. The points must differ.
func NewLine(p1, p2 Point) Line {
	l := Line{
		A:  p2.Y - p1.Y,
		B:  p1.X - p2.X,
		P1: p1,
		P2: p2,
	}
	l.C = -l.A*p1.X - l.B*p1.Y
	return l
}

// NewBisector returns the weighted bisector of p1 and p2: the line
// perpendicular to p1p2 through WeightedMiddle(p1, p2).
func NewBisector(p1, p2 Point) Line {
	base := NewLine(p1, p2)
	m := WeightedMiddle(p1, p2)
	l := Line{
		A:        -base.B,
		B:        base.A,
		P1:       p1,
		P2:       p2,
		Middle:   m,
		Bisector: true,
	}
	l.C = -l.A*m.X - l.B*m.Y
	return l
}

// Eval returns A·x + B·y + C for p. The sign tells which side of the line p
// lies on; zero means on the line.
func (l Line) Eval(p Point) float64 {
	return l.A*p.X + l.B*p.Y + l.C
}

// Intersect returns the intersection of l and o. It fails with
// errors.ErrCodeParallelLines when the lines are parallel or identical.
func (l Line) Intersect(o Line) (Point, error) {
	det := l.A*o.B - o.A*l.B
	scale := (math.Abs(l.A) + math.Abs(l.B)) * (math.Abs(o.A) + math.Abs(o.B))
	if math.Abs(det) <= parallelTolerance*scale || scale == 0 {
		return Point{}, errors.New(errors.ErrCodeParallelLines, "lines %v and %v do not intersect", l, o)
	}
	p := Point{
		X:      (l.B*o.C - o.B*l.C) / det,
		Y:      (o.A*l.C - l.A*o.C) / det,
		Weight: 1,
	}
	if !p.Finite() {
		return Point{}, errors.New(errors.ErrCodeParallelLines, "lines %v and %v meet outside float range", l, o)
	}
	return p, nil
}

// Length returns the distance between P1 and P2.
func (l Line) Length() float64 {
	return Distance(l.P1, l.P2)
}

// Cos returns the x component of the unit vector from P2 to P1.
func (l Line) Cos() float64 {
	return (l.P1.X - l.P2.X) / l.Length()
}

// Sin returns the y component of the unit vector from P2 to P1.
func (l Line) Sin() float64 {
	return (l.P1.Y - l.P2.Y) / l.Length()
}

// Parallel reports whether l and o have no single intersection point.
func (l Line) Parallel(o Line) bool {
	_, err := l.Intersect(o)
	return err != nil
}

func (l Line) String() string {
	return fmt.Sprintf("line(%gx + %gy + %g)", l.A, l.B, l.C)
}
