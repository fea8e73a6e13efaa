package geom

import "github.com/matzehuels/starmap/pkg/errors"

// BBox is an axis-aligned rectangle.
type BBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// NewBBox returns the box spanning (minX, minY) to (maxX, maxY).
func NewBBox(minX, minY, maxX, maxY float64) (BBox, error) {
	b := BBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	return b, b.Validate()
}

// Validate checks that the box has a positive, finite extent.
func (b BBox) Validate() error {
	if !Pt(b.MinX, b.MinY).Finite() || !Pt(b.MaxX, b.MaxY).Finite() {
		return errors.New(errors.ErrCodeInvalidBox, "bounding box has non-finite bounds")
	}
	if b.MaxX <= b.MinX || b.MaxY <= b.MinY {
		return errors.New(errors.ErrCodeInvalidBox, "bounding box [%g,%g]x[%g,%g] is empty", b.MinX, b.MaxX, b.MinY, b.MaxY)
	}
	return nil
}

// Width returns MaxX - MinX.
func (b BBox) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b BBox) Height() float64 { return b.MaxY - b.MinY }

// Area returns Width * Height.
func (b BBox) Area() float64 { return b.Width() * b.Height() }

// Contains reports whether p lies strictly inside the box.
func (b BBox) Contains(p Point) bool {
	return p.X > b.MinX && p.X < b.MaxX && p.Y > b.MinY && p.Y < b.MaxY
}

// Corners returns the four corners in clockwise order starting at
// (MinX, MinY).
func (b BBox) Corners() [4]Point {
	return [4]Point{
		Pt(b.MinX, b.MinY),
		Pt(b.MinX, b.MaxY),
		Pt(b.MaxX, b.MaxY),
		Pt(b.MaxX, b.MinY),
	}
}

// Lines returns the four box edges as plain lines, in the same order as
// Corners: left, top, right, bottom.
func (b BBox) Lines() [4]Line {
	c := b.Corners()
	return [4]Line{
		NewLine(c[0], c[1]),
		NewLine(c[1], c[2]),
		NewLine(c[2], c[3]),
		NewLine(c[3], c[0]),
	}
}

// Expand returns the box grown by pad on every side.
func (b BBox) Expand(pad float64) BBox {
	return BBox{MinX: b.MinX - pad, MinY: b.MinY - pad, MaxX: b.MaxX + pad, MaxY: b.MaxY + pad}
}
