package voronoi

import (
	"math"

	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/geom"
)

// Site is a weighted, owned input location. An empty Owner marks a neutral
// site; neutral cells never fuse with anything.
type Site struct {
	Name   string  `json:"name"`
	Owner  string  `json:"owner,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Weight float64 `json:"weight,omitempty"`
}

// Point returns the site location carrying its weight.
func (s Site) Point() geom.Point {
	return geom.Point{X: s.X, Y: s.Y, Weight: s.Weight}
}

// normalize resolves the default weight. Missing, zero, negative and NaN
// weights all become 1.
func (s Site) normalize() Site {
	if !(s.Weight > 0) {
		s.Weight = 1
	}
	return s
}

func (s Site) validate(box geom.BBox) error {
	if err := errors.ValidateCoordinate("site "+s.label()+" x", s.X); err != nil {
		return err
	}
	if err := errors.ValidateCoordinate("site "+s.label()+" y", s.Y); err != nil {
		return err
	}
	if math.IsInf(s.Weight, 0) {
		return errors.New(errors.ErrCodeInvalidSite, "site %s has infinite weight", s.label())
	}
	if !box.Contains(s.Point()) {
		return errors.New(errors.ErrCodeInvalidSite, "site %s at %v lies outside the bounding box", s.label(), s.Point())
	}
	return nil
}

func (s Site) label() string {
	if s.Name == "" {
		return "<unnamed>"
	}
	return `"` + s.Name + `"`
}
