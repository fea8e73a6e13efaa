package sink

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/geom"
	"github.com/matzehuels/starmap/pkg/merge"
	"github.com/matzehuels/starmap/pkg/turn"
	"github.com/matzehuels/starmap/pkg/voronoi"
)

// Map is everything drawn for one turn. Layers may be empty when only cells
// are drawn; State may be nil when there is no match log behind the diagram.
type Map struct {
	Diagram *voronoi.Diagram
	Layers  [][]merge.Region
	State   *turn.State
	Colors  turn.ColorMap
	Changed []string
}

// Drawing styles.
const (
	StyleTerritories = "territories"
	StyleCells       = "cells"
)

// ValidateStyle checks that s names a drawing style.
func ValidateStyle(s string) error {
	switch s {
	case "", StyleTerritories, StyleCells:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidStyle, "unknown style %q (want %s or %s)", s, StyleTerritories, StyleCells)
}

// Box returns the drawn area.
func (m Map) Box() geom.BBox {
	if m.Diagram == nil {
		return geom.BBox{MaxX: 1, MaxY: 1}
	}
	return m.Diagram.Box
}

func (m Map) color(owner string) string { return m.Colors.Get(owner) }

func (m Map) changed(name string) bool { return slices.Contains(m.Changed, name) }

// Path returns SVG path data for a closed ring: "M x,y L x,y ... Z".
func Path(ring []geom.Point) string {
	if len(ring) == 0 {
		return ""
	}
	parts := make([]string, len(ring))
	for i, p := range ring {
		parts[i] = num(p.X) + "," + num(p.Y)
	}
	return "M" + strings.Join(parts, "L") + "Z"
}

// RegionPath joins the rings of a region into one path.
func RegionPath(r merge.Region) string {
	var sb strings.Builder
	for _, ring := range r.Rings {
		sb.WriteString(Path(ring))
	}
	return sb.String()
}

func num(v float64) string {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
