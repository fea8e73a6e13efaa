package adjacency

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/starmap/pkg/render"
	"github.com/matzehuels/starmap/pkg/turn"
	"github.com/matzehuels/starmap/pkg/voronoi"
)

// Options configures adjacency graph rendering.
type Options struct {
	// Colors fills nodes by owner. Nil leaves nodes white.
	Colors turn.ColorMap

	// Lengths labels each link with the shared edge length.
	Lengths bool

	// Scale converts map units to inches for node positions. Zero means 0.25.
	Scale float64
}

// ToDOT converts the neighbour graph of d to Graphviz DOT. Node positions
// are pinned to the sites, flipped so the picture matches the SVG map.
func ToDOT(d *voronoi.Diagram, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = 0.25
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=10, width=0.3, fixedsize=false];\n")
	buf.WriteString("  edge [fontsize=8, color=\"#888888\"];\n")
	buf.WriteString("\n")

	for _, c := range d.Cells {
		attrs := fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(c.Site.X*scale), fmtFloat(-c.Site.Y*scale))
		if opts.Colors != nil {
			attrs += fmt.Sprintf(", fillcolor=%q, fontcolor=white", opts.Colors.Get(c.Owner))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", c.Name, attrs)
	}

	buf.WriteString("\n")
	for _, a := range d.Adjacencies() {
		if opts.Lengths {
			fmt.Fprintf(&buf, "  %q -- %q [label=%q];\n", a.A.Name, a.B.Name, fmtFloat(a.Length))
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q;\n", a.A.Name, a.B.Name)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// RenderSVG lays out a DOT graph with neato and renders it to SVG.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized root element with one
// that scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}
