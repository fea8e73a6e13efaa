package sink

import (
	"bytes"
	"fmt"
	"html"
)

const mapCSS = `
    .cell { stroke: #fff; stroke-width: 0.1; }
    .planet { stroke: #fff; stroke-width: 0.2; }
    .planet.changed { stroke: #ff0; stroke-width: 0.5; }
    .label { font-family: sans-serif; text-anchor: middle; fill: #fff; pointer-events: none; }
    .fleet { stroke: #fff; stroke-width: 0.1; }`

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style      string
	width      float64
	planets    bool
	labels     bool
	fleets     bool
	scores     bool
	background string
}

// WithStyle selects StyleTerritories (default) or StyleCells.
func WithStyle(s string) SVGOption { return func(r *svgRenderer) { r.style = s } }

// WithWidth sets the width attribute in pixels; the height follows the
// aspect ratio of the map.
func WithWidth(w float64) SVGOption { return func(r *svgRenderer) { r.width = w } }

// WithPlanets draws planets on top of the map.
func WithPlanets() SVGOption { return func(r *svgRenderer) { r.planets = true } }

// WithLabels writes ship counts on the planets.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// WithFleets draws expeditions in flight.
func WithFleets() SVGOption { return func(r *svgRenderer) { r.fleets = true } }

// WithScores adds a score line per player in the top left corner.
func WithScores() SVGOption { return func(r *svgRenderer) { r.scores = true } }

// WithBackground sets the background colour.
func WithBackground(c string) SVGOption { return func(r *svgRenderer) { r.background = c } }

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{style: StyleTerritories, width: 800, background: "#111"}
	for _, opt := range opts {
		opt(&r)
	}
	if r.style == "" {
		r.style = StyleTerritories
	}
	return r
}

// RenderSVG draws m as SVG in map coordinates.
func RenderSVG(m Map, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	box := m.Box()
	height := r.width * box.Height() / box.Width()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f">`+"\n",
		num(box.MinX), num(box.MinY), num(box.Width()), num(box.Height()), r.width, height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", mapCSS)
	fmt.Fprintf(&buf, `  <rect class="background" x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
		num(box.MinX), num(box.MinY), num(box.Width()), num(box.Height()), html.EscapeString(r.background))

	if r.style == StyleCells || len(m.Layers) == 0 {
		renderCells(&buf, m)
	} else {
		renderTerritories(&buf, m)
	}
	if m.State != nil {
		if r.fleets {
			renderFleets(&buf, m)
		}
		if r.planets {
			renderPlanets(&buf, m, r.labels)
		}
		if r.scores {
			renderScores(&buf, m)
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderCells(buf *bytes.Buffer, m Map) {
	if m.Diagram == nil {
		return
	}
	buf.WriteString(`  <g class="cells">` + "\n")
	for _, c := range m.Diagram.Cells {
		fmt.Fprintf(buf, `    <path class="cell" id="cell-%s" fill="%s" d="%s"/>`+"\n",
			html.EscapeString(c.Name), m.color(c.Owner), Path(c.Polygon()))
	}
	buf.WriteString("  </g>\n")
}

func renderTerritories(buf *bytes.Buffer, m Map) {
	opacity := 1 / float64(len(m.Layers))
	fmt.Fprintf(buf, `  <g class="territories" fill-rule="evenodd" opacity="%s">`+"\n", num(opacity))
	for i, regions := range m.Layers {
		fmt.Fprintf(buf, `    <g class="layer" data-layer="%d">`+"\n", i)
		for _, reg := range regions {
			if reg.Owner == "" {
				continue
			}
			fmt.Fprintf(buf, `      <path class="region" data-owner="%s" fill="%s" d="%s"/>`+"\n",
				html.EscapeString(reg.Owner), m.color(reg.Owner), RegionPath(reg))
		}
		buf.WriteString("    </g>\n")
	}
	buf.WriteString("  </g>\n")
}

func renderPlanets(buf *bytes.Buffer, m Map, labels bool) {
	sizes := m.State.PlanetSizes()
	buf.WriteString(`  <g class="planets">` + "\n")
	for _, p := range m.State.Planets {
		class := "planet"
		if m.changed(p.Name) {
			class += " changed"
		}
		fmt.Fprintf(buf, `    <circle class="%s" id="planet-%s" cx="%s" cy="%s" r="%s" fill="%s"/>`+"\n",
			class, html.EscapeString(p.Name), num(p.X), num(p.Y), num(sizes[p.Name]), m.color(p.Owner))
		if labels {
			size := sizes[p.Name]
			fmt.Fprintf(buf, `    <text class="label" x="%s" y="%s" font-size="%s">%d</text>`+"\n",
				num(p.X), num(p.Y+size*0.35), num(size), p.ShipCount)
		}
	}
	buf.WriteString("  </g>\n")
}

func renderFleets(buf *bytes.Buffer, m Map) {
	buf.WriteString(`  <g class="fleets">` + "\n")
	for _, e := range m.State.Expeditions {
		pos, ok := m.State.Position(e)
		if !ok {
			continue
		}
		fmt.Fprintf(buf, `    <circle class="fleet" data-id="%d" cx="%s" cy="%s" r="0.6" fill="%s"/>`+"\n",
			e.ID, num(pos.X), num(pos.Y), m.color(e.Owner))
	}
	buf.WriteString("  </g>\n")
}

func renderScores(buf *bytes.Buffer, m Map) {
	box := m.Box()
	line := box.Height() / 30
	buf.WriteString(`  <g class="scores">` + "\n")
	for i, s := range m.State.Scores() {
		fmt.Fprintf(buf, `    <text x="%s" y="%s" font-size="%s" font-family="sans-serif" fill="%s">%s: %d planets, %d ships</text>`+"\n",
			num(box.MinX+line/2), num(box.MinY+line*float64(i+1)), num(line*0.8), m.color(s.Player),
			html.EscapeString(s.Player), s.Planets, s.Ships)
	}
	buf.WriteString("  </g>\n")
}
