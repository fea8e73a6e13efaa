// Package sink renders a [Map] into output formats.
//
//   - SVG: cells or layered territories, planets, fleets and scores
//   - PNG: the same picture rasterised in-process with golang.org/x/image
//   - JSON: cells, territories and planets for external tools
//   - PDF: the SVG converted with rsvg-convert
//
// Territories are drawn one layer on top of the other, each at opacity
// 1/layers, so inner layers stack into solid colour and the outer ones fade
// out toward the borders. Regions with holes use the even-odd fill rule.
//
//	m := sink.Map{Diagram: d, Layers: layers, State: s, Colors: log.Colors()}
//	svg := sink.RenderSVG(m, sink.WithPlanets(), sink.WithLabels())
//	png, err := sink.RenderPNG(m, sink.WithPNGWidth(1200))
package sink
