// Package render turns diagrams and territories into pictures.
//
// The map itself is drawn by the [sink] subpackage (SVG, PNG, JSON and PDF).
// The [adjacency] subpackage draws the cell neighbour graph with Graphviz.
//
// [ToPDF] converts any SVG to PDF using the external rsvg-convert tool from
// librsvg:
//
//	svg := sink.RenderSVG(m)
//	pdf, err := render.ToPDF(svg)
//
// [sink]: github.com/matzehuels/starmap/pkg/render/sink
// [adjacency]: github.com/matzehuels/starmap/pkg/render/adjacency
package render
