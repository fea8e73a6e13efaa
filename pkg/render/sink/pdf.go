package sink

import "github.com/matzehuels/starmap/pkg/render"

// RenderPDF renders m as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(m Map, opts ...SVGOption) ([]byte, error) {
	return render.ToPDF(RenderSVG(m, opts...))
}
