package pipeline

import (
	"fmt"

	"github.com/matzehuels/starmap/pkg/render/adjacency"
	"github.com/matzehuels/starmap/pkg/render/sink"
)

// Render generates output artifacts in the requested formats.
func Render(m sink.Map, opts Options) (map[string][]byte, error) {
	svgOpts := buildSVGOptions(opts)
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(m, svgOpts...)
		case FormatPNG:
			data, err = sink.RenderPNG(m, sink.WithPNGWidth(opts.Width), sink.WithPNGSVGOptions(svgOpts...))
		case FormatPDF:
			data, err = sink.RenderPDF(m, svgOpts...)
		case FormatJSON:
			data, err = sink.RenderJSON(m)
		case FormatDOT:
			data = []byte(adjacency.ToDOT(m.Diagram, adjacency.Options{Colors: m.Colors, Lengths: opts.Labels}))
		case FormatAdjacency:
			data, err = adjacency.RenderSVG(adjacency.ToDOT(m.Diagram, adjacency.Options{Colors: m.Colors, Lengths: opts.Labels}))
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func buildSVGOptions(opts Options) []sink.SVGOption {
	svgOpts := []sink.SVGOption{
		sink.WithStyle(opts.Style),
		sink.WithWidth(float64(opts.Width)),
	}
	if opts.Planets {
		svgOpts = append(svgOpts, sink.WithPlanets())
	}
	if opts.Labels {
		svgOpts = append(svgOpts, sink.WithLabels())
	}
	if opts.Fleets {
		svgOpts = append(svgOpts, sink.WithFleets())
	}
	if opts.Scores {
		svgOpts = append(svgOpts, sink.WithScores())
	}
	if opts.Background != "" {
		svgOpts = append(svgOpts, sink.WithBackground(opts.Background))
	}
	return svgOpts
}
