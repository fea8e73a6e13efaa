// Package pkg provides the libraries behind starmap, a territory map renderer
// for Planet Wars matches.
//
// # Overview
//
// Starmap splits the board of a turn into additively weighted Voronoi cells,
// one per planet, and fuses neighbouring cells of the same player into
// territories drawn at several shrinking layers. The pkg directory holds:
//
//  1. [geom] - Geometry kernel, interned points, lines and boxes
//  2. [voronoi] - Weighted Voronoi construction by boundary walks
//  3. [merge] - Territory tracing across fused same-owner seams
//  4. [turn] - Match log decoding, view boxes, colours and scores
//  5. [pipeline] - Orchestration (decode → build → merge → render) with caching
//  6. [render] - SVG, PNG, PDF, JSON and adjacency graph output
//  7. [cache] - File, Redis and MongoDB caches behind one interface
//  8. [errors] - Coded errors shared by every layer
//  9. [observability] - Hooks for pipeline, cache and HTTP events
//
// # Architecture
//
//	Match log (JSON)
//	       ↓
//	  [turn] package (pick a turn, sites, view box)
//	       ↓
//	  [voronoi] package (one convex cell per planet)
//	       ↓
//	  [merge] package (territory rings per layer)
//	       ↓
//	  [render/sink] package
//	       ↓
//	  SVG/PNG/PDF/JSON output
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Log:     data,
//	    Turn:    -1,
//	    Formats: []string{"svg"},
//	    Planets: true,
//	})
//	os.WriteFile("map.svg", result.Artifacts["svg"], 0o644)
//
// [geom]: github.com/matzehuels/starmap/pkg/geom
// [voronoi]: github.com/matzehuels/starmap/pkg/voronoi
// [merge]: github.com/matzehuels/starmap/pkg/merge
// [turn]: github.com/matzehuels/starmap/pkg/turn
// [pipeline]: github.com/matzehuels/starmap/pkg/pipeline
// [render]: github.com/matzehuels/starmap/pkg/render
// [render/sink]: github.com/matzehuels/starmap/pkg/render/sink
// [cache]: github.com/matzehuels/starmap/pkg/cache
// [errors]: github.com/matzehuels/starmap/pkg/errors
// [observability]: github.com/matzehuels/starmap/pkg/observability
package pkg
