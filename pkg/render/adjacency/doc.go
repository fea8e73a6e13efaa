// Package adjacency draws the neighbour graph of a Voronoi diagram.
//
// Every cell becomes a node placed at its site, every shared edge an
// undirected link labelled with the edge length. The graph is handy for
// checking which planets border each other.
//
//	dot := adjacency.ToDOT(d, adjacency.Options{Colors: log.Colors()})
//	svg, err := adjacency.RenderSVG(dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering with the neato engine, which honours pinned node positions.
package adjacency
