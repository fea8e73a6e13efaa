// Package voronoi builds additively weighted Voronoi diagrams clipped to a
// bounding box.
//
// Every site owns the convex region of points that lie on its side of all
// weighted bisectors with the other sites. A bisector between two sites is
// perpendicular to the segment joining them and passes through their
// weighted middle (see [geom.WeightedMiddle]); a heavier site pushes its
// bisectors away and claims more territory.
//
// # Construction
//
// [Build] collects, for every site, the four box edges plus one bisector per
// other site, and then walks the cell boundary clockwise: starting on the
// closest constraint it repeatedly moves to the nearest line that the walk
// would otherwise cross, until it is back on the line it started from. The
// walk is capped so numerical drift cannot make it loop forever.
//
// # Cells
//
// A [Cell] boundary interleaves true polygon vertices (even indices) with one
// point inside each edge (odd indices). Edges that separate two sites record
// a [Neighbor] on both sides, which is what the merge package walks to fuse
// same-owner cells.
//
//	d, err := voronoi.Build(sites, geom.BBox{MaxX: 100, MaxY: 100})
//	for _, c := range d.Cells {
//	    fmt.Println(c.Name, c.Area(), len(c.Neighbors))
//	}
package voronoi
