// Package geom provides the planar primitives used to build weighted
// territory maps: a handful of scalar helpers, interned points, implicit
// lines and axis-aligned bounding boxes.
//
// # Conventions
//
// Coordinates are y-up. A boundary traversed so that every consecutive
// triple turns right (see [TurningRight]) is clockwise, which is the
// orientation produced by the voronoi package.
//
// # Interning
//
// Points produced while building a diagram go through a [Registry] so that
// two computations landing on the same location within [Epsilon] yield the
// same *Point. Pointer equality then stands in for coordinate equality
// inside one pass:
//
//	reg := geom.NewRegistry()
//	a := reg.Intern(1, 2)
//	b := reg.Intern(1+1e-15, 2)
//	fmt.Println(a == b) // true
//
// Registries are not shared between passes; call [Registry.Reset] or create
// a new one per build.
package geom
