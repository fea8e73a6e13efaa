package geom_test

import (
	"fmt"

	"github.com/matzehuels/starmap/pkg/geom"
)

func ExampleRegistry_Intern() {
	reg := geom.NewRegistry()
	a := reg.Intern(1, 2)
	b := reg.Intern(1+1e-15, 2)
	fmt.Println(a == b, reg.Len())
	// Output: true 1
}

func ExampleNewBisector() {
	heavy := geom.Point{X: 0, Y: 0, Weight: 3}
	light := geom.Point{X: 4, Y: 0, Weight: 1}
	b := geom.NewBisector(heavy, light)
	fmt.Println(b.Middle)
	// Output: (3, 0)
}
