// Package turn decodes Planet Wars match logs and derives the layout data
// the renderers need: the view box, planet sizes, player colours and the
// weighted sites fed to the Voronoi builder.
//
// A log holds one state per turn:
//
//	{"turns":[{"players":["a","b"],
//	  "planets":[{"name":"p","x":1,"y":2,"owner":"a","ship_count":6}],
//	  "expeditions":[{"id":1,"origin":"p","destination":"q","owner":"a",
//	                  "ship_count":3,"turns_remaining":2}]}]}
//
// A null owner marks a neutral planet and decodes to the empty string.
package turn
