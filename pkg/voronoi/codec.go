package voronoi

import (
	"encoding/json"

	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/geom"
)

// diagramJSON is the serialized form of a Diagram. Neighbours are stored by
// cell index and edge, so decoding can rebuild shared points.
type diagramJSON struct {
	Box     geom.BBox  `json:"box"`
	Cells   []cellJSON `json:"cells"`
	Dropped []Site     `json:"dropped,omitempty"`
}

type cellJSON struct {
	Name      string         `json:"name,omitempty"`
	Owner     string         `json:"owner,omitempty"`
	Site      geom.Point     `json:"site"`
	Boundary  []geom.Point   `json:"boundary"`
	Neighbors []neighborJSON `json:"neighbors,omitempty"`
}

type neighborJSON struct {
	Cell int `json:"cell"`
	Edge int `json:"edge"`
}

// MarshalDiagram serializes d to JSON.
func MarshalDiagram(d *Diagram) ([]byte, error) {
	out := diagramJSON{Box: d.Box, Dropped: d.Dropped, Cells: make([]cellJSON, len(d.Cells))}
	for i, c := range d.Cells {
		cj := cellJSON{Name: c.Name, Owner: c.Owner, Site: *c.Site, Boundary: c.Path()}
		for _, nb := range c.Neighbors {
			cj.Neighbors = append(cj.Neighbors, neighborJSON{Cell: nb.Cell.index, Edge: nb.Edge})
		}
		out.Cells[i] = cj
	}
	return json.Marshal(out)
}

// UnmarshalDiagram decodes data produced by MarshalDiagram, interning every
// point in a fresh registry so shared vertices are shared again.
func UnmarshalDiagram(data []byte) (*Diagram, error) {
	var in diagramJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode diagram")
	}
	reg := geom.NewRegistry()
	d := &Diagram{Box: in.Box, Dropped: in.Dropped, Cells: make([]*Cell, len(in.Cells))}
	for i, cj := range in.Cells {
		if len(cj.Boundary)%2 != 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "cell %d has an odd boundary length", i)
		}
		c := &Cell{Name: cj.Name, Owner: cj.Owner, index: i}
		c.Site = reg.InternPoint(cj.Site)
		c.Boundary = make([]*geom.Point, len(cj.Boundary))
		for k, p := range cj.Boundary {
			c.Boundary[k] = reg.Intern(p.X, p.Y)
		}
		d.Cells[i] = c
	}
	for i, cj := range in.Cells {
		c := d.Cells[i]
		for _, nj := range cj.Neighbors {
			if nj.Cell < 0 || nj.Cell >= len(d.Cells) || nj.Edge < 0 || nj.Edge >= c.EdgeCount() {
				return nil, errors.New(errors.ErrCodeInvalidInput, "cell %d has an out of range neighbour", i)
			}
			c.Neighbors = append(c.Neighbors, Neighbor{
				Cell: d.Cells[nj.Cell],
				Edge: nj.Edge,
				P1:   c.Vertex(nj.Edge),
				P2:   c.Vertex(nj.Edge + 1),
			})
		}
	}
	return d, nil
}
