package sink

import (
	"encoding/json"

	"github.com/matzehuels/starmap/pkg/geom"
	"github.com/matzehuels/starmap/pkg/merge"
	"github.com/matzehuels/starmap/pkg/turn"
)

type jsonOutput struct {
	Box     geom.BBox        `json:"box"`
	Cells   []jsonCell       `json:"cells"`
	Layers  [][]merge.Region `json:"layers,omitempty"`
	Planets []jsonPlanet     `json:"planets,omitempty"`
	Scores  []turn.Score     `json:"scores,omitempty"`
	Colors  turn.ColorMap    `json:"colors,omitempty"`
}

type jsonCell struct {
	Name      string       `json:"name"`
	Owner     string       `json:"owner,omitempty"`
	Site      geom.Point   `json:"site"`
	Polygon   []geom.Point `json:"polygon"`
	Area      float64      `json:"area"`
	Neighbors []string     `json:"neighbors,omitempty"`
}

type jsonPlanet struct {
	turn.Planet
	Size    float64 `json:"size"`
	Changed bool    `json:"changed,omitempty"`
}

// RenderJSON exports the map for external tools.
func RenderJSON(m Map) ([]byte, error) {
	out := jsonOutput{Box: m.Box(), Layers: m.Layers, Colors: m.Colors}
	if m.Diagram != nil {
		out.Cells = make([]jsonCell, len(m.Diagram.Cells))
		for i, c := range m.Diagram.Cells {
			jc := jsonCell{
				Name:    c.Name,
				Owner:   c.Owner,
				Site:    *c.Site,
				Polygon: c.Polygon(),
				Area:    c.Area(),
			}
			for _, nb := range c.Neighbors {
				jc.Neighbors = append(jc.Neighbors, nb.Cell.Name)
			}
			out.Cells[i] = jc
		}
	}
	if m.State != nil {
		sizes := m.State.PlanetSizes()
		for _, p := range m.State.Planets {
			out.Planets = append(out.Planets, jsonPlanet{Planet: p, Size: sizes[p.Name], Changed: m.changed(p.Name)})
		}
		out.Scores = m.State.Scores()
	}
	return json.MarshalIndent(out, "", "  ")
}
