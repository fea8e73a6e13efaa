package pipeline

import (
	"encoding/json"
	"math"

	"github.com/matzehuels/starmap/pkg/cache"
	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/geom"
	"github.com/matzehuels/starmap/pkg/turn"
	"github.com/matzehuels/starmap/pkg/voronoi"
)

// Input is the decoded, turn-resolved input of one run.
type Input struct {
	// Hash addresses the raw input in cache keys.
	Hash string

	// Turn is the resolved turn index.
	Turn int

	// State is the board at Turn; nil for raw sites.
	State *turn.State

	Sites   []voronoi.Site
	Box     geom.BBox
	Colors  turn.ColorMap
	Changed []string
}

// Decode resolves the input of opts: it parses the match log and picks the
// turn, or takes raw sites as they are. Without an explicit box, logs use the
// view box of the turn and raw sites their padded extent.
func Decode(opts Options) (*Input, error) {
	if len(opts.Sites) > 0 {
		return decodeSites(opts)
	}

	l, err := turn.Parse(opts.Log)
	if err != nil {
		return nil, err
	}
	s, err := l.Turn(opts.Turn)
	if err != nil {
		return nil, err
	}
	idx := opts.Turn
	if idx < 0 {
		idx += l.Len()
	}
	changed, err := l.ChangedOwners(idx)
	if err != nil {
		return nil, err
	}

	in := &Input{
		Hash:    inputHash(opts.Log, opts.Box),
		Turn:    idx,
		State:   s,
		Sites:   s.Sites(turn.WeightBy(opts.WeightBy)),
		Box:     s.ViewBox(),
		Colors:  l.Colors(),
		Changed: changed,
	}
	if opts.Box != nil {
		in.Box = *opts.Box
	}
	return in, nil
}

func decodeSites(opts Options) (*Input, error) {
	raw, err := json.Marshal(opts.Sites)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "encode sites")
	}
	in := &Input{
		Hash:   inputHash(raw, opts.Box),
		Sites:  opts.Sites,
		Colors: siteColors(opts.Sites),
	}
	if opts.Box != nil {
		in.Box = *opts.Box
	} else {
		in.Box = extent(opts.Sites)
	}
	return in, nil
}

// extent returns the bounding box of sites grown by the planet padding.
func extent(sites []voronoi.Site) geom.BBox {
	b := geom.BBox{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for _, s := range sites {
		b.MinX = math.Min(b.MinX, s.X)
		b.MinY = math.Min(b.MinY, s.Y)
		b.MaxX = math.Max(b.MaxX, s.X)
		b.MaxY = math.Max(b.MaxY, s.Y)
	}
	return b.Expand(turn.Padding)
}

// siteColors assigns palette colours to owners in order of appearance.
func siteColors(sites []voronoi.Site) turn.ColorMap {
	l := turn.Log{Turns: []turn.State{{}}}
	seen := make(map[string]bool)
	for _, s := range sites {
		if s.Owner != "" && !seen[s.Owner] {
			seen[s.Owner] = true
			l.Turns[0].Players = append(l.Turns[0].Players, s.Owner)
		}
	}
	return l.Colors()
}

func inputHash(data []byte, box *geom.BBox) string {
	if box == nil {
		return cache.Hash(data)
	}
	b, _ := json.Marshal(box)
	return cache.Hash(append(append([]byte{}, data...), b...))
}
