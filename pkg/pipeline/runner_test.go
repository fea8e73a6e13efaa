package pipeline

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/starmap/pkg/cache"
	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/geom"
	"github.com/matzehuels/starmap/pkg/observability"
	"github.com/matzehuels/starmap/pkg/voronoi"
)

const match = `{"turns":[
 {"players":["alice","bob"],
  "planets":[
   {"name":"a","x":0,"y":0,"owner":"alice","ship_count":10},
   {"name":"b","x":20,"y":0,"owner":"bob","ship_count":4},
   {"name":"c","x":10,"y":15,"owner":null,"ship_count":2},
   {"name":"d","x":10,"y":-15,"owner":"alice","ship_count":7}]},
 {"players":["alice","bob"],
  "planets":[
   {"name":"a","x":0,"y":0,"owner":"alice","ship_count":3},
   {"name":"b","x":20,"y":0,"owner":"bob","ship_count":5},
   {"name":"c","x":10,"y":15,"owner":"alice","ship_count":1},
   {"name":"d","x":10,"y":-15,"owner":"alice","ship_count":9}]}
]}`

func newRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil)
}

func TestExecuteLog(t *testing.T) {
	r := newRunner(t)
	defer r.Close()

	res, err := r.Execute(context.Background(), Options{
		Log:     []byte(match),
		Turn:    -1,
		Formats: []string{FormatSVG, FormatJSON, FormatDOT},
		Planets: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.ID == "" || res.Turn != 1 {
		t.Errorf("ID %q turn %d", res.ID, res.Turn)
	}
	if res.Stats.Cells != 4 || res.Stats.Sites != 4 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if len(res.Layers) != DefaultLayers {
		t.Errorf("layers = %d, want %d", len(res.Layers), DefaultLayers)
	}
	svg := string(res.Artifacts[FormatSVG])
	if !strings.Contains(svg, `class="planet changed" id="planet-c"`) {
		t.Error("planet c changed owner in the last turn")
	}
	if !bytes.HasPrefix(res.Artifacts[FormatDOT], []byte("graph G {")) {
		t.Error("dot artifact missing")
	}
	if res.CacheInfo.BuildHit || res.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}
}

func TestExecuteCaches(t *testing.T) {
	r := newRunner(t)
	ctx := context.Background()
	opts := Options{Log: []byte(match), Formats: []string{FormatSVG}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.BuildHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run cache info = %+v", second.CacheInfo)
	}
	if second.Layers != nil {
		t.Error("a full render hit should skip merging")
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], second.Artifacts[FormatSVG]) {
		t.Error("cached svg differs")
	}
	if first.DiagramHash != second.DiagramHash {
		t.Error("cached diagram hashes differently")
	}

	// Another turn has other ship counts, so the artifact must not be reused.
	opts.Turn = 1
	opts.Labels = true
	opts.Planets = true
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.RenderHit {
		t.Error("different turn should not hit the artifact cache")
	}

	opts.Refresh = true
	fourth, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if fourth.CacheInfo.BuildHit || fourth.CacheInfo.RenderHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestExecuteSites(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Sites: []voronoi.Site{
			{Name: "w", Owner: "red", X: -1, Y: 0},
			{Name: "e", Owner: "red", X: 1, Y: 0},
		},
		Box:     &geom.BBox{MinX: -2, MinY: -2, MaxX: 2, MaxY: 2},
		Layers:  2,
		Formats: []string{FormatJSON},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Layers) != 2 || len(res.Layers[0]) != 1 {
		t.Fatalf("layer 0 should hold one fused region, got %v", res.Layers)
	}
	if res.Stats.Regions < 2 {
		t.Errorf("regions = %d", res.Stats.Regions)
	}
}

func TestExecuteCellsSkipsMerge(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Log:     []byte(match),
		Style:   "cells",
		Formats: []string{FormatSVG},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Layers != nil {
		t.Error("cells style should not trace territories")
	}
	if got := strings.Count(string(res.Artifacts[FormatSVG]), `class="cell"`); got != 4 {
		t.Errorf("cells drawn = %d, want 4", got)
	}
}

func TestExecuteErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()

	_, err := r.Execute(ctx, Options{Log: []byte(match), Turn: 5})
	if !errors.Is(err, errors.ErrCodeInvalidTurn) {
		t.Errorf("bad turn err = %v", err)
	}
	_, err = r.Execute(ctx, Options{
		Sites: []voronoi.Site{{Name: "x", X: 50, Y: 50}},
		Box:   &geom.BBox{MaxX: 10, MaxY: 10},
	})
	if !errors.Is(err, errors.ErrCodeInvalidSite) {
		t.Errorf("site outside box err = %v", err)
	}
	if _, err := r.Execute(ctx, Options{}); err == nil {
		t.Error("missing input should fail")
	}
}

func TestDecodeSitesExtent(t *testing.T) {
	in, err := Decode(Options{Sites: []voronoi.Site{
		{Name: "a", Owner: "x", X: 0, Y: 0},
		{Name: "b", Owner: "y", X: 10, Y: 4},
	}})
	if err != nil {
		t.Fatal(err)
	}
	want := geom.BBox{MinX: -5, MinY: -5, MaxX: 15, MaxY: 9}
	if in.Box != want {
		t.Errorf("Box = %+v, want %+v", in.Box, want)
	}
	if in.Colors.Get("x") == in.Colors.Get("y") {
		t.Error("owners should get distinct colours")
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	builds, merges, renders atomic.Int32
}

func (h *countingHooks) OnBuildComplete(context.Context, int, time.Duration, error) { h.builds.Add(1) }
func (h *countingHooks) OnMergeComplete(context.Context, int, time.Duration, error) { h.merges.Add(1) }
func (h *countingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.renders.Add(1)
}

func TestExecuteEmitsHooks(t *testing.T) {
	h := &countingHooks{}
	observability.SetPipelineHooks(h)
	defer observability.Reset()

	r := NewRunner(nil, nil, nil)
	if _, err := r.Execute(context.Background(), Options{Log: []byte(match)}); err != nil {
		t.Fatal(err)
	}
	if h.builds.Load() != 1 || h.merges.Load() != 1 || h.renders.Load() != 1 {
		t.Errorf("hooks fired build=%d merge=%d render=%d", h.builds.Load(), h.merges.Load(), h.renders.Load())
	}
}
