package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/starmap/pkg/cache"
	"github.com/matzehuels/starmap/pkg/merge"
	"github.com/matzehuels/starmap/pkg/observability"
	"github.com/matzehuels/starmap/pkg/render/sink"
	"github.com/matzehuels/starmap/pkg/voronoi"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching behaves the same everywhere.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete decode → build → merge → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		ID:        uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}
	logger := opts.Logger.With("run", result.ID[:8])

	// Stage 1: Decode
	in, err := Decode(opts)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	result.Turn = in.Turn
	result.Stats.Sites = len(in.Sites)

	// Stage 2: Build
	buildStart := time.Now()
	d, buildHit, err := r.BuildWithCacheInfo(ctx, in, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Diagram = d
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.Cells = len(d.Cells)
	result.Stats.Dropped = len(d.Dropped)
	result.CacheInfo.BuildHit = buildHit
	if data, err := voronoi.MarshalDiagram(d); err == nil {
		result.DiagramHash = cache.Hash(data)
	}

	logger.Info("built diagram",
		"turn", in.Turn,
		"cells", len(d.Cells),
		"dropped", len(d.Dropped),
		"cached", buildHit,
		"duration", result.Stats.BuildTime)

	// Artifacts also depend on the board drawn over the diagram.
	renderHash := ""
	if result.DiagramHash != "" {
		renderHash = cache.Hash([]byte(fmt.Sprintf("%s:%s:%d", result.DiagramHash, in.Hash, in.Turn)))
	}

	// Every artifact cached: nothing left to trace or draw.
	if artifacts, ok := r.cachedArtifacts(ctx, renderHash, opts); ok {
		result.Artifacts = artifacts
		result.CacheInfo.RenderHit = true
		logger.Info("rendered outputs", "formats", opts.Formats, "cached", true)
		return result, nil
	}

	// Stage 3: Merge
	if opts.NeedsMerge() {
		mergeStart := time.Now()
		layers, err := r.Merge(ctx, d, opts)
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		result.Layers = layers
		result.Stats.MergeTime = time.Since(mergeStart)
		for _, regions := range layers {
			result.Stats.Regions += len(regions)
		}
		logger.Info("traced territories",
			"layers", len(layers),
			"regions", result.Stats.Regions,
			"duration", result.Stats.MergeTime)
	}

	// Stage 4: Render
	renderStart := time.Now()
	m := sink.Map{Diagram: d, Layers: result.Layers, State: in.State, Colors: in.Colors, Changed: in.Changed}
	artifacts, _, err := r.RenderWithCacheInfo(ctx, m, renderHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// BuildWithCacheInfo builds the diagram of in with caching and returns cache
// hit info.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, in *Input, opts Options) (*voronoi.Diagram, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForBuild(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.DiagramKey(in.Hash, opts.DiagramKeyOpts(in.Turn))

	if !opts.Refresh {
		if data, hit := r.get(ctx, "diagram", cacheKey); hit {
			d, err := voronoi.UnmarshalDiagram(data)
			if err == nil {
				return d, true, nil
			}
			opts.Logger.Debug("discarding unreadable cached diagram", "error", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, len(in.Sites))
	start := time.Now()
	d, err := voronoi.Build(in.Sites, in.Box,
		voronoi.WithLogger(opts.Logger),
		voronoi.WithWorkers(opts.Workers),
	)
	cells := 0
	if d != nil {
		cells = len(d.Cells)
	}
	hooks.OnBuildComplete(ctx, cells, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if data, err := voronoi.MarshalDiagram(d); err == nil {
		r.set(ctx, "diagram", cacheKey, data, cache.TTLDiagram)
	}
	return d, false, nil
}

// Build is a convenience wrapper that calls BuildWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Build(ctx context.Context, in *Input, opts Options) (*voronoi.Diagram, error) {
	d, _, err := r.BuildWithCacheInfo(ctx, in, opts)
	return d, err
}

// Merge traces territories at every layer.
func (r *Runner) Merge(ctx context.Context, d *voronoi.Diagram, opts Options) ([][]merge.Region, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForMerge(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnMergeStart(ctx, opts.Layers)
	start := time.Now()
	e := merge.New(d,
		merge.WithLayers(opts.Layers),
		merge.WithRadius(opts.Radius),
		merge.WithFusionThreshold(*opts.Threshold),
		merge.WithLogger(opts.Logger),
	)
	layers, err := e.Layers()
	regions := 0
	for _, l := range layers {
		regions += len(l)
	}
	hooks.OnMergeComplete(ctx, regions, time.Since(start), err)
	return layers, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit
// info. renderHash addresses the artifacts; an empty hash bypasses the
// cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, m sink.Map, renderHash string, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	if err := opts.ValidateForMerge(); err != nil {
		return nil, false, err
	}

	if artifacts, ok := r.cachedArtifacts(ctx, renderHash, opts); ok {
		return artifacts, true, nil
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(m, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if renderHash != "" {
		for format, data := range rendered {
			r.set(ctx, "artifact", r.Keyer.ArtifactKey(renderHash, opts.ArtifactKeyOpts(format)), data, cache.TTLArtifact)
		}
	}
	return rendered, false, nil
}

// cachedArtifacts returns every requested format from the cache, or false if
// any one is missing.
func (r *Runner) cachedArtifacts(ctx context.Context, renderHash string, opts Options) (map[string][]byte, bool) {
	if renderHash == "" || opts.Refresh {
		return nil, false
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, hit := r.get(ctx, "artifact", r.Keyer.ArtifactKey(renderHash, opts.ArtifactKeyOpts(format)))
		if !hit {
			return nil, false
		}
		artifacts[format] = data
	}
	return artifacts, len(artifacts) > 0
}

func (r *Runner) get(ctx context.Context, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "type", keyType, "error", err)
		hit = false
	}
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
	return data, hit
}

func (r *Runner) set(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
