// Package pipeline runs the decode → build → merge → render pipeline shared
// by the CLI and the HTTP API.
//
// # Architecture
//
//  1. Decode: read a match log and pick a turn, or take raw sites and a box
//  2. Build: compute the weighted Voronoi diagram of the sites
//  3. Merge: trace owner territories at every layer
//  4. Render: produce SVG, PNG, PDF, JSON or the adjacency graph
//
// Built diagrams and rendered artifacts are cached; a cache hit on every
// requested artifact skips the merge stage altogether.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Log:     data,
//	    Turn:    -1,
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/starmap/pkg/cache"
	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/geom"
	"github.com/matzehuels/starmap/pkg/merge"
	"github.com/matzehuels/starmap/pkg/render/sink"
	"github.com/matzehuels/starmap/pkg/turn"
	"github.com/matzehuels/starmap/pkg/voronoi"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultLayers is the number of territory layers.
	DefaultLayers = merge.DefaultLayers

	// DefaultRadius is how far boundary points shrink at the innermost layer.
	DefaultRadius = merge.DefaultRadius

	// DefaultThreshold is the fusion test factor.
	DefaultThreshold = merge.DefaultFusionThreshold

	// DefaultWidth is the default image width in pixels.
	DefaultWidth = 800

	// DefaultWorkers is the number of parallel boundary walks.
	DefaultWorkers = 4

	// DefaultStyle is the default drawing style.
	DefaultStyle = sink.StyleTerritories

	// DefaultWeightBy is the default planet weighting.
	DefaultWeightBy = turn.WeightUnit

	// MaxLayers bounds Layers for API callers.
	MaxLayers = 64

	// MaxWidth bounds Width for API callers.
	MaxWidth = 8192
)

// Format constants for output formats.
const (
	FormatSVG       = "svg"
	FormatPNG       = "png"
	FormatPDF       = "pdf"
	FormatJSON      = "json"
	FormatDOT       = "dot"
	FormatAdjacency = "adjacency"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:       true,
	FormatPNG:       true,
	FormatPDF:       true,
	FormatJSON:      true,
	FormatDOT:       true,
	FormatAdjacency: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Input: a match log, or sites with an optional box
	Log   []byte         `json:"log,omitempty"`
	Sites []voronoi.Site `json:"sites,omitempty"`
	Box   *geom.BBox     `json:"box,omitempty"`

	// Build options
	Turn     int    `json:"turn"` // negative counts from the last turn
	WeightBy string `json:"weight_by,omitempty"`
	Workers  int    `json:"workers,omitempty"`
	Refresh  bool   `json:"refresh,omitempty"`

	// Merge options
	Layers    int      `json:"layers,omitempty"`
	Radius    float64  `json:"radius,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"` // nil means DefaultThreshold; 0 disables fusion

	// Render options
	Formats    []string `json:"formats,omitempty"`
	Style      string   `json:"style,omitempty"`
	Width      int      `json:"width,omitempty"`
	Planets    bool     `json:"planets,omitempty"`
	Labels     bool     `json:"labels,omitempty"`
	Fleets     bool     `json:"fleets,omitempty"`
	Scores     bool     `json:"scores,omitempty"`
	Background string   `json:"background,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// ID identifies the run in logs and API responses.
	ID string

	// Turn is the resolved turn index, or 0 for raw sites.
	Turn int

	// DiagramHash is the content hash of the serialized diagram.
	DiagramHash string

	// Diagram is the built Voronoi diagram.
	Diagram *voronoi.Diagram

	// Layers holds the traced territories, outermost first. It is nil when
	// every artifact came from the cache.
	Layers [][]merge.Region

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Sites      int
	Cells      int
	Dropped    int
	Regions    int
	BuildTime  time.Duration
	MergeTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit  bool // Whether the diagram came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, json, dot, adjacency)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateWeightBy checks that a planet weighting is valid.
func ValidateWeightBy(w string) error {
	if !turn.WeightBy(w).Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "invalid weight_by: %q (must be one of: unit, ships)", w)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForMerge(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild checks the input and build options.
func (o *Options) ValidateForBuild() error {
	if len(o.Log) == 0 && len(o.Sites) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "log or sites is required")
	}
	if len(o.Log) > 0 && len(o.Sites) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "log and sites are mutually exclusive")
	}
	if o.Box != nil {
		if err := o.Box.Validate(); err != nil {
			return err
		}
	}
	o.SetBuildDefaults()
	return ValidateWeightBy(o.WeightBy)
}

// SetBuildDefaults sets default values for diagram construction.
func (o *Options) SetBuildDefaults() {
	if o.WeightBy == "" {
		o.WeightBy = string(DefaultWeightBy)
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetMergeDefaults sets default values for territory tracing.
func (o *Options) SetMergeDefaults() {
	if o.Layers == 0 {
		o.Layers = DefaultLayers
	}
	if o.Radius == 0 {
		o.Radius = DefaultRadius
	}
	if o.Threshold == nil {
		t := DefaultThreshold
		o.Threshold = &t
	}
}

// ValidateForMerge validates and sets defaults for territory tracing.
func (o *Options) ValidateForMerge() error {
	o.SetMergeDefaults()
	if o.Layers < 1 || o.Layers > MaxLayers {
		return errors.New(errors.ErrCodeInvalidLayer, "layers must be in [1, %d], got %d", MaxLayers, o.Layers)
	}
	if o.Radius < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "radius must not be negative, got %g", o.Radius)
	}
	if *o.Threshold < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "threshold must not be negative, got %g", *o.Threshold)
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Width < 1 || o.Width > MaxWidth {
		return errors.New(errors.ErrCodeInvalidInput, "width must be in [1, %d], got %d", MaxWidth, o.Width)
	}
	return sink.ValidateStyle(o.Style)
}

// NeedsMerge reports whether any requested format draws territories.
func (o *Options) NeedsMerge() bool {
	for _, f := range o.Formats {
		switch f {
		case FormatDOT, FormatAdjacency:
		case FormatJSON:
			return true
		default:
			if o.Style != sink.StyleCells {
				return true
			}
		}
	}
	return false
}

// DiagramKeyOpts returns cache key options for diagram construction.
func (o *Options) DiagramKeyOpts(turnIndex int) cache.DiagramKeyOpts {
	return cache.DiagramKeyOpts{Turn: turnIndex, WeightBy: o.WeightBy}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:     format,
		Style:      o.Style,
		Layers:     o.Layers,
		Radius:     o.Radius,
		Width:      o.Width,
		Labels:     o.Labels,
		Planets:    o.Planets,
		Fleets:     o.Fleets,
		Scores:     o.Scores,
		Background: o.Background,
	}
	if o.Threshold != nil {
		k.Threshold = *o.Threshold
	}
	return k
}
