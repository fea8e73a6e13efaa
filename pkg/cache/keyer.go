package cache

// Keyer derives cache keys from pipeline inputs.
type Keyer interface {
	// DiagramKey addresses a built diagram of one turn of a match log.
	DiagramKey(inputHash string, opts DiagramKeyOpts) string

	// ArtifactKey addresses one rendered format of a drawn turn.
	ArtifactKey(renderHash string, opts ArtifactKeyOpts) string
}

// DiagramKeyOpts holds the build options that change a diagram.
type DiagramKeyOpts struct {
	Turn     int    `json:"turn"`
	WeightBy string `json:"weight_by,omitempty"`
}

// ArtifactKeyOpts holds the merge and render options that change an artifact.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Style      string  `json:"style,omitempty"`
	Layers     int     `json:"layers"`
	Radius     float64 `json:"radius"`
	Threshold  float64 `json:"threshold"`
	Width      int     `json:"width,omitempty"`
	Labels     bool    `json:"labels,omitempty"`
	Planets    bool    `json:"planets,omitempty"`
	Fleets     bool    `json:"fleets,omitempty"`
	Scores     bool    `json:"scores,omitempty"`
	Background string  `json:"background,omitempty"`
}

// DefaultKeyer produces "<kind>:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DiagramKey implements Keyer.
func (DefaultKeyer) DiagramKey(inputHash string, opts DiagramKeyOpts) string {
	return hashKey("diagram", inputHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(renderHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", renderHash, opts)
}

var _ Keyer = DefaultKeyer{}
