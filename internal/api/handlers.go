package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/matzehuels/starmap/pkg/buildinfo"
	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/geom"
	"github.com/matzehuels/starmap/pkg/observability"
	"github.com/matzehuels/starmap/pkg/pipeline"
	"github.com/matzehuels/starmap/pkg/voronoi"
)

// contentTypes maps output formats to MIME types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:       "image/svg+xml",
	pipeline.FormatPNG:       "image/png",
	pipeline.FormatPDF:       "application/pdf",
	pipeline.FormatJSON:      "application/json",
	pipeline.FormatDOT:       "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatAdjacency: "image/svg+xml",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
	})
}

// diagramRequest is the body of POST /v1/diagram.
type diagramRequest struct {
	Log       json.RawMessage `json:"log,omitempty"`
	Sites     []voronoi.Site  `json:"sites,omitempty"`
	Box       *geom.BBox      `json:"box,omitempty"`
	Turn      *int            `json:"turn,omitempty"`
	WeightBy  string          `json:"weight_by,omitempty"`
	Layers    int             `json:"layers,omitempty"`
	Radius    float64         `json:"radius,omitempty"`
	Threshold *float64        `json:"threshold,omitempty"`
	Refresh   bool            `json:"refresh,omitempty"`
}

func (req diagramRequest) options() pipeline.Options {
	opts := pipeline.Options{
		Log:       req.Log,
		Sites:     req.Sites,
		Box:       req.Box,
		Turn:      -1,
		WeightBy:  req.WeightBy,
		Layers:    req.Layers,
		Radius:    req.Radius,
		Threshold: req.Threshold,
		Refresh:   req.Refresh,
		Formats:   []string{pipeline.FormatJSON},
	}
	if req.Turn != nil {
		opts.Turn = *req.Turn
	}
	return opts
}

// handleDiagram builds and traces the diagram described by a JSON request
// and returns the JSON rendering: cells, neighbours and territory layers.
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	var req diagramRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	s.run(w, r, req.options(), pipeline.FormatJSON)
}

// handleRender renders a match log posted as the request body. Query
// parameters select the format, turn and drawing options.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if stderrors.As(err, &tooBig) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "TOO_LARGE", fmt.Sprintf("body exceeds %d bytes", tooBig.Limit))
			return
		}
		s.fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	opts, err := renderOptions(r, body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.run(w, r, opts, opts.Formats[0])
}

// renderOptions reads pipeline options from the query string.
func renderOptions(r *http.Request, body []byte) (pipeline.Options, error) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts := pipeline.Options{
		Log:        body,
		Turn:       -1,
		Formats:    []string{format},
		Style:      q.Get("style"),
		WeightBy:   q.Get("weight_by"),
		Background: q.Get("background"),
		Planets:    queryBool(q.Get("planets")),
		Labels:     queryBool(q.Get("labels")),
		Fleets:     queryBool(q.Get("fleets")),
		Scores:     queryBool(q.Get("scores")),
		Refresh:    queryBool(q.Get("refresh")),
	}

	var err error
	if opts.Turn, err = queryInt(q.Get("turn"), -1); err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidTurn, err, "turn")
	}
	if opts.Width, err = queryInt(q.Get("width"), 0); err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "width")
	}
	if opts.Layers, err = queryInt(q.Get("layers"), 0); err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidLayer, err, "layers")
	}
	if v := q.Get("radius"); v != "" {
		if opts.Radius, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "radius")
		}
	}
	if v := q.Get("threshold"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "threshold")
		}
		opts.Threshold = &t
	}
	return opts, nil
}

// run executes the pipeline and writes the artifact for format.
func (s *Server) run(w http.ResponseWriter, r *http.Request, opts pipeline.Options, format string) {
	if s.opts.Defaults != nil {
		s.opts.Defaults(&opts)
	}
	opts.Logger = s.logger.With("request", RequestID(r.Context())[:8])
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.fail(w, r, invalid(err))
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Run-ID", result.ID)
	w.Header().Set("X-Turn", strconv.Itoa(result.Turn))
	w.Header().Set("X-Cache", cacheStatus(result.CacheInfo))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// invalid tags an option validation error that carries no code yet.
func invalid(err error) error {
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
}

func cacheStatus(c pipeline.CacheInfo) string {
	switch {
	case c.RenderHit:
		return "hit"
	case c.BuildHit:
		return "partial"
	default:
		return "miss"
	}
}

func queryBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

func queryInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// fail reports err to the hooks and writes it with its mapped status.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "err", err)
	} else {
		s.logger.Debug("request rejected", "id", RequestID(r.Context()), "err", err)
	}
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError && errors.GetCode(err) == "" {
		msg = "internal error"
	}
	writeError(w, r, status, code, msg)
}
