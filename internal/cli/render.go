package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/geom"
	"github.com/matzehuels/starmap/pkg/pipeline"
	"github.com/matzehuels/starmap/pkg/turn"
	"github.com/matzehuels/starmap/pkg/voronoi"
)

// renderOpts holds the command-line flags shared by render, cells and inspect.
type renderOpts struct {
	output    string  // output file path (or base path for multiple outputs)
	formats   string  // comma-separated output formats
	turn      int     // turn index, negative counts from the end
	allTurns  bool    // render every turn to numbered files
	sites     bool    // input is a JSON array of sites instead of a match log
	box       string  // explicit box "minX,minY,maxX,maxY"
	threshold float64 // fusion threshold; only used when the flag is set
	noCache   bool    // bypass the cache entirely
	opts      pipeline.Options
}

// renderCommand creates the render command for generating territory maps.
func (c *CLI) renderCommand() *cobra.Command {
	ro := &renderOpts{turn: -1}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render the territories of a match turn",
		Long: `Render the territories of one turn (the last by default) of a Planet Wars match log.

Use "-" as the file to read from stdin and "-o -" to write a single output to stdout.`,
		Example: `  starmap render match.json
  starmap render match.json --turn 40 -f svg,png --planets --labels
  starmap render match.json --all-turns -o frames/match
  starmap render sites.json --sites --box 0,0,100,100 --style cells`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.pipelineOptions(cmd, args[0], ro)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), args[0], ro, opts)
		},
	}

	ro.register(cmd)
	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&ro.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot, adjacency (comma-separated)")
	cmd.Flags().BoolVar(&ro.allTurns, "all-turns", false, "render every turn to numbered files")
	cmd.Flags().StringVar(&ro.opts.Style, "style", "", "drawing style: territories (default), cells")
	cmd.Flags().IntVar(&ro.opts.Width, "width", 0, "image width in pixels (default 800)")
	cmd.Flags().BoolVar(&ro.opts.Planets, "planets", false, "draw planets")
	cmd.Flags().BoolVar(&ro.opts.Labels, "labels", false, "label planets with name and ship count")
	cmd.Flags().BoolVar(&ro.opts.Fleets, "fleets", false, "draw fleets in flight")
	cmd.Flags().BoolVar(&ro.opts.Scores, "scores", false, "draw the score legend")
	cmd.Flags().StringVar(&ro.opts.Background, "background", "", "background colour, \"none\" for transparent")
	registerRenderCompletions(cmd)

	return cmd
}

// register adds the flags that select and shape the diagram.
func (ro *renderOpts) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&ro.turn, "turn", "t", ro.turn, "turn index; negative counts from the last turn")
	cmd.Flags().BoolVar(&ro.sites, "sites", false, "input is a JSON array of sites")
	cmd.Flags().StringVar(&ro.box, "box", "", "bounding box as minX,minY,maxX,maxY")
	cmd.Flags().StringVar(&ro.opts.WeightBy, "weight-by", "", "site weighting: unit (default), ships")
	cmd.Flags().IntVar(&ro.opts.Layers, "layers", 0, "number of territory layers (default 8)")
	cmd.Flags().Float64Var(&ro.opts.Radius, "radius", 0, "distance borders shrink at the innermost layer (default 2)")
	cmd.Flags().Float64Var(&ro.threshold, "threshold", pipeline.DefaultThreshold, "fusion threshold; 0 keeps seams open above layer 0")
	cmd.Flags().IntVar(&ro.opts.Workers, "workers", 0, "parallel boundary walks (default 4)")
	cmd.Flags().BoolVar(&ro.opts.Refresh, "refresh", false, "rebuild even if cached")
	cmd.Flags().BoolVar(&ro.noCache, "no-cache", false, "disable caching")
	registerWeightCompletion(cmd)
}

// pipelineOptions turns flags, input and config into pipeline options.
func (c *CLI) pipelineOptions(cmd *cobra.Command, input string, ro *renderOpts) (pipeline.Options, error) {
	opts := ro.opts
	opts.Turn = ro.turn
	opts.Formats = parseFormats(ro.formats)
	if cmd.Flags().Changed("threshold") {
		t := ro.threshold
		opts.Threshold = &t
	}
	if ro.box != "" {
		b, err := parseBox(ro.box)
		if err != nil {
			return opts, err
		}
		opts.Box = &b
	}

	data, err := readInput(cmd.InOrStdin(), input)
	if err != nil {
		return opts, err
	}
	if ro.sites {
		if err := json.Unmarshal(data, &opts.Sites); err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode sites %s", input)
		}
		if len(opts.Sites) == 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "%s contains no sites", input)
		}
	} else {
		opts.Log = data
	}

	c.applyConfig(&opts)
	return opts, nil
}

// readInput reads path, or r when path is "-".
func readInput(r io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(r)
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "input %s", path)
	}
	return data, err
}

// parseBox parses "minX,minY,maxX,maxY".
func parseBox(s string) (geom.BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.BBox{}, errors.New(errors.ErrCodeInvalidBox, "box %q must have four comma-separated numbers", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.BBox{}, errors.Wrap(errors.ErrCodeInvalidBox, err, "box %q", s)
		}
		v[i] = f
	}
	b := geom.BBox{MinX: v[0], MinY: v[1], MaxX: v[2], MaxY: v[3]}
	return b, b.Validate()
}

// runRender executes the pipeline for one turn, or every turn, and writes
// each artifact to disk.
func (c *CLI) runRender(ctx context.Context, stdout io.Writer, input string, ro *renderOpts, opts pipeline.Options) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if ro.output == "-" && (len(opts.Formats) > 1 || ro.allTurns) {
		return errors.New(errors.ErrCodeInvalidPath, "stdout output needs a single format and turn")
	}
	if ro.output != "" && ro.output != "-" {
		if err := errors.ValidatePath(ro.output); err != nil {
			return err
		}
	}

	runner, err := c.newRunner(ctx, ro.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	turns := []int{opts.Turn}
	if ro.allTurns {
		if len(opts.Sites) > 0 {
			return errors.New(errors.ErrCodeInvalidInput, "--all-turns needs a match log")
		}
		l, err := turn.Parse(opts.Log)
		if err != nil {
			return err
		}
		turns = turns[:0]
		for i := range l.Len() {
			turns = append(turns, i)
		}
	}

	prog := newProgress(c.Logger)
	base := basePath(ro.output, input)
	spin := c.spinner(ctx, "Building diagram")
	stopSpin := func() {
		if spin != nil {
			spin.Stop()
		}
	}
	defer stopSpin()

	for i, t := range turns {
		if err := ctx.Err(); err != nil {
			return err
		}
		if spin != nil && ro.allTurns {
			spin.SetMessage("Rendering turn %d/%d", i+1, len(turns))
		}
		opts.Turn = t
		result, err := runner.Execute(ctx, opts)
		if err != nil {
			return err
		}
		if !ro.allTurns {
			stopSpin()
		}
		for _, format := range opts.Formats {
			path := outputPath(ro, base, format, result.Turn, len(opts.Formats) > 1)
			if sameFile(path, input) {
				return errors.New(errors.ErrCodeInvalidPath, "output %s would overwrite the input; pass -o", path)
			}
			if err := writeOutput(stdout, path, result.Artifacts[format]); err != nil {
				return err
			}
			if path != "-" && !ro.allTurns {
				printFile(path)
			}
		}
		if !ro.allTurns && ro.output != "-" {
			printStats(result.Stats, result.CacheInfo)
		}
	}
	if ro.allTurns {
		stopSpin()
		for _, format := range opts.Formats {
			printFile(fmt.Sprintf("%s_t*.%s", base, extension(format)))
		}
		prog.done(fmt.Sprintf("Rendered %d turns", len(turns)))
	}
	return nil
}

// extension maps a format to a file extension.
func extension(format string) string {
	if format == pipeline.FormatAdjacency {
		return "adjacency.svg"
	}
	return format
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .png, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" || output == "-" {
		if input == "-" {
			return "starmap"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath names the file for one artifact: the literal --output for a
// single format and turn, base.ext otherwise, base_t007.ext for --all-turns.
func outputPath(ro *renderOpts, base, format string, turnIndex int, multi bool) string {
	switch {
	case ro.allTurns:
		return fmt.Sprintf("%s_t%03d.%s", base, turnIndex, extension(format))
	case ro.output != "" && !multi:
		return ro.output
	default:
		return base + "." + extension(format)
	}
}

// sameFile reports whether output names the input file.
func sameFile(output, input string) bool {
	if output == "-" || input == "-" {
		return false
	}
	a, err1 := filepath.Abs(output)
	b, err2 := filepath.Abs(input)
	return err1 == nil && err2 == nil && a == b
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// loadDiagram decodes the input and builds its diagram without rendering.
// Shared by cells and inspect.
func (c *CLI) loadDiagram(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Input, *voronoi.Diagram, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, nil, err
	}
	in, err := pipeline.Decode(opts)
	if err != nil {
		return nil, nil, err
	}
	d, hit, err := runner.BuildWithCacheInfo(ctx, in, opts)
	if err != nil {
		return nil, nil, err
	}
	opts.Logger.Debug("loaded diagram", "turn", in.Turn, "cells", len(d.Cells), "cached", hit)
	return in, d, nil
}
