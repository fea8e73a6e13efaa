package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/geom"
	"github.com/matzehuels/starmap/pkg/pipeline"
	"github.com/matzehuels/starmap/pkg/voronoi"
)

const testMatch = `{"turns":[
 {"players":["alice","bob"],
  "planets":[
   {"name":"a","x":0,"y":0,"owner":"alice","ship_count":10},
   {"name":"b","x":20,"y":0,"owner":"bob","ship_count":4},
   {"name":"c","x":10,"y":15,"owner":null,"ship_count":2}]},
 {"players":["alice","bob"],
  "planets":[
   {"name":"a","x":0,"y":0,"owner":"alice","ship_count":3},
   {"name":"b","x":20,"y":0,"owner":"bob","ship_count":5},
   {"name":"c","x":10,"y":15,"owner":"alice","ship_count":1}]}
]}`

// quietCLI returns a CLI that logs nowhere and never animates.
func quietCLI() *CLI {
	c := New(io.Discard, LogInfo)
	c.status = nil
	return c
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty leaves default to pipeline", "", nil},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "svg,pdf,png", []string{"svg", "pdf", "png"}},
		{"spaces and empties", " svg , ,json", []string{"svg", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
				}
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		wantErr bool
	}{
		{"valid svg", []string{"svg"}, false},
		{"valid all", []string{"svg", "png", "pdf", "json", "dot", "adjacency"}, false},
		{"invalid format", []string{"gif"}, true},
		{"mixed valid and invalid", []string{"svg", "gif"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pipeline.ValidateFormats(tt.formats)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("error code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidFormat)
			}
		})
	}
}

func TestParseBox(t *testing.T) {
	tests := []struct {
		input   string
		want    geom.BBox
		wantErr bool
	}{
		{"0,0,100,50", geom.BBox{MaxX: 100, MaxY: 50}, false},
		{" -5, -5 , 5,5 ", geom.BBox{MinX: -5, MinY: -5, MaxX: 5, MaxY: 5}, false},
		{"0,0,100", geom.BBox{}, true},
		{"0,0,x,1", geom.BBox{}, true},
		{"1,1,1,5", geom.BBox{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseBox(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseBox(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeInvalidBox) {
					t.Errorf("error code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidBox)
				}
				return
			}
			if got != tt.want {
				t.Errorf("parseBox(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "match.json", "match"},
		{"", "logs/match.json", "logs/match"},
		{"", "-", "starmap"},
		{"-", "match.json", "match"},
		{"out.svg", "match.json", "out"},
		{"out.adjacency", "match.json", "out"},
		{"frames/out", "match.json", "frames/out"},
		{"out.txt", "match.json", "out.txt"},
	}

	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		ro     renderOpts
		format string
		turn   int
		multi  bool
		want   string
	}{
		{"literal output", renderOpts{output: "map.png"}, "png", 3, false, "map.png"},
		{"base plus extension", renderOpts{}, "svg", 3, false, "match.svg"},
		{"multiple formats", renderOpts{output: "map.png"}, "pdf", 3, true, "match.pdf"},
		{"adjacency suffix", renderOpts{}, "adjacency", 0, false, "match.adjacency.svg"},
		{"numbered turns", renderOpts{allTurns: true}, "png", 7, false, "match_t007.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(&tt.ro, "match", tt.format, tt.turn, tt.multi); got != tt.want {
				t.Errorf("outputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunRenderAllTurns(t *testing.T) {
	dir := t.TempDir()
	c := quietCLI()
	ro := &renderOpts{output: filepath.Join(dir, "frames", "m.svg"), allTurns: true, noCache: true}
	opts := pipeline.Options{Log: []byte(testMatch), Turn: -1, Formats: []string{"svg", "json"}}

	if err := c.runRender(context.Background(), io.Discard, "match.json", ro, opts); err != nil {
		t.Fatalf("runRender() error: %v", err)
	}
	for _, name := range []string{"m_t000.svg", "m_t001.svg", "m_t000.json", "m_t001.json"} {
		if _, err := os.Stat(filepath.Join(dir, "frames", name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestRunRenderStdout(t *testing.T) {
	c := quietCLI()
	var out bytes.Buffer
	ro := &renderOpts{output: "-", noCache: true}
	opts := pipeline.Options{Log: []byte(testMatch), Turn: 0, Formats: []string{"svg"}}

	if err := c.runRender(context.Background(), &out, "-", ro, opts); err != nil {
		t.Fatalf("runRender() error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "<svg") {
		t.Errorf("stdout = %.40q, want an SVG document", out.String())
	}

	ro.allTurns = true
	err := c.runRender(context.Background(), &out, "-", ro, opts)
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("--all-turns to stdout error = %v, want %s", err, errors.ErrCodeInvalidPath)
	}
}

func TestRunRenderBadTurn(t *testing.T) {
	c := quietCLI()
	ro := &renderOpts{output: filepath.Join(t.TempDir(), "m.svg"), noCache: true}
	opts := pipeline.Options{Log: []byte(testMatch), Turn: 5}

	err := c.runRender(context.Background(), io.Discard, "match.json", ro, opts)
	if !errors.Is(err, errors.ErrCodeInvalidTurn) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidTurn)
	}
}

// loadSites builds the diagram of three sites in a square box.
func loadSites(t *testing.T) (*pipeline.Input, *voronoi.Diagram) {
	t.Helper()
	c := quietCLI()
	runner, err := c.newRunner(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	opts := pipeline.Options{
		Sites: []voronoi.Site{
			{Name: "west", Owner: "alice", X: -2, Y: 0},
			{Name: "east", Owner: "bob", X: 2, Y: 0},
			{Name: "north", X: 0, Y: 3},
		},
		Box: &geom.BBox{MinX: -5, MinY: -5, MaxX: 5, MaxY: 5},
	}
	in, d, err := c.loadDiagram(context.Background(), runner, opts)
	if err != nil {
		t.Fatalf("loadDiagram() error: %v", err)
	}
	return in, d
}

func TestWriteCells(t *testing.T) {
	in, d := loadSites(t)

	var buf bytes.Buffer
	writeCells(&buf, in, d, "", sortArea)
	out := buf.String()
	for _, want := range []string{"Cell", "Neighbours", "west", "east", "north", "neutral", "%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	writeCells(&buf, in, d, "alice", sortName)
	out = buf.String()
	if !strings.Contains(out, "west") || strings.Contains(out, "east") {
		t.Errorf("--owner alice should list only west:\n%s", out)
	}
	if strings.Contains(out, "between weighted cells") {
		t.Errorf("equal weights leave no gap:\n%s", out)
	}

	weighted, err := voronoi.Build([]voronoi.Site{
		{Name: "west", Owner: "alice", X: -3, Y: -2, Weight: 5},
		{Name: "east", Owner: "bob", X: 3, Y: -1, Weight: 1},
		{Name: "north", X: -1, Y: 4, Weight: 2},
	}, d.Box)
	if err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	writeCells(&buf, in, weighted, "", sortName)
	if !strings.Contains(buf.String(), "between weighted cells") {
		t.Errorf("weighted cells should report the uncovered share:\n%s", buf.String())
	}
}
