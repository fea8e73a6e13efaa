package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/starmap/pkg/cache"
	"github.com/matzehuels/starmap/pkg/errors"
	"github.com/matzehuels/starmap/pkg/observability"
	"github.com/matzehuels/starmap/pkg/pipeline"
)

const match = `{"turns":[
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

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(c, nil, nil)
	srv := httptest.NewServer(New(runner, nil, Options{MaxBodyBytes: 4096}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var e errorBody
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get(HeaderRequestID) == "" {
		t.Error("missing request ID header")
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newServer(t)
	const id = "7f0c7e2a-8f53-4b3e-9a52-4cf0a1f5f3d1"
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(HeaderRequestID, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(HeaderRequestID); got != id {
		t.Errorf("request ID = %q, want %q", got, id)
	}

	req.Header.Set(HeaderRequestID, "not-a-uuid")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(HeaderRequestID); got == "not-a-uuid" || got == "" {
		t.Errorf("malformed ID should be replaced, got %q", got)
	}
}

func TestRender(t *testing.T) {
	srv := newServer(t)

	resp := post(t, srv.URL+"/v1/render?format=svg&planets=true", match)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %v", resp.StatusCode, decodeError(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	if resp.Header.Get("X-Turn") != "1" || resp.Header.Get("X-Cache") != "miss" {
		t.Errorf("headers = %v", resp.Header)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(body), "<svg") || !strings.Contains(string(body), `id="planet-c"`) {
		t.Errorf("unexpected body: %.80s", body)
	}

	again := post(t, srv.URL+"/v1/render?format=svg&planets=true", match)
	if again.Header.Get("X-Cache") != "hit" {
		t.Errorf("second request X-Cache = %q, want hit", again.Header.Get("X-Cache"))
	}

	first := post(t, srv.URL+"/v1/render?format=png&turn=0", match)
	if first.StatusCode != http.StatusOK || first.Header.Get("Content-Type") != "image/png" {
		t.Errorf("png status %d type %q", first.StatusCode, first.Header.Get("Content-Type"))
	}
	if first.Header.Get("X-Turn") != "0" {
		t.Errorf("X-Turn = %q, want 0", first.Header.Get("X-Turn"))
	}
}

func TestDiagram(t *testing.T) {
	srv := newServer(t)
	body := `{"sites":[{"name":"w","owner":"a","x":-1,"y":0},{"name":"e","owner":"a","x":1,"y":0}],
	          "box":{"min_x":-2,"min_y":-2,"max_x":2,"max_y":2},"layers":2}`
	resp := post(t, srv.URL+"/v1/diagram", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %v", resp.StatusCode, decodeError(t, resp))
	}
	var out struct {
		Cells []struct {
			Name      string   `json:"name"`
			Neighbors []string `json:"neighbors"`
		} `json:"cells"`
		Layers [][]struct {
			Owner string   `json:"owner"`
			Sites []string `json:"sites"`
		} `json:"layers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Cells) != 2 || len(out.Cells[0].Neighbors) != 1 {
		t.Errorf("cells = %+v", out.Cells)
	}
	if len(out.Layers) != 2 || len(out.Layers[0]) != 1 || len(out.Layers[0][0].Sites) != 2 {
		t.Errorf("layer 0 should hold one fused territory, got %+v", out.Layers)
	}
}

func TestErrors(t *testing.T) {
	srv := newServer(t)
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"bad format", "/v1/render?format=gif", match, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"bad turn", "/v1/render?turn=9", match, http.StatusBadRequest, errors.ErrCodeInvalidTurn},
		{"unparsable turn", "/v1/render?turn=last", match, http.StatusBadRequest, errors.ErrCodeInvalidTurn},
		{"bad style", "/v1/render?style=sketch", match, http.StatusBadRequest, errors.ErrCodeInvalidStyle},
		{"too many layers", "/v1/render?layers=1000", match, http.StatusBadRequest, errors.ErrCodeInvalidLayer},
		{"not a log", "/v1/render", `{"turns":`, http.StatusBadRequest, errors.ErrCodeInvalidTurn},
		{"unknown field", "/v1/diagram", `{"planets":[]}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"empty request", "/v1/diagram", `{}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"empty box", "/v1/diagram", `{"sites":[{"name":"a","x":0,"y":0}],"box":{"min_x":1,"max_x":1,"max_y":1}}`, http.StatusBadRequest, errors.ErrCodeInvalidBox},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			e := decodeError(t, resp)
			if e.Code != string(tt.code) {
				t.Errorf("code = %q, want %q (%s)", e.Code, tt.code, e.Message)
			}
			if e.RequestID == "" {
				t.Error("error body should carry the request ID")
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	srv := newServer(t)
	resp := post(t, srv.URL+"/v1/render", strings.Repeat(" ", 8192)+match)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestNotFound(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/v2/render")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	resp2, err := http.Get(srv.URL + "/v1/render")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /v1/render status = %d, want 405", resp2.StatusCode)
	}
}

type countingHTTPHooks struct {
	observability.NoopHTTPHooks
	requests, responses, errs atomic.Int32
	lastStatus                atomic.Int32
}

func (h *countingHTTPHooks) OnRequest(context.Context, string, string) { h.requests.Add(1) }
func (h *countingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.responses.Add(1)
	h.lastStatus.Store(int32(status))
}
func (h *countingHTTPHooks) OnError(context.Context, string, string, error) { h.errs.Add(1) }

func TestHTTPHooks(t *testing.T) {
	hooks := &countingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	srv := newServer(t)
	post(t, srv.URL+"/v1/render?format=dot", match)
	post(t, srv.URL+"/v1/render?format=gif", match)

	// OnResponse fires after the body is flushed to the client.
	deadline := time.Now().Add(2 * time.Second)
	for hooks.responses.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hooks.requests.Load() != 2 || hooks.responses.Load() != 2 {
		t.Errorf("requests %d responses %d, want 2 each", hooks.requests.Load(), hooks.responses.Load())
	}
	if hooks.errs.Load() != 1 || hooks.lastStatus.Load() != http.StatusBadRequest {
		t.Errorf("errors %d last status %d", hooks.errs.Load(), hooks.lastStatus.Load())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidSite, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeParallelLines, "x"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{errors.New(errors.ErrCodeNetwork, "x"), http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
