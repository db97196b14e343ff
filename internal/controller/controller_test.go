package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pointview/internal/dataset"
	"pointview/internal/render"
	"pointview/internal/view"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeDatasets serves a fixed document and counts fetches.
type fakeDatasets struct {
	doc     *dataset.Document
	err     error
	fetches int
	invals  int
}

func (f *fakeDatasets) Document(ctx context.Context) (*dataset.Document, error) {
	f.fetches++
	return f.doc, f.err
}

func (f *fakeDatasets) Invalidate() { f.invals++ }

// fakeRenderer records requests and returns a tiny image tagged with the
// request rotation. Setting gate makes Render block until the channel for
// that rotation is closed.
type fakeRenderer struct {
	mu       sync.Mutex
	requests []render.Request
	err      error
	gate     map[string]chan struct{}
}

func (f *fakeRenderer) Render(ctx context.Context, r render.Request) (*render.Image, error) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	ch := f.gate[view.Format(r.Params.Rotation)]
	err := f.err
	f.mu.Unlock()
	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &render.Image{
		ContentType: "image/png",
		Data:        []byte(view.Format(r.Params.Rotation)),
		Decoded:     image.NewGray(image.Rect(0, 0, 1, 1)),
	}, nil
}

func (f *fakeRenderer) Fallback(ctx context.Context) *render.Image {
	return &render.Image{ContentType: "image/png", Data: []byte("black"), Fallback: true}
}

func (f *fakeRenderer) last(t *testing.T) render.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatal("no render request issued")
	}
	return f.requests[len(f.requests)-1]
}

func threeSets(t *testing.T) *dataset.Document {
	t.Helper()
	d, err := dataset.Parse([]byte(`{"datasets": [
		{"name": "a", "points": [[0,0,0]]},
		{"name": "b", "points": [[1,1,1]]},
		{"name": "c", "points": [[2,2,2],[3,3,3]]}
	]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return d
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *fakeDatasets, *fakeRenderer) {
	t.Helper()
	ds := &fakeDatasets{doc: threeSets(t)}
	r := &fakeRenderer{}
	opts = append([]Option{WithLogger(quiet)}, opts...)
	return New(ds, r, opts...), ds, r
}

func TestArrowRightFromInitialState(t *testing.T) {
	c, _, r := newTestController(t)
	a, _ := view.KeyAction("ArrowRight")
	if !c.Run(c.Apply(a)) {
		t.Fatal("result not applied")
	}
	if got := c.Params().Rotation; got != 0.1 {
		t.Errorf("rotation = %v, want 0.1", got)
	}
	if got := c.Field(view.Rotation); got != "0.1" {
		t.Errorf("rotation field = %q, want 0.1", got)
	}
	if got := r.last(t).Params.Rotation; got != 0.1 {
		t.Errorf("request rotation = %v, want 0.1", got)
	}
	if c.State() != StateReady {
		t.Errorf("state = %v", c.State())
	}
}

func TestFieldsMirrorParams(t *testing.T) {
	c, _, _ := newTestController(t)
	actions := []view.Action{
		view.RotateRight, view.RotateRight, view.RotateRight, view.DistanceDown,
		view.FocalUp, view.FocalUp, view.RotateLeft, view.FocalDown, view.DistanceUp,
	}
	for i, a := range actions {
		c.Apply(a).Cancel()
		for _, f := range view.Fields {
			v, err := strconv.ParseFloat(c.Field(f), 64)
			if err != nil {
				t.Fatalf("step %d: field %s = %q: %v", i, f.ID(), c.Field(f), err)
			}
			if v != c.Params().Get(f) {
				t.Errorf("step %d: field %s = %q, memory %v", i, f.ID(), c.Field(f), c.Params().Get(f))
			}
		}
	}
}

func TestSelectThirdDataset(t *testing.T) {
	c, ds, r := newTestController(t)
	c.Run(c.Refresh())
	if len(c.Datasets()) != 3 {
		t.Fatalf("datasets = %v", c.Datasets())
	}
	j, err := c.Select(2)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	c.Run(j)
	if got := string(r.last(t).Points); got != `[[2,2,2],[3,3,3]]` {
		t.Errorf("request points = %s", got)
	}
	if c.Current().Name != "c" {
		t.Errorf("current = %q", c.Current().Name)
	}
	if ds.fetches != 2 {
		t.Errorf("document fetched %d times, want 2", ds.fetches)
	}

	if _, err := c.Select(3); !errors.Is(err, dataset.ErrNoSuchSet) {
		t.Errorf("Select(3) err = %v, want ErrNoSuchSet", err)
	}
}

func TestSelectionBeyondDocumentResets(t *testing.T) {
	c, _, r := newTestController(t, WithSelection(7))
	c.Run(c.Refresh())
	if c.State() != StateDatasetError || !errors.Is(c.Err(), dataset.ErrNoSuchSet) {
		t.Fatalf("state = %v, err = %v", c.State(), c.Err())
	}
	if c.Selected() != 0 {
		t.Errorf("selected = %d after out-of-range document, want 0", c.Selected())
	}

	c.Run(c.Refresh())
	if c.State() != StateReady {
		t.Fatalf("state = %v, err = %v", c.State(), c.Err())
	}
	if got := string(r.last(t).Points); got != `[[0,0,0]]` {
		t.Errorf("request points = %s, want the first set", got)
	}
}

func TestDatasetReusedAcrossRefreshes(t *testing.T) {
	c, ds, _ := newTestController(t)
	c.Run(c.Refresh())
	for i := 0; i < 5; i++ {
		c.Run(c.Apply(view.DistanceUp))
	}
	if ds.fetches != 1 {
		t.Errorf("document fetched %d times, want 1", ds.fetches)
	}
	c.Run(c.Reload())
	if ds.invals != 1 || ds.fetches != 2 {
		t.Errorf("after reload: invalidations=%d fetches=%d", ds.invals, ds.fetches)
	}
}

func TestStaleResultDiscarded(t *testing.T) {
	c, _, r := newTestController(t)
	c.Run(c.Refresh())

	r1gate := make(chan struct{})
	r.gate = map[string]chan struct{}{"0.1": r1gate}

	j1 := c.Apply(view.RotateRight) // rotation 0.1, blocked
	j2 := c.Apply(view.RotateRight) // rotation 0.2

	results := make(chan Result, 1)
	go func() { results <- j1.Run() }()

	if !c.Complete(j2.Run()) {
		t.Fatal("newest result rejected")
	}
	close(r1gate)
	r1 := <-results
	if c.Complete(r1) {
		t.Error("superseded result applied")
	}
	if got := string(c.Image().Data); got != "0.2" {
		t.Errorf("displayed image from rotation %q, want 0.2", got)
	}
	if !r1.Image.Released() {
		t.Error("discarded image not released")
	}
}

func TestRenderFailureShowsFallback(t *testing.T) {
	c, _, r := newTestController(t)
	c.Run(c.Refresh())
	first := c.Image()

	r.err = errors.New("connection refused")
	c.Run(c.Apply(view.FocalUp))
	if c.State() != StateRenderError {
		t.Errorf("state = %v", c.State())
	}
	if !errors.Is(c.Err(), ErrRender) {
		t.Errorf("err = %v", c.Err())
	}
	if img := c.Image(); img == nil || !img.Fallback {
		t.Errorf("image = %+v, want fallback", img)
	}
	if !first.Released() {
		t.Error("previous image not released")
	}
}

func TestDatasetFailureBlocksRender(t *testing.T) {
	c, ds, r := newTestController(t)
	ds.err = errors.New("no route to host")
	c.Run(c.Refresh())
	if c.State() != StateDatasetError {
		t.Errorf("state = %v", c.State())
	}
	if !errors.Is(c.Err(), ErrDataset) {
		t.Errorf("err = %v", c.Err())
	}
	if len(r.requests) != 0 {
		t.Errorf("%d render requests issued after dataset failure", len(r.requests))
	}
	if !c.Image().Fallback {
		t.Error("fallback not shown")
	}
}

func TestMalformedEditKeepsLastGood(t *testing.T) {
	c, _, r := newTestController(t)
	j, err := c.Edit(view.Distance, "3.5")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	c.Run(j)

	j, err = c.Edit(view.Distance, "three")
	if !errors.Is(err, view.ErrInvalidNumber) {
		t.Errorf("err = %v, want ErrInvalidNumber", err)
	}
	c.Run(j)
	if c.Params().Distance != 3.5 || c.Field(view.Distance) != "3.5" {
		t.Errorf("distance = %v field %q, want 3.5", c.Params().Distance, c.Field(view.Distance))
	}
	if got := r.last(t).Params.Distance; got != 3.5 {
		t.Errorf("request distance = %v", got)
	}
}

func TestTimeoutShowsFallback(t *testing.T) {
	c, _, r := newTestController(t, WithTimeout(30*time.Millisecond))
	r.gate = map[string]chan struct{}{"0": make(chan struct{})}
	c.Run(c.Refresh())
	if c.State() != StateRenderError || !errors.Is(c.Err(), context.DeadlineExceeded) {
		t.Errorf("state = %v err = %v", c.State(), c.Err())
	}
	if !c.Image().Fallback {
		t.Error("fallback not shown on timeout")
	}
}

// TestAgainstHTTPServices runs the full cycle against real HTTP endpoints and
// checks the exact request body.
func TestAgainstHTTPServices(t *testing.T) {
	var bodies []map[string]any
	var mu sync.Mutex
	var docHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/points.json":
			docHits.Add(1)
			fmt.Fprint(w, `{"points": [[0,0,0],[1,0,0],[-1,0,0]]}`)
		case "/api/render":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			bodies = append(bodies, body)
			mu.Unlock()
			http.Error(w, "renderer down", http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(
		dataset.NewProvider(srv.URL+"/data/points.json", dataset.WithLogger(quiet)),
		render.NewClient(srv.URL+"/api/render", srv.URL+"/img/black.png", render.WithLogger(quiet)),
		WithLogger(quiet),
	)
	c.Run(c.Apply(view.RotateRight))
	c.Run(c.Apply(view.FocalDown))

	if len(bodies) != 2 {
		t.Fatalf("render requests = %d", len(bodies))
	}
	params := bodies[1]["params"].(map[string]any)
	want := map[string]float64{"rotation": 0.1, "distance": 2, "focal_length": 49.9}
	for k, v := range want {
		if params[k] != v {
			t.Errorf("params[%s] = %v, want %v", k, params[k], v)
		}
	}
	if n := len(bodies[1]["points"].([]any)); n != 3 {
		t.Errorf("points = %d", n)
	}
	if docHits.Load() != 1 {
		t.Errorf("document fetched %d times", docHits.Load())
	}
	var se *render.StatusError
	if !errors.As(c.Err(), &se) || se.Code != http.StatusBadGateway {
		t.Errorf("err = %v", c.Err())
	}
	if img := c.Image(); img == nil || !img.Fallback || img.Bounds().Dx() != render.FallbackSize {
		t.Errorf("image = %+v, want synthesized fallback", img)
	}
}

func TestSupersededDuringDatasetFetch(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var docHits atomic.Int32
	var mu sync.Mutex
	var rotations []float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/points.json":
			docHits.Add(1)
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
			fmt.Fprint(w, `{"points": [[0,0,0],[1,0,0]]}`)
		case "/api/render":
			var req render.Request
			json.NewDecoder(r.Body).Decode(&req)
			mu.Lock()
			rotations = append(rotations, req.Params.Rotation)
			mu.Unlock()
			w.Header().Set("Content-Type", "image/png")
			w.Write(buf.Bytes())
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(
		dataset.NewProvider(srv.URL+"/data/points.json", dataset.WithLogger(quiet)),
		render.NewClient(srv.URL+"/api/render", srv.URL+"/img/black.png", render.WithLogger(quiet)),
		WithLogger(quiet),
	)
	first, second := make(chan Result, 1), make(chan Result, 1)
	j1 := c.Refresh()
	go func() { first <- j1.Run() }()
	<-started

	// supersede while the document request is in flight
	j2 := c.Apply(view.RotateRight)
	go func() { second <- j2.Run() }()
	time.Sleep(50 * time.Millisecond)
	close(release)

	if c.Complete(<-first) {
		t.Error("superseded result was applied")
	}
	if !c.Complete(<-second) {
		t.Fatal("latest result was discarded")
	}
	if c.State() != StateReady {
		t.Fatalf("state = %v, err = %v", c.State(), c.Err())
	}
	if img := c.Image(); img == nil || img.Fallback || img.Seq != j2.Seq {
		t.Errorf("image = %+v, want the render of job %d", img, j2.Seq)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(rotations) != 1 || rotations[0] != 0.1 {
		t.Errorf("render requests rotations = %v, want [0.1]", rotations)
	}
	if n := docHits.Load(); n != 1 {
		t.Errorf("document fetched %d times, want 1", n)
	}
}
