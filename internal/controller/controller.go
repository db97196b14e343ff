// Package controller owns the view state of the point viewer: the camera
// parameters, the dataset selection and the displayed image. Input handlers
// call into a Controller and get back a Job; running the job performs the
// network round trips and Complete applies its result.
//
// A Controller is not safe for concurrent use. All methods except Job.Run
// must be called from one goroutine (the UI loop). Job.Run only touches the
// values captured when the job was created and may run anywhere.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pointview/internal/dataset"
	"pointview/internal/render"
	"pointview/internal/view"
)

const DefaultTimeout = 10 * time.Second

// DatasetSource provides the dataset document. *dataset.Provider implements it.
type DatasetSource interface {
	Document(ctx context.Context) (*dataset.Document, error)
	Invalidate()
}

// Renderer turns points and parameters into an image. *render.Client implements it.
type Renderer interface {
	Render(ctx context.Context, r render.Request) (*render.Image, error)
	Fallback(ctx context.Context) *render.Image
}

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateDatasetError
	StateRenderError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDatasetError:
		return "dataset error"
	case StateRenderError:
		return "render error"
	}
	return "unknown"
}

var (
	ErrDataset = errors.New("dataset unavailable")
	ErrRender  = errors.New("render failed")
)

type Controller struct {
	datasets DatasetSource
	renderer Renderer
	log      *slog.Logger
	step     float64
	timeout  time.Duration

	params view.Params
	fields [3]string

	selected int
	names    []string
	current  *dataset.Set

	seq    render.Sequencer
	cancel context.CancelFunc

	image *render.Image
	state State
	err   error
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func WithStep(step float64) Option {
	return func(c *Controller) { c.step = step }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithParams sets the initial view parameters.
func WithParams(p view.Params) Option {
	return func(c *Controller) { c.params = p }
}

// WithSelection sets the initially selected (0-based) dataset.
func WithSelection(index int) Option {
	return func(c *Controller) { c.selected = index }
}

func New(datasets DatasetSource, renderer Renderer, opts ...Option) *Controller {
	c := &Controller{
		datasets: datasets,
		renderer: renderer,
		log:      slog.Default(),
		step:     view.DefaultStep,
		timeout:  DefaultTimeout,
		params:   view.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	if !c.params.Valid() {
		c.params = view.Default()
	}
	c.log = c.log.With("component", "controller")
	for _, f := range view.Fields {
		c.syncField(f)
	}
	return c
}

func (c *Controller) Params() view.Params { return c.params }

// Field returns the display text of a form field. It always parses back to
// the in-memory parameter value.
func (c *Controller) Field(f view.Field) string { return c.fields[f] }

func (c *Controller) Image() *render.Image   { return c.image }
func (c *Controller) State() State           { return c.state }
func (c *Controller) Err() error             { return c.err }
func (c *Controller) Selected() int          { return c.selected }
func (c *Controller) Datasets() []string     { return c.names }
func (c *Controller) Current() *dataset.Set  { return c.current }
func (c *Controller) Step() float64          { return c.step }
func (c *Controller) Timeout() time.Duration { return c.timeout }

// SetTimeout applies to jobs created afterwards.
func (c *Controller) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

func (c *Controller) SetStep(step float64) {
	if step > 0 {
		c.step = step
	}
}

// Apply nudges one parameter and starts a refresh.
func (c *Controller) Apply(a view.Action) *Job {
	c.params = c.params.Apply(a, c.step)
	c.syncField(a.Field())
	c.log.Debug("action", "action", a.String(), a.Field().ID(), c.params.Get(a.Field()))
	return c.Refresh()
}

// Edit commits hand-edited field text. Unparseable text keeps the last good
// value; the returned error reports the rejection but a refresh is still begun.
func (c *Controller) Edit(f view.Field, text string) (*Job, error) {
	v, err := view.ParseField(text, c.params.Get(f))
	c.params = c.params.With(f, v)
	c.syncField(f)
	if err != nil {
		err = fmt.Errorf("%s %q: %w", f.ID(), text, err)
		c.log.Info("rejected field input", "field", f.ID(), "text", text)
	}
	return c.Refresh(), err
}

// Select switches to the dataset at the 0-based index. Once the document is
// known, an out-of-range index is rejected without starting a refresh.
func (c *Controller) Select(index int) (*Job, error) {
	if index < 0 || (c.names != nil && index >= len(c.names)) {
		return nil, fmt.Errorf("%w: index %d of %d", dataset.ErrNoSuchSet, index, len(c.names))
	}
	if index != c.selected {
		c.selected = index
		c.current = nil
	}
	return c.Refresh(), nil
}

// Reload marks the dataset document stale and starts a refresh.
func (c *Controller) Reload() *Job {
	c.datasets.Invalidate()
	c.current = nil
	return c.Refresh()
}

// Refresh starts a render cycle with the current state, superseding any
// cycle still in flight.
func (c *Controller) Refresh() *Job {
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = StateLoading
	j := &Job{
		Seq:      c.seq.Next(),
		Params:   c.params,
		Selected: c.selected,
		ctx:      ctx,
		cancel:   cancel,
		timeout:  c.timeout,
		datasets: c.datasets,
		renderer: c.renderer,
		log:      c.log,
	}
	if c.current != nil {
		s := *c.current
		j.set = &s
	}
	return j
}

// Complete applies a finished job. Results of superseded jobs are dropped and
// their images released; false is returned for them.
func (c *Controller) Complete(r Result) bool {
	if !c.seq.Latest(r.Seq) {
		c.log.Debug("discarding stale result", "seq", r.Seq, "latest", c.seq.Current())
		r.Image.Release()
		return false
	}
	c.cancel = nil
	if r.Names != nil {
		c.names = r.Names
		// a selection made before the document was known may not exist
		if c.selected >= len(c.names) {
			c.log.Info("selection out of range, resetting", "selected", c.selected, "sets", len(c.names))
			c.selected = 0
			c.current = nil
		}
	}
	if r.Set != nil && r.Selected == c.selected {
		c.current = r.Set
	}
	switch {
	case errors.Is(r.Err, ErrDataset):
		c.state = StateDatasetError
	case r.Err != nil:
		c.state = StateRenderError
	default:
		c.state = StateReady
	}
	c.err = r.Err
	if r.Image != c.image {
		c.image.Release()
		c.image = r.Image
	}
	if r.Err != nil {
		c.log.Warn("refresh failed", "seq", r.Seq, "state", c.state.String(), "err", r.Err)
	} else {
		c.log.Debug("refresh done", "seq", r.Seq, "bytes", len(r.Image.Data))
	}
	return true
}

// Run executes a job synchronously and applies its result.
func (c *Controller) Run(j *Job) bool {
	return c.Complete(j.Run())
}

// Close cancels the job in flight and releases the displayed image.
func (c *Controller) Close() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.image.Release()
	c.image = nil
}

func (c *Controller) syncField(f view.Field) {
	c.fields[f] = view.Format(c.params.Get(f))
}
