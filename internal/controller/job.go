package controller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pointview/internal/dataset"
	"pointview/internal/render"
	"pointview/internal/view"
)

// Job is one render refresh: the state captured when it began plus the
// sequence number that decides whether its result is still wanted.
type Job struct {
	Seq      uint64
	Params   view.Params
	Selected int

	set      *dataset.Set
	ctx      context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	datasets DatasetSource
	renderer Renderer
	log      *slog.Logger
}

// Result is what a job produced. Image is never nil: failures carry the
// fallback placeholder.
type Result struct {
	Seq      uint64
	Selected int
	Names    []string
	Set      *dataset.Set
	Image    *render.Image
	Err      error
}

// Cancel abandons the job. Its result will carry a context error.
func (j *Job) Cancel() { j.cancel() }

// Run loads the dataset if the job does not carry one, then requests the
// image. A dataset failure stops the job before any render request is sent.
func (j *Job) Run() Result {
	ctx, cancel := context.WithTimeout(j.ctx, j.timeout)
	defer cancel()

	res := Result{Seq: j.Seq, Selected: j.Selected, Set: j.set}
	if res.Set == nil {
		doc, err := j.datasets.Document(ctx)
		if err == nil {
			res.Names = doc.Names()
			res.Set, err = doc.Set(j.Selected)
		}
		if err != nil {
			res.Err = fmt.Errorf("%w: %w", ErrDataset, err)
			res.Image = j.fallback()
			return res
		}
	}

	start := time.Now()
	img, err := j.renderer.Render(ctx, render.Request{Points: res.Set.Points, Params: j.Params})
	if err != nil {
		res.Err = fmt.Errorf("%w: %w", ErrRender, err)
		res.Image = j.fallback()
		return res
	}
	img.Seq = j.Seq
	res.Image = img
	j.log.Debug("rendered", "seq", j.Seq, "dataset", res.Set.Name, "took", time.Since(start))
	return res
}

// fallback uses a fresh deadline so an expired job context still yields a
// placeholder.
func (j *Job) fallback() *render.Image {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	img := j.renderer.Fallback(ctx)
	img.Seq = j.Seq
	return img
}
