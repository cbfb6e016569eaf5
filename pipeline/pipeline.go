package pipeline

import (
	"context"
	"image"
	"io"
	"sync"

	"github.com/LdDl/reframe-go/reframe"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SubjectLocator returns the subject box for a frame. See reframe.Locator.
type SubjectLocator interface {
	Locate(frame reframe.Frame) (reframe.NormalizedBox, bool)
}

// Plan is the per-frame decision of how the frame is composed into the output frame
type Plan struct {
	Frame reframe.Frame
	// Subject is valid only when Passthrough is false
	Subject reframe.NormalizedBox
	// No subject: the frame is scaled to fill the output and center-cropped
	Passthrough bool
	// Engine result. Transform maps source pixel space to output frame space.
	Result reframe.Result
}

type job struct {
	seq  int
	plan Plan
}

type rendered struct {
	seq   int
	frame reframe.Frame
}

// Pipeline locates the subject on every frame, computes reframing transform and renders output frames.
// Locating and transform computation run sequentially in presentation order since the locator keeps
// state between frames. Rendering runs on a worker pool and output is reordered before it goes to Sink.
type Pipeline struct {
	locator  SubjectLocator
	engine   *reframe.Engine
	renderer *Renderer
	output   reframe.Size
	workers  int
	counters *Counters
}

// NewPipeline creates new instance of Pipeline. Non-positive workers number is treated as 1.
func NewPipeline(locator SubjectLocator, engine *reframe.Engine, renderer *Renderer, output reframe.Size, workers int) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		locator:  locator,
		engine:   engine,
		renderer: renderer,
		output:   output,
		workers:  workers,
		counters: &Counters{},
	}
}

// Counters returns run metrics
func (p *Pipeline) Counters() *Counters {
	return p.counters
}

// Plan locates the subject on frame and computes the transform. Hitting the iteration cap is not
// an error here: the partial transform is used and the frame is counted as unconverged.
func (p *Pipeline) Plan(frame reframe.Frame) (Plan, error) {
	p.counters.incFramesIn()
	if frame.Image == nil {
		return Plan{}, errors.Wrapf(reframe.ErrDegenerateGeometry, "frame %d has no image", frame.Index)
	}
	box, ok := p.locator.Locate(frame)
	if !ok {
		p.counters.incFramesPassthrough()
		return Plan{Frame: frame, Passthrough: true}, nil
	}
	result, err := p.engine.Reframe(frame.Size(), p.output, box)
	if err != nil {
		if !errors.Is(err, reframe.ErrConvergenceExceeded) {
			return Plan{}, errors.Wrapf(err, "frame %d", frame.Index)
		}
		logrus.WithFields(logrus.Fields{
			"function":   "Plan",
			"frame":      frame.Index,
			"iterations": result.Iterations,
			"offset_x":   result.Offset.X,
			"offset_y":   result.Offset.Y,
		}).Warn("Subject is not centered, using partial transform")
		p.counters.incFramesUnconverged()
	}
	p.counters.incFramesReframed()
	return Plan{Frame: frame, Subject: box, Result: result}, nil
}

// Render produces output image for plan. An unconverged transform which can't be rendered
// degrades to the pass-through fit instead of failing the frame.
func (p *Pipeline) Render(plan Plan) (image.Image, error) {
	if plan.Passthrough {
		return p.renderer.Fit(plan.Frame.Image, p.output)
	}
	img, err := p.renderer.Render(plan.Frame.Image, plan.Result.Transform, p.output)
	if err == nil {
		return img, nil
	}
	if plan.Result.Converged {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function": "Render",
		"frame":    plan.Frame.Index,
		"error":    err.Error(),
	}).Warn("Can't render partial transform, falling back to fit")
	p.counters.incFramesFallback()
	return p.renderer.Fit(plan.Frame.Image, p.output)
}

// Run processes frames from src until io.EOF, context cancellation or first error.
// On cancellation the locator's subject is discarded when the locator supports Reset.
func (p *Pipeline) Run(parent context.Context, src Source, sink Sink) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan job, p.workers)
	results := make(chan rendered, p.workers)
	planned := make(chan struct{})

	go func() {
		defer close(planned)
		defer close(jobs)
		if err := p.plan(ctx, src, jobs); err != nil {
			fail(err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.render(ctx, jobs, results); err != nil {
				fail(err)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	if err := p.collect(ctx, sink, results); err != nil {
		fail(err)
		for range results {
		}
	}
	<-planned

	if parent.Err() != nil {
		if r, ok := p.locator.(interface{ Reset() }); ok {
			r.Reset()
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "Run",
		"metrics":  p.counters.Snapshot(),
	}).Debug("Pipeline finished")
	return firstErr
}

func (p *Pipeline) plan(ctx context.Context, src Source, jobs chan<- job) error {
	for seq := 0; ; seq++ {
		frame, err := src.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "Can't read frame")
		}
		plan, err := p.Plan(frame)
		if err != nil {
			return err
		}
		select {
		case jobs <- job{seq: seq, plan: plan}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Pipeline) render(ctx context.Context, jobs <-chan job, results chan<- rendered) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case j, ok := <-jobs:
			if !ok {
				return nil
			}
			img, err := p.Render(j.plan)
			if err != nil {
				return errors.Wrapf(err, "Can't render frame %d", j.plan.Frame.Index)
			}
			select {
			case results <- rendered{seq: j.seq, frame: reframe.NewFrame(j.plan.Frame.Index, img)}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// collect writes rendered frames in planning order
func (p *Pipeline) collect(ctx context.Context, sink Sink, results <-chan rendered) error {
	pending := make(map[int]reframe.Frame)
	next := 0
	for r := range results {
		pending[r.seq] = r.frame
		for {
			frame, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if err := sink.Write(ctx, frame); err != nil {
				return errors.Wrapf(err, "Can't write frame %d", frame.Index)
			}
			p.counters.incFramesOut()
			next++
		}
	}
	return nil
}
