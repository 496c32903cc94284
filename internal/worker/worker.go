package worker

import (
	"context"
	"sync"
	"time"

	"ttlearn/app"
	"ttlearn/domain/run"
	"ttlearn/internal"
	"ttlearn/internal/errors"
)

// Job pairs a recorded run with the request that produced it.
type Job struct {
	Run *run.Run
	Req app.AnalysisRequest
}

// Notifier receives terminal run states for fan-out to connected clients.
type Notifier interface {
	RunFinished(rn run.Run)
}

// Worker drains queued analysis jobs one at a time so concurrent submissions
// cannot interleave their progress output.
type Worker struct {
	service  *app.AnalysisService
	jobs     chan Job
	notifier Notifier
	logger   *internal.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a worker with room for queueSize pending jobs.
func New(service *app.AnalysisService, queueSize int) *Worker {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Worker{
		service: service,
		jobs:    make(chan Job, queueSize),
		logger:  internal.NewDefaultLogger(),
	}
}

// SetNotifier installs the terminal state notifier. Call before Start.
func (w *Worker) SetNotifier(n Notifier) {
	w.notifier = n
}

// Start launches the processing goroutine. Starting a worker that is already
// running is an error.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.InternalError("analysis worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.loop(ctx)
	return nil
}

// Submit queues a job without blocking. A full queue rejects the job so the
// caller can report backpressure instead of hanging.
func (w *Worker) Submit(job Job) error {
	select {
	case w.jobs <- job:
		return nil
	default:
		return errors.InvalidInput("analysis queue is full")
	}
}

// Stop signals the worker to finish its current job and waits for the
// goroutine to exit. Stopping a stopped worker is a no-op.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			w.process(ctx, job)
		}
	}
}

func (w *Worker) process(ctx context.Context, job Job) {
	start := time.Now()
	err := w.service.Execute(ctx, job.Run, job.Req)

	if w.notifier != nil {
		w.notifier.RunFinished(*job.Run)
	}

	if err != nil {
		w.logger.Error("run %s failed after %s: %v", job.Run.ID, time.Since(start).Round(time.Millisecond), err)
		return
	}
	w.logger.Info("run %s completed in %s", job.Run.ID, time.Since(start).Round(time.Millisecond))
}
