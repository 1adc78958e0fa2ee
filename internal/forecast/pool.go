package forecast

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"tourist-untrap-backend/internal/crowd"
	"tourist-untrap-backend/internal/logging"
)

// Job asks a worker for the prediction of one attraction.
type Job struct {
	Ctx          context.Context
	AttractionID uuid.UUID
	Target       time.Time
	Done         func(p crowd.Prediction, found bool, err error)
}

// ErrPoolClosed is returned by Dispatch once the pool's context has ended.
var ErrPoolClosed = errors.New("worker pool is closed")

// predictFunc evaluates a single job.
type predictFunc func(ctx context.Context, attractionID uuid.UUID, target time.Time) (crowd.Prediction, bool, error)

// WorkerPool evaluates prediction jobs on a fixed number of goroutines.
// The jobs channel is unbuffered, so a job accepted by Dispatch is always
// held by a worker and its Done callback always runs.
type WorkerPool struct {
	size    int
	jobs    chan Job
	closed  chan struct{}
	predict predictFunc
	started atomic.Bool
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, predict predictFunc) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job),
		closed:  make(chan struct{}),
		predict: predict,
	}
}

// Start launches the worker goroutines. They exit when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	if !wp.started.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
	go func() {
		<-ctx.Done()
		close(wp.closed)
	}()
}

// Started reports whether Start has been called.
func (wp *WorkerPool) Started() bool {
	return wp.started.Load()
}

// Closed is closed once the pool's context has ended.
func (wp *WorkerPool) Closed() <-chan struct{} {
	return wp.closed
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := logging.With("forecast")
	log.Debug().Int("worker", id).Msg("worker started")
	for {
		select {
		case job := <-wp.jobs:
			wp.run(ctx, job)
		case <-ctx.Done():
			log.Debug().Int("worker", id).Msg("worker shutting down")
			return
		}
	}
}

func (wp *WorkerPool) run(poolCtx context.Context, job Job) {
	if err := poolCtx.Err(); err != nil {
		job.Done(crowd.Prediction{}, false, ErrPoolClosed)
		return
	}
	if err := job.Ctx.Err(); err != nil {
		job.Done(crowd.Prediction{}, false, err)
		return
	}
	p, found, err := wp.predict(job.Ctx, job.AttractionID, job.Target)
	job.Done(p, found, err)
}

// Dispatch hands a job to a worker. It gives up when the job's context ends
// or the pool closes first; in that case Done is never called.
func (wp *WorkerPool) Dispatch(job Job) error {
	select {
	case <-wp.closed:
		return ErrPoolClosed
	default:
	}
	select {
	case wp.jobs <- job:
		return nil
	case <-wp.closed:
		return ErrPoolClosed
	case <-job.Ctx.Done():
		return job.Ctx.Err()
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Job {
	return wp.jobs
}
