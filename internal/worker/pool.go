package worker

import (
	"context"
	"sync"
)

// Job is a unit of work producing a result of type R
type Job[R any] interface {
	Execute(ctx context.Context) R
}

// JobFunc adapts a function to the Job interface
type JobFunc[R any] func(ctx context.Context) R

// Execute calls f
func (f JobFunc[R]) Execute(ctx context.Context) R {
	return f(ctx)
}

// Pool runs jobs on a fixed number of goroutines
type Pool[R any] struct {
	workers  int
	jobQueue chan Job[R]
	results  chan R
	wg       sync.WaitGroup
	ctx      context.Context
}

// NewPool creates a pool bound to ctx; cancelling ctx stops the workers
func NewPool[R any](ctx context.Context, workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}

	return &Pool[R]{
		workers:  workers,
		jobQueue: make(chan Job[R], workers*2),
		results:  make(chan R, workers*2),
		ctx:      ctx,
	}
}

// Start launches the workers
func (p *Pool[R]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[R]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job; it returns without queueing once the pool context ends
func (p *Pool[R]) Submit(job Job[R]) {
	select {
	case <-p.ctx.Done():
	case p.jobQueue <- job:
	}
}

// Results exposes the result stream; it is closed once Close has been called
// and every queued job has finished
func (p *Pool[R]) Results() <-chan R {
	return p.results
}

// Close stops accepting jobs and closes Results when the workers drain
func (p *Pool[R]) Close() {
	close(p.jobQueue)
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}
