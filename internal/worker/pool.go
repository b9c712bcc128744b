package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type indexedJob struct {
	index int
	job   Job
}

type indexedResult struct {
	index  int
	result Result
}

// Pool runs jobs on a fixed number of workers. Results are addressed by
// submission index, so Wait returns them in the order jobs were submitted
// regardless of completion order.
type Pool struct {
	workers    int
	failFast   bool
	jobQueue   chan indexedJob
	results    chan indexedResult
	submitted  int
	collected  map[int]Result
	done       chan struct{}
	started    bool
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// Option configures a Pool
type Option func(*Pool)

// WithFailFast cancels the remaining jobs as soon as one returns an error
func WithFailFast() Option {
	return func(p *Pool) {
		p.failFast = true
	}
}

// NewPool creates a new worker pool with the specified number of workers.
// Jobs observe ctx; cancelling it stops work that has not started.
func NewPool(ctx context.Context, workers int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	p := &Pool{
		workers:    workers,
		jobQueue:   make(chan indexedJob, workers*2),
		results:    make(chan indexedResult, workers*2),
		collected:  make(map[int]Result),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancelFunc: cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start starts the workers and the result collector
func (p *Pool) Start() {
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	go func() {
		defer close(p.done)
		for r := range p.results {
			p.collected[r.index] = r.result
		}
	}()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case ij, ok := <-p.jobQueue:
			if !ok {
				return
			}
			if p.ctx.Err() != nil {
				return
			}
			result := ij.job.Execute(p.ctx)
			if p.failFast && result != nil && result.GetError() != nil {
				p.cancelFunc()
			}
			p.results <- indexedResult{index: ij.index, result: result}
		}
	}
}

// Submit queues job and returns its index. Submit must be called from a
// single goroutine and before Wait. Jobs submitted after the pool was
// cancelled are never executed and get a nil result.
func (p *Pool) Submit(job Job) int {
	index := p.submitted
	p.submitted++

	select {
	case <-p.ctx.Done():
	case p.jobQueue <- indexedJob{index: index, job: job}:
	}
	return index
}

// Wait waits for all jobs to complete and returns their results by
// submission index. Jobs that never ran have a nil entry.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.stop()
	defer p.cancelFunc()

	results := make([]Result, p.submitted)
	for i, r := range p.collected {
		results[i] = r
	}
	return results
}

// Shutdown cancels outstanding work and waits for workers to exit
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.stop()
}

func (p *Pool) stop() {
	p.wg.Wait()
	p.closeResults()
	if p.started {
		<-p.done
	}
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
