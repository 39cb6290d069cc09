package workers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ternarybob/arbor"
)

// Job is one unit of work. It receives the pool context, which is cancelled
// as soon as any job fails.
type Job func(ctx context.Context) error

// Pool runs jobs on a fixed number of goroutines and stops at the first failure
type Pool struct {
	size   int
	queue  chan Job
	ctx    context.Context
	cancel context.CancelFunc
	logger arbor.ILogger

	wg        sync.WaitGroup
	closeOnce sync.Once
	errOnce   sync.Once
	firstErr  error
	completed atomic.Int64
	failed    atomic.Int64
}

// NewPool creates a pool of size workers bound to parent. A size below 1 means 1.
func NewPool(parent context.Context, size int, logger arbor.ILogger) *Pool {
	if size < 1 {
		size = 1
	}

	ctx, cancel := context.WithCancel(parent)
	return &Pool{
		size:   size,
		queue:  make(chan Job, size),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.logger.Debug().Int("workers", p.size).Msg("Starting worker pool")

	p.wg.Add(p.size)
	for i := 0; i < p.size; i++ {
		go p.run(i)
	}
}

// Submit queues a job, blocking while the queue is full.
// It fails once the pool context is done.
func (p *Pool) Submit(job Job) error {
	if err := p.ctx.Err(); err != nil {
		return fmt.Errorf("worker pool stopped: %w", err)
	}

	select {
	case p.queue <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool stopped: %w", p.ctx.Err())
	}
}

// Wait closes the queue, waits for the workers to drain it and returns the first job error.
// Calling Wait more than once is safe.
func (p *Pool) Wait() error {
	p.closeOnce.Do(func() { close(p.queue) })
	p.wg.Wait()
	p.cancel()
	return p.firstErr
}

// Completed returns how many jobs finished without error
func (p *Pool) Completed() int {
	return int(p.completed.Load())
}

// Failed returns how many jobs returned an error
func (p *Pool) Failed() int {
	return int(p.failed.Load())
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.queue:
			if !ok || p.ctx.Err() != nil {
				return
			}
			if err := job(p.ctx); err != nil {
				p.fail(id, err)
				continue
			}
			p.completed.Add(1)
		}
	}
}

func (p *Pool) fail(id int, err error) {
	p.failed.Add(1)
	p.errOnce.Do(func() {
		p.firstErr = err
		p.logger.Warn().Err(err).Int("worker", id).Msg("Job failed, stopping pool")
		p.cancel()
	})
}
