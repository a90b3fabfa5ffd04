package worker

import (
	"context"
	"log"
	"sync"
)

// Job is one unit of pipeline work run on a worker goroutine.
type Job func(ctx context.Context)

// Pool is a fixed-size worker pool with a 1-slot input queue, so at
// most one job runs and at most one waits. Anything beyond that is
// dropped at Submit.
type Pool struct {
	jobs chan submission
	wg   sync.WaitGroup
}

type submission struct {
	ctx context.Context
	run Job
}

// New creates a started pool. Size defaults to 1 when size<=0; the
// pipeline is inherently serial so one worker is the normal shape.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{jobs: make(chan submission, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for s := range p.jobs {
				if s.ctx.Err() != nil {
					log.Printf("Worker: dropping job, context already done: %v", s.ctx.Err())
					continue
				}
				s.run(s.ctx)
			}
		}()
	}
}

// Submit enqueues a job if the single-slot queue is free. Returns
// false if the job was dropped.
func (p *Pool) Submit(ctx context.Context, run Job) bool {
	select {
	case p.jobs <- submission{ctx: ctx, run: run}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining queued work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
