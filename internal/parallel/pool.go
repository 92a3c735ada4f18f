// Package parallel fans whole reduction lines out to a fixed set of
// workers. The reduction core itself is single-threaded and pure; each
// line derives its own persistent graph chain from a shared input, so
// workers never share mutable state.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrPoolClosed is returned by Go after Close.
var ErrPoolClosed = errors.New("parallel: pool is closed")

// Pool runs independent lines on a bounded set of workers and tracks the
// lines it has accepted, so callers wait on the pool instead of keeping
// their own counters. The task queue is sized to the worker count and
// gives backpressure when every worker is busy.
type Pool struct {
	lines    chan func()
	workers  sync.WaitGroup
	inflight sync.WaitGroup
	quit     chan struct{}
	closed   sync.Once
}

// New returns a pool with the given number of workers. Zero or negative
// selects one worker per CPU.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		lines: make(chan func(), workers),
		quit:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.workers.Add(1)
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.workers.Done()
	for {
		select {
		case line := <-p.lines:
			line()
			p.inflight.Done()
		case <-p.quit:
			return
		}
	}
}

// Go schedules one line on a worker. It blocks while every worker is
// busy and the queue is full, and fails when ctx is done or the pool is
// closed first.
func (p *Pool) Go(ctx context.Context, line func()) error {
	p.inflight.Add(1)
	select {
	case p.lines <- line:
		return nil
	case <-ctx.Done():
		p.inflight.Done()
		return ctx.Err()
	case <-p.quit:
		p.inflight.Done()
		return ErrPoolClosed
	}
}

// Wait blocks until every line accepted by Go has finished.
func (p *Pool) Wait() {
	p.inflight.Wait()
}

// Close stops the workers and discards lines still queued, so a Wait
// after Close cannot hang on work that will never run. Close after Wait
// to let accepted lines finish.
func (p *Pool) Close() {
	p.closed.Do(func() {
		close(p.quit)
		p.workers.Wait()
		for {
			select {
			case <-p.lines:
				p.inflight.Done()
			default:
				return
			}
		}
	})
}
