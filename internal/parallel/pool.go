// Package parallel provides the bounded worker pool shared by the
// reasoner engine's inference workers: a fixed-size goroutine pool with a
// bounded backing channel, panic-isolated task execution, and graceful
// shutdown.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/gitrdm/kifreasoner/internal/diag"
)

// ErrPoolShutdown is returned by Submit once the pool has been shut down.
var ErrPoolShutdown = errors.New("parallel: pool has been shut down")

// Pool is a fixed-size worker pool. Unlike a dynamically-scaling pool,
// its worker count never changes after construction — the reasoner
// engine starts config.Tunables.InferenceWorkers of these (max(2,
// NumCPU()/2) by default), and that count does not adapt at runtime.
type Pool struct {
	workers      int
	taskChan     chan func()
	wg           sync.WaitGroup
	shutdownChan chan struct{}
	once         sync.Once
}

// New starts a Pool with the given number of workers. A non-positive
// count defaults to runtime.NumCPU().
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		workers:      workers,
		taskChan:     make(chan func(), workers*2),
		shutdownChan: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case task, ok := <-p.taskChan:
			if !ok {
				return
			}
			p.runTask(task)
		case <-p.shutdownChan:
			return
		}
	}
}

func (p *Pool) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			diag.Log(diag.InternalInvariant, "inference worker task panicked", diag.Fields{"panic": r})
		}
	}()
	task()
}

// Submit enqueues task, blocking until a slot is free, ctx is done, or the
// pool is shut down.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	select {
	case p.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.shutdownChan:
		return ErrPoolShutdown
	}
}

// Shutdown signals every worker to stop and blocks until all have
// returned. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.shutdownChan)
	})
	p.wg.Wait()
}

// ShutdownContext shuts the pool down, returning early with ctx's error if
// the graceful drain does not finish before ctx is done. Workers that are
// still mid-task when the deadline passes are left to exit on their own —
// Go has no mechanism to force-kill a goroutine, so this is the graceful-
// then-abandon approximation the design calls for.
func (p *Pool) ShutdownContext(ctx context.Context) error {
	p.once.Do(func() {
		close(p.shutdownChan)
	})
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WorkerCount returns the fixed number of workers this pool was started
// with.
func (p *Pool) WorkerCount() int { return p.workers }

// QueueDepth returns the current number of tasks waiting to be picked up
// by a worker.
func (p *Pool) QueueDepth() int { return len(p.taskChan) }
