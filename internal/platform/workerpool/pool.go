// Package workerpool provides a bounded pool of worker goroutines and typed
// futures for the work submitted to it.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// ErrClosed is returned by futures whose task was submitted after Close.
var ErrClosed = errors.New("worker pool is closed")

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers sets the number of workers. Non-positive values are ignored.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the logger used to report recovered panics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// DefaultWorkers is twice the available parallelism.
func DefaultWorkers() int {
	return 2 * runtime.GOMAXPROCS(0)
}

// Pool runs submitted tasks on a fixed set of workers in FIFO order.
// Submission never blocks; the queue is unbounded.
type Pool struct {
	workers int
	logger  *slog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	wg     sync.WaitGroup
}

// New starts a pool.
func New(opts ...Option) *Pool {
	p := &Pool{workers: DefaultWorkers(), logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(p.workers)
	for range p.workers {
		go p.work()
	}
	return p
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.workers
}

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		job := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		job()
	}
}

// enqueue adds job to the queue and reports false when the pool is closed.
func (p *Pool) enqueue(job func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.queue = append(p.queue, job)
	p.cond.Signal()
	return true
}

// Close stops accepting work, lets the workers drain the queue and waits for them.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}

// Future is the pending result of a submitted task.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task finished or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome of a finished task. It must only be called after Done is closed.
func (f *Future[T]) Result() (T, error) {
	return f.value, f.err
}

// Submit queues task on p. The context is passed to the task untouched;
// a cancelled context does not remove the task from the queue.
func Submit[T any](ctx context.Context, p *Pool, task func(context.Context) (T, error)) *Future[T] {
	return submit(ctx, p, task, nil)
}

func submit[T any](ctx context.Context, p *Pool, task func(context.Context) (T, error), onDone func(*Future[T])) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	finish := func() {
		close(f.done)
		if onDone != nil {
			onDone(f)
		}
	}
	job := func() {
		defer finish()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("worker task panicked", "panic", r)
				f.err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		f.value, f.err = task(ctx)
	}
	if !p.enqueue(job) {
		f.err = ErrClosed
		finish()
	}
	return f
}
