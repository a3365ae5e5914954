package workerpool

import (
	"context"
	"iter"
	"sync"
)

// Group tracks a set of tasks scheduled on a pool and yields their results
// in completion order.
type Group[T any] struct {
	ctx  context.Context
	pool *Pool

	mu        sync.Mutex
	scheduled int
	completed []*Future[T]
	notify    chan struct{}
}

// NewGroup creates a group whose tasks run on p and receive ctx.
func NewGroup[T any](ctx context.Context, p *Pool) *Group[T] {
	return &Group[T]{ctx: ctx, pool: p, notify: make(chan struct{}, 1)}
}

// Schedule submits task as part of the group.
func (g *Group[T]) Schedule(task func(context.Context) (T, error)) *Future[T] {
	g.mu.Lock()
	g.scheduled++
	g.mu.Unlock()
	return submit(g.ctx, g.pool, task, g.complete)
}

func (g *Group[T]) complete(f *Future[T]) {
	g.mu.Lock()
	g.completed = append(g.completed, f)
	g.mu.Unlock()
	select {
	case g.notify <- struct{}{}:
	default:
	}
}

// Len returns the number of scheduled tasks.
func (g *Group[T]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scheduled
}

// Collect yields the result of every task scheduled so far, in the order the
// tasks complete. Iteration blocks until the next task completes and ends once
// all of them were yielded or ctx is done. Stopping early leaves the remaining
// tasks running. Tasks scheduled after Collect was called are not yielded.
func (g *Group[T]) Collect(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		total := g.Len()
		for i := 0; i < total; i++ {
			f, ok := g.next(ctx, i)
			if !ok {
				return
			}
			v, err := f.Result()
			if !yield(v, err) {
				return
			}
		}
	}
}

// next waits for the i-th completion.
func (g *Group[T]) next(ctx context.Context, i int) (*Future[T], bool) {
	for {
		g.mu.Lock()
		if i < len(g.completed) {
			f := g.completed[i]
			g.mu.Unlock()
			return f, true
		}
		g.mu.Unlock()

		select {
		case <-g.notify:
		case <-ctx.Done():
			return nil, false
		}
	}
}
