package engine

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool bounds how many batches hold a browser session at the same time.
type Pool struct {
	size int64
	sem  *semaphore.Weighted
}

func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: int64(size), sem: semaphore.NewWeighted(int64(size))}
}

func (p *Pool) Size() int {
	return int(p.size)
}

// Do runs fn once a slot is free. It gives up if ctx ends while waiting.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn(ctx)
}

// Each runs fn for every key through the pool and waits for all of them.
// Errors are collected per key so one failing batch does not cancel the
// others.
func (p *Pool) Each(ctx context.Context, keys []string, fn func(ctx context.Context, key string) error) map[string]error {
	errs := make([]error, len(keys))

	var g errgroup.Group
	for i, key := range keys {
		g.Go(func() error {
			errs[i] = p.Do(ctx, func(ctx context.Context) error {
				return fn(ctx, key)
			})
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]error)
	for i, err := range errs {
		if err != nil {
			out[keys[i]] = err
		}
	}
	return out
}
