package pipeline

import (
	"context"
	"sync"
)

// unitResult is a per-unit fan-out outcome. A failed unit never cancels its
// siblings; callers exclude failures from downstream results.
type unitResult[R any] struct {
	Value R
	Err   error
}

// joinAll runs fn over every item with at most limit workers and waits for
// all of them. Results keep the input order.
func joinAll[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) []unitResult[R] {
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}
	results := make([]unitResult[R], len(items))
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item T) {
			defer wg.Done()
			defer func() { <-sem }()
			value, err := fn(ctx, item)
			results[i] = unitResult[R]{Value: value, Err: err}
		}(i, item)
	}
	wg.Wait()
	return results
}
