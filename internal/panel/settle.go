package panel

import (
	"context"

	"github.com/sourcegraph/conc/iter"
)

// Settled is the outcome of one member of a settle-all join.
type Settled[T any] struct {
	Value T
	Err   error
}

// OK reports whether the member succeeded.
func (s Settled[T]) OK() bool {
	return s.Err == nil
}

// SettleAll runs fn for every item concurrently and waits for all of them.
// Results keep input order. A failure never cancels the other members.
// maxConcurrency <= 0 runs one goroutine per item.
func SettleAll[In, Out any](ctx context.Context, items []In, maxConcurrency int, fn func(context.Context, In) (Out, error)) []Settled[Out] {
	if len(items) == 0 {
		return nil
	}
	if maxConcurrency <= 0 || maxConcurrency > len(items) {
		maxConcurrency = len(items)
	}
	mapper := iter.Mapper[In, Settled[Out]]{MaxGoroutines: maxConcurrency}
	return mapper.Map(items, func(item *In) Settled[Out] {
		v, err := fn(ctx, *item)
		return Settled[Out]{Value: v, Err: err}
	})
}

// Failed counts the failed members.
func Failed[T any](results []Settled[T]) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}
