// Package batch runs per-item work in fixed-size chunks: chunks execute one
// after another, items inside a chunk execute concurrently.
package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of fn for the item at Index.
type Outcome[T, R any] struct {
	Index int
	Input T
	Value R
	Err   error
}

// Func processes one item.
type Func[T, R any] func(ctx context.Context, item T) (R, error)

// Run applies fn to every item and returns one outcome per item in input
// order. A failing or panicking item never cancels its siblings. Once ctx is
// done, unstarted chunks are reported with ctx.Err().
func Run[T, R any](ctx context.Context, items []T, size int, fn Func[T, R]) []Outcome[T, R] {
	if size <= 0 {
		size = 1
	}
	outcomes := make([]Outcome[T, R], len(items))
	for i, item := range items {
		outcomes[i] = Outcome[T, R]{Index: i, Input: item}
	}

	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))

		if err := ctx.Err(); err != nil {
			for i := start; i < len(items); i++ {
				outcomes[i].Err = err
			}
			break
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				outcomes[i].Value, outcomes[i].Err = call(ctx, fn, items[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	return outcomes
}

func call[T, R any](ctx context.Context, fn Func[T, R], item T) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, item)
}

// Chunks returns how many chunks Run will execute for n items.
func Chunks(n, size int) int {
	if size <= 0 {
		size = 1
	}
	return (n + size - 1) / size
}
