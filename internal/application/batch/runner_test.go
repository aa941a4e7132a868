package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPreservesOrderAndCapturesFailures(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	boom := errors.New("boom")

	outcomes := Run(context.Background(), items, 3, func(_ context.Context, n int) (int, error) {
		if n == 5 {
			return 0, boom
		}
		if n == 6 {
			panic("bad item")
		}
		return n * 10, nil
	})

	require.Len(t, outcomes, len(items))
	for i, o := range outcomes {
		assert.Equal(t, i, o.Index)
		assert.Equal(t, items[i], o.Input)
	}
	assert.Equal(t, 10, outcomes[0].Value)
	assert.ErrorIs(t, outcomes[4].Err, boom)
	assert.ErrorContains(t, outcomes[5].Err, "panic: bad item")
	assert.NoError(t, outcomes[6].Err)
	assert.Equal(t, 70, outcomes[6].Value)
}

func TestRunBoundsConcurrencyToChunk(t *testing.T) {
	var inFlight, peak int32
	items := make([]int, 12)

	Run(context.Background(), items, 5, func(_ context.Context, _ int) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(5))
}

func TestRunChunksAreSequential(t *testing.T) {
	var mu sync.Mutex
	var order []int

	Run(context.Background(), []int{0, 1, 2, 3}, 2, func(_ context.Context, n int) (int, error) {
		if n < 2 {
			time.Sleep(10 * time.Millisecond)
		}
		mu.Lock()
		order = append(order, n)
		mu.Unlock()
		return n, nil
	})

	require.Len(t, order, 4)
	assert.ElementsMatch(t, []int{0, 1}, order[:2])
	assert.ElementsMatch(t, []int{2, 3}, order[2:])
}

func TestRunStopsAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := int32(0)

	outcomes := Run(ctx, []int{1, 2, 3, 4}, 2, func(_ context.Context, n int) (int, error) {
		atomic.AddInt32(&calls, 1)
		cancel()
		return n, nil
	})

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.ErrorIs(t, outcomes[2].Err, context.Canceled)
	assert.ErrorIs(t, outcomes[3].Err, context.Canceled)
}

func TestChunks(t *testing.T) {
	assert.Equal(t, 0, Chunks(0, 5))
	assert.Equal(t, 2, Chunks(7, 5))
	assert.Equal(t, 3, Chunks(3, 0))
}
