package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/pkg/async"
)

func double(_ context.Context, n int) (int, error) {
	return n * 2, nil
}

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("returns result", func(t *testing.T) {
		t.Parallel()

		res, err := async.Async(context.Background(), 21, double).Await()
		require.NoError(t, err)
		assert.Equal(t, 42, res)
	})

	t.Run("returns error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		_, err := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
			return 0, boom
		}).Await()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("canceled context short-circuits", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		_, err := async.Async(ctx, 1, func(context.Context, int) (int, error) {
			called = true
			return 0, nil
		}).Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("recovers panic", func(t *testing.T) {
		t.Parallel()

		_, err := async.Async(context.Background(), 1, func(context.Context, int) (int, error) {
			panic("bad")
		}).Await()
		assert.ErrorIs(t, err, async.ErrPanic)
	})
}

func TestDetach_IgnoresParentCancellation(t *testing.T) {
	t.Parallel()

	type key struct{}
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "kept"))

	started := make(chan struct{})
	release := make(chan struct{})
	future := async.Detach(ctx, 0, func(ctx context.Context, _ int) (string, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return ctx.Value(key{}).(string), nil
	})

	<-started
	cancel()
	close(release)

	res, err := future.Await()
	require.NoError(t, err)
	assert.Equal(t, "kept", res)
}

func TestFuture_AwaitWithTimeout(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	defer close(block)

	future := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
		<-block
		return 1, nil
	})

	_, err := future.AwaitWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, async.ErrTimeout)
	assert.False(t, future.IsComplete())
}

func TestWaitAll(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	ctx := context.Background()
	futures := []*async.Future[int]{
		async.Async(ctx, 1, double),
		async.Async(ctx, 2, func(context.Context, int) (int, error) { return 0, boom }),
		async.Async(ctx, 3, double),
	}

	results, err := async.WaitAll(futures...)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{2, 0, 6}, results)
}
