package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLimiter_SlotAccounting(t *testing.T) {
	l := NewGenerateLimiter(2, time.Second)
	ctx := context.Background()
	assert.Equal(t, 2, l.Available())

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	assert.Equal(t, 2, l.ActiveCount())
	assert.Equal(t, 0, l.Available())

	l.Release()
	l.Release()
	assert.Equal(t, 0, l.ActiveCount())
	assert.Equal(t, 2, l.Available())
	assert.Equal(t, uint64(2), l.Status().Served)
}

func TestGenerateLimiter_FullLimiterRejectsAfterWait(t *testing.T) {
	l := NewGenerateLimiter(1, 50*time.Millisecond)
	require.True(t, l.TryAcquire())
	defer l.Release()

	began := time.Now()
	err := l.Acquire(context.Background())
	require.ErrorIs(t, err, ErrTooManyGenerations)
	assert.GreaterOrEqual(t, time.Since(began), 40*time.Millisecond)
	assert.Equal(t, "GEN001", MapError(err).Code)
	assert.Equal(t, uint64(1), l.Status().Rejected)
}

func TestGenerateLimiter_WaiterGetsFreedSlot(t *testing.T) {
	l := NewGenerateLimiter(1, time.Second)
	require.True(t, l.TryAcquire())

	got := make(chan error, 1)
	go func() { got <- l.Acquire(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	l.Release()

	select {
	case err := <-got:
		require.NoError(t, err)
		assert.Equal(t, 1, l.ActiveCount())
		l.Release()
	case <-time.After(time.Second):
		t.Fatal("waiter never received the released slot")
	}
}

func TestGenerateLimiter_CallerCancels(t *testing.T) {
	l := NewGenerateLimiter(1, 5*time.Second)
	require.True(t, l.TryAcquire())
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan error, 1)
	go func() { got <- l.Acquire(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-got:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, l.Status().Rejected, "cancellation is not a rejection")
	case <-time.After(time.Second):
		t.Fatal("Acquire ignored cancellation")
	}
}

func TestGenerateLimiter_ConcurrencyCap(t *testing.T) {
	const slots = 3
	l := NewGenerateLimiter(slots, time.Second)

	var (
		wg   sync.WaitGroup
		peak atomic.Int32
		cur  atomic.Int32
	)
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			n := cur.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			cur.Add(-1)
			l.Release()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, int(peak.Load()), slots)
	assert.Equal(t, uint64(12), l.Status().Served)
}

func TestGenerateLimiter_WaitForDrain(t *testing.T) {
	l := NewGenerateLimiter(2, time.Second)
	require.NoError(t, l.WaitForDrain(context.Background()), "idle limiter drains at once")

	require.True(t, l.TryAcquire())
	done := make(chan error, 1)
	go func() { done <- l.WaitForDrain(context.Background()) }()

	select {
	case <-done:
		t.Fatal("drained with a slot still held")
	case <-time.After(30 * time.Millisecond):
	}

	l.Release()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitForDrain did not return after release")
	}
}

func TestGenerateLimiter_DrainDeadline(t *testing.T) {
	l := NewGenerateLimiter(1, time.Second)
	require.True(t, l.TryAcquire())
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.WaitForDrain(ctx), context.DeadlineExceeded)
}

func TestGenerateLimiter_Defaults(t *testing.T) {
	st := NewGenerateLimiter(0, 0).Status()
	assert.Equal(t, LimiterStatus{Available: DefaultMaxConcurrent, MaxConcurrent: DefaultMaxConcurrent}, st)
}

func TestGenerateLimiter_UnbalancedReleasePanics(t *testing.T) {
	assert.Panics(t, func() { NewGenerateLimiter(1, time.Second).Release() })
}
