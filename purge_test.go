package lrudict

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurgeOrderingWithinGoroutine pins down §4.6's ordering guarantee:
// evictions appended in program order within one goroutine are delivered
// to the callback in that same order.
func TestPurgeOrderingWithinGoroutine(t *testing.T) {
	var delivered []int
	d, err := New[int, int](1, WithCallback(func(k, v int) error {
		delivered = append(delivered, k)
		return nil
	}))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, d.Assign(i, i))
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, delivered)
}

// TestPurgeSuspendedSkipsAutomaticDrain verifies that with
// WithPurgeSuspended, evictions accumulate on the purge queue instead of
// being delivered at the end of each write, but Purge() still drains them
// on request.
func TestPurgeSuspendedSkipsAutomaticDrain(t *testing.T) {
	var delivered int
	d, err := New[int, int](1,
		WithCallback(func(k, v int) error {
			delivered++
			return nil
		}),
		WithPurgeSuspended[int, int](true),
	)
	require.NoError(t, err)

	require.NoError(t, d.Assign(0, 0))
	require.NoError(t, d.Assign(1, 1))
	require.NoError(t, d.Assign(2, 2))

	assert.Equal(t, 0, delivered, "automatic drain must be skipped while purge is suspended")
	assert.Equal(t, 2, d.PurgeQueueSize())

	n, err := d.Purge()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, delivered)
	assert.Equal(t, 0, d.PurgeQueueSize())
}

// TestSwallowedCallbackErrorContinuesDrain confirms an ordinary callback
// error is routed to the unraisable hook and the drain proceeds to the
// next item rather than stopping.
func TestSwallowedCallbackErrorContinuesDrain(t *testing.T) {
	var seen []int
	d, err := New[int, int](1, WithCallback(func(k, v int) error {
		seen = append(seen, k)
		return errors.New("ordinary callback failure")
	}))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Assign(i, i))
	}

	assert.Equal(t, []int{0, 1, 2, 3}, seen, "an ordinary error must not stop the drain")
}

// TestFatalCallbackErrorAbandonsDrain confirms a callback returning
// ErrShutdown aborts the drain loop and propagates to the caller of the
// write that triggered it.
func TestFatalCallbackErrorAbandonsDrain(t *testing.T) {
	var seen []int
	d, err := New[int, int](1, WithCallback(func(k, v int) error {
		seen = append(seen, k)
		if k == 2 {
			return ErrShutdown
		}
		return nil
	}))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Assign(i, i))
	}
	err = d.Assign(3, 3)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShutdown)
	assert.Equal(t, []int{0, 1, 2}, seen, "the drain must stop at the shutdown-signaling item")
}

// TestCallbackPanicBecomesFatalCallbackError confirms a panicking
// callback is recovered, reported as a *FatalCallbackError, and does not
// crash the caller's goroutine.
func TestCallbackPanicBecomesFatalCallbackError(t *testing.T) {
	d, err := New[int, int](1, WithCallback(func(k, v int) error {
		panic(fmt.Sprintf("boom at key %d", k))
	}))
	require.NoError(t, err)

	require.NoError(t, d.Assign(0, 0))
	err = d.Assign(1, 1)

	var fatal *FatalCallbackError
	require.Error(t, err)
	assert.ErrorAs(t, err, &fatal)
}

// TestPurgeReturnsZeroWhenNothingPending confirms Purge is a safe no-op
// on an empty queue.
func TestPurgeReturnsZeroWhenNothingPending(t *testing.T) {
	d, err := New[int, int](4)
	require.NoError(t, err)

	n, err := d.Purge()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// TestPendingMaxBoundsConcurrentDrains exercises WithPendingMax(1): a
// callback that blocks until signaled holds one drain worker occupied, so
// a second, concurrently-triggered drain attempt must return 0 rather
// than block, per §4.6 "if pending == PENDING_MAX".
func TestPendingMaxBoundsConcurrentDrains(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)

	d, err := New[int, int](1,
		WithPendingMax[int, int](1),
		WithCallback(func(k, v int) error {
			select {
			case entered <- struct{}{}:
			default:
			}
			<-release
			return nil
		}),
	)
	require.NoError(t, err)

	require.NoError(t, d.Assign(0, 0))
	done := make(chan error, 1)
	go func() {
		done <- d.Assign(1, 1)
	}()

	<-entered
	n, err := d.Purge()
	require.NoError(t, err)
	assert.Equal(t, 0, n, "the single pending slot is already held by the blocked drain worker")

	close(release)
	require.NoError(t, <-done)
}
