package inflight_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/notorious-go/livecount/counter"
	"github.com/notorious-go/livecount/inflight"
)

func TestGroupWait(t *testing.T) {
	g := inflight.New(inflight.WithLogger(testr.New(t)))

	var ran atomic.Int64
	for i := range 10 {
		g.GoWithSize(int64(i%2+1), func() {
			time.Sleep(time.Duration(i) * time.Millisecond)
			ran.Inc()
		})
	}
	g.Wait()
	require.EqualValues(t, 10, ran.Load())
	require.EqualValues(t, 0, g.Count())
}

func TestGroupCountsWeightWhileRunning(t *testing.T) {
	g := inflight.New()

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)
	g.GoWithSize(3, func() {
		started.Done()
		<-release
	})
	g.Go(func() {
		started.Done()
		<-release
	})
	started.Wait()
	require.EqualValues(t, 4, g.Count())

	require.ErrorIs(t, g.WaitTimeout(10*time.Millisecond), counter.ErrTimeout)

	close(release)
	require.NoError(t, g.WaitTimeout(10*time.Second))
}

func TestGroupLimit(t *testing.T) {
	g := inflight.New(inflight.WithLimit(2))
	require.EqualValues(t, 2, g.Limit())

	var running, peak atomic.Int64
	for range 20 {
		g.Go(func() {
			n := running.Inc()
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			running.Dec()
		})
	}
	g.Wait()
	require.LessOrEqual(t, peak.Load(), int64(2))
	require.Positive(t, peak.Load())
}

func TestGroupTryGo(t *testing.T) {
	g := inflight.New(inflight.WithLimit(1))

	release := make(chan struct{})
	require.True(t, g.TryGo(func() { <-release }))
	require.False(t, g.TryGo(func() { t.Error("must not run") }))

	close(release)
	g.Wait()
	require.True(t, g.TryGo(func() {}))
	g.Wait()
}

func TestGroupGoContext(t *testing.T) {
	g := inflight.New(inflight.WithLimit(2))

	release := make(chan struct{})
	require.NoError(t, g.GoContext(t.Context(), 2, func() { <-release }))

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	err := g.GoContext(ctx, 1, func() { t.Error("must not run") })
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.EqualValues(t, 2, g.Count())

	close(release)
	g.Wait()
}

func TestGroupConcurrentWaiters(t *testing.T) {
	g := inflight.New()

	release := make(chan struct{})
	g.Go(func() { <-release })

	var waiters sync.WaitGroup
	for range 4 {
		waiters.Add(1)
		go func() {
			defer waiters.Done()
			assert.NoError(t, g.WaitContext(t.Context()))
		}()
	}
	close(release)
	waiters.Wait()
	require.EqualValues(t, 0, g.Count())
}

func TestGroupSetLimit(t *testing.T) {
	g := inflight.New(inflight.WithLogger(testr.New(t)))
	require.Negative(t, g.Limit())
	require.Equal(t, "Group(inflight=0, unlimited)", g.String())

	g.SetLimit(3)
	require.Equal(t, "Group(inflight=0/3)", g.String())

	release := make(chan struct{})
	g.Go(func() { <-release })
	require.Panics(t, func() { g.SetLimit(1) })

	close(release)
	g.Wait()
	g.SetLimit(-1)
	require.Negative(t, g.Limit())
}

func TestGroupWeightAboveLimitPanics(t *testing.T) {
	g := inflight.New(inflight.WithLimit(2))

	var started atomic.Bool
	require.Panics(t, func() { g.GoWithSize(3, func() { started.Store(true) }) })
	require.Panics(t, func() { _ = g.GoContext(context.Background(), 3, func() { started.Store(true) }) })
	require.False(t, started.Load())
	require.Zero(t, g.Count())

	// A weight equal to the limit still runs.
	g.GoWithSize(2, func() { started.Store(true) })
	g.Wait()
	require.True(t, started.Load())

	g.SetLimit(0)
	require.Panics(t, func() { g.Go(func() {}) })
	require.False(t, g.TryGo(func() {}))
}
