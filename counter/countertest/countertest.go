// Package countertest provides utilities for testing code that holds or waits
// on counters from the counter package.
//
// # Overview
//
// [Spawn] hands out Counters whose release is tied to the test's cleanup, so a
// test can keep a known weight alive without tracking Release calls itself.
// [RequireCount] asserts the current count of anything that has one. [Churn]
// stresses a lineage with concurrent clones and releases and verifies that the
// count is back where it started.
//
// # Example Usage
//
//	weak := counter.NewWeak()
//	t.Cleanup(weak.Release)
//	countertest.Spawn(t, weak, 3, 2)
//	countertest.RequireCount(t, weak, 6)
package countertest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notorious-go/livecount/counter"
)

// Source is anything with a count: Counters, WeakCounters and NotifyHandles.
type Source interface {
	Count() int64
}

// Spawn upgrades w n times with the given size and returns the Counters. They
// are released when the test finishes, unless the test releases them earlier.
func Spawn(t testing.TB, w *counter.WeakCounter, n int, size int64) []*counter.Counter {
	t.Helper()

	held := make([]*counter.Counter, 0, n)
	for range n {
		held = append(held, w.SpawnUpgradeWithSize(size))
	}
	t.Cleanup(func() {
		for _, c := range held {
			c.Release()
		}
	})
	return held
}

// RequireCount fails the test immediately if src does not currently count want.
func RequireCount(t testing.TB, src Source, want int64) {
	t.Helper()
	require.Equal(t, want, src.Count(), "unexpected count")
}

// Churn runs the given number of goroutines, each cloning and releasing a
// Counter spawned from w for the given number of iterations, and verifies that
// the count is unchanged afterwards.
//
// The goroutines mix every way of deriving a handle: upgrades, clones and
// downgrades. Churn assumes nothing else mutates the count concurrently.
func Churn(t testing.TB, w *counter.WeakCounter, goroutines, iterations int) {
	t.Helper()

	before := w.Count()
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range iterations {
				c := w.SpawnUpgradeWithSize(int64(i%3 + 1))
				clone := c.Clone()
				weak := clone.Downgrade()
				weak.Hold(func() {})
				weak.Release()
				c.Release()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, before, w.Count(), "count changed after balanced clones and releases")
}
