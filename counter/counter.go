package counter

import (
	"fmt"
	"runtime"
)

// Counter is a strong handle on a shared count. While a Counter is held, its
// size is part of the count; Release takes it back out.
//
// Counters are created by a [Builder], by [Counter.Clone], or by upgrading a
// [WeakCounter]. Every Counter must be released exactly once, typically with a
// deferred call right after it was obtained:
//
//	c := weak.SpawnUpgrade()
//	defer c.Release()
//
// A Counter may be used from any goroutine, but it must not be used concurrently
// with its own Release.
type Counter struct {
	h       *handle
	cleanup runtime.Cleanup
}

// New returns a Counter of size 1 on a fresh count.
func New() *Counter {
	return NewBuilder().Build()
}

// NewWithSize returns a Counter of the given size on a fresh count.
func NewWithSize(size int64) *Counter {
	return NewBuilder().Size(size).Build()
}

func newCounter(c *cell, s senders, size int64) *Counter {
	if size < 0 {
		panicNegativeSize(size)
	}
	ctr := &Counter{h: newHandle(c, s, size, false)}
	ctr.cleanup = runtime.AddCleanup(ctr, releaseLeaked, ctr.h)
	return ctr
}

// releaseLeaked runs when a Counter became unreachable without Release.
func releaseLeaked(h *handle) {
	if h.release() {
		h.cell.log.Error(errLeaked, "Released leaked Counter", "size", h.size, "count", h.cell.load())
	}
}

// Clone adds the Counter's size to the count again and returns an independent
// Counter of the same size, bound to the same NotifyHandles.
func (c *Counter) Clone() *Counter {
	c.h.mustLive("Clone")
	clone := newCounter(c.h.cell, c.h.senders, c.h.size)
	// c must stay reachable until the clone holds its sender references,
	// otherwise the leak guard could release c and disconnect the lineage.
	runtime.KeepAlive(c)
	return clone
}

// Release subtracts the Counter's size from the count and signals every bound
// NotifyHandle. Calls after the first do nothing.
func (c *Counter) Release() {
	c.cleanup.Stop()
	c.h.release()
}

// Downgrade releases the Counter and returns a WeakCounter on the same count.
// The size is removed with a single atomic operation, so no reader of Count
// sees an intermediate value.
func (c *Counter) Downgrade() *WeakCounter {
	c.h.mustLive("Downgrade")
	w := newWeak(c.h.cell, c.h.senders)
	c.Release()
	return w
}

// SpawnDowngrade returns a WeakCounter on the same count without releasing c.
// The count does not change.
func (c *Counter) SpawnDowngrade() *WeakCounter {
	c.h.mustLive("SpawnDowngrade")
	w := newWeak(c.h.cell, c.h.senders)
	runtime.KeepAlive(c)
	return w
}

// Count returns the current value of the shared count.
//
// This method is inherently racy. Assume the count has changed by the time the
// value is observed.
func (c *Counter) Count() int64 {
	return c.h.cell.load()
}

// Size returns the weight this Counter contributes to the count.
func (c *Counter) Size() int64 {
	return c.h.size
}

// String returns "Counter(count=N)". This enables direct printing of counters
// in fmt operations.
func (c *Counter) String() string {
	return fmt.Sprintf("Counter(count=%d)", c.Count())
}
