package counter

import (
	"fmt"
	"runtime"
)

// WeakCounter is a handle on a shared count that does not contribute to it. It
// observes the count and mints new Counters.
//
// A WeakCounter keeps its bound NotifyHandles connected, so it should be
// released once it is no longer needed; otherwise waits on those handles can
// never report [ErrDisconnected]. Releasing a WeakCounter does not change the
// count.
type WeakCounter struct {
	h       *handle
	cleanup runtime.Cleanup
}

// NewWeak returns a WeakCounter on a fresh count of zero.
func NewWeak() *WeakCounter {
	return NewBuilder().BuildWeak()
}

func newWeak(c *cell, s senders) *WeakCounter {
	w := &WeakCounter{h: newHandle(c, s, 0, true)}
	// An unreachable WeakCounter only holds notifier bindings, so collecting it
	// silently is the same as releasing it.
	w.cleanup = runtime.AddCleanup(w, func(h *handle) { h.release() }, w.h)
	return w
}

// Clone returns another WeakCounter on the same count.
func (w *WeakCounter) Clone() *WeakCounter {
	w.h.mustLive("Clone")
	clone := newWeak(w.h.cell, w.h.senders)
	// w must stay reachable until the clone holds its sender references,
	// otherwise collecting w could disconnect the lineage.
	runtime.KeepAlive(w)
	return clone
}

// Release detaches the WeakCounter from its bound NotifyHandles. The count is
// unchanged. Calls after the first do nothing.
func (w *WeakCounter) Release() {
	w.cleanup.Stop()
	w.h.release()
}

// Upgrade releases the WeakCounter and returns a Counter of size 1.
func (w *WeakCounter) Upgrade() *Counter {
	return w.UpgradeWithSize(1)
}

// UpgradeWithSize releases the WeakCounter and returns a Counter of the given
// size.
func (w *WeakCounter) UpgradeWithSize(size int64) *Counter {
	c := w.SpawnUpgradeWithSize(size)
	w.Release()
	return c
}

// SpawnUpgrade returns a new Counter of size 1 without releasing w.
func (w *WeakCounter) SpawnUpgrade() *Counter {
	return w.SpawnUpgradeWithSize(1)
}

// SpawnUpgradeWithSize returns a new Counter of the given size without
// releasing w. It is a cheaper equivalent of Clone followed by UpgradeWithSize.
func (w *WeakCounter) SpawnUpgradeWithSize(size int64) *Counter {
	w.h.mustLive("SpawnUpgrade")
	c := newCounter(w.h.cell, w.h.senders, size)
	runtime.KeepAlive(w)
	return c
}

// Hold runs f while holding a Counter of size 1.
func (w *WeakCounter) Hold(f func()) {
	w.HoldWithSize(1, f)
}

// HoldWithSize runs f while holding a Counter of the given size. The Counter is
// released when f returns or panics.
func (w *WeakCounter) HoldWithSize(size int64, f func()) {
	c := w.SpawnUpgradeWithSize(size)
	defer c.Release()
	f()
}

// Count returns the current value of the shared count.
//
// This method is inherently racy. Assume the count has changed by the time the
// value is observed.
func (w *WeakCounter) Count() int64 {
	return w.h.cell.load()
}

func (w *WeakCounter) String() string {
	return fmt.Sprintf("WeakCounter(count=%d)", w.Count())
}
