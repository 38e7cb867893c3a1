package counter

import (
	"github.com/go-logr/logr"
	"go.uber.org/atomic"
)

// A cell is the count shared by every handle of one lineage. It is reclaimed by
// the garbage collector once the last handle referencing it is gone.
type cell struct {
	count atomic.Int64
	// log is set once when the Builder is finalized, before any handle can read it.
	log logr.Logger
}

// load returns the current count. All sync/atomic operations are sequentially
// consistent, so a waiter woken by a mutation always observes that mutation.
func (c *cell) load() int64 {
	return c.count.Load()
}

// add applies delta and asserts that the count did not go negative. Handles
// carry their own weight and release at most once, so a negative count means
// the cell was corrupted.
func (c *cell) add(delta int64) {
	if n := c.count.Add(delta); n < 0 {
		panicUnderflow(n)
	}
}

// senders is the list of notifiers bound to a lineage. The list is fixed when
// the Builder is finalized and copied into every descendant handle.
type senders []*notifier

// retain registers the holder as a live sender on every bound notifier.
func (s senders) retain() {
	for _, n := range s {
		n.retain()
	}
}

// drop reverses retain. The last drop on a notifier disconnects it.
func (s senders) drop() {
	for _, n := range s {
		n.drop()
	}
}

// notify pings every bound notifier after a mutation.
func (s senders) notify() {
	for _, n := range s {
		n.notify()
	}
}

// handle is the state shared by the strong and weak handle types. Weak handles
// have a zero size and never touch the count.
type handle struct {
	cell    *cell
	senders senders
	size    int64
	weak    bool
	// released flips once, which makes release idempotent.
	released atomic.Bool
}

func newHandle(c *cell, s senders, size int64, weak bool) *handle {
	h := &handle{cell: c, senders: s, size: size, weak: weak}
	// Senders are retained before the count changes, so a waiter can never see
	// the lineage disconnected while a new handle is being attached.
	s.retain()
	if !weak {
		c.add(size)
		s.notify()
	}
	return h
}

// release detaches the handle from its lineage. It reports whether this call
// did the release.
func (h *handle) release() bool {
	if !h.released.CompareAndSwap(false, true) {
		return false
	}
	if !h.weak {
		h.cell.add(-h.size)
		h.senders.notify()
	}
	// The count is final for this handle before its sender references go away,
	// so a disconnected waiter's last check sees the settled value.
	h.senders.drop()
	return true
}

func (h *handle) mustLive(op string) {
	if h.released.Load() {
		panicReleased(op)
	}
}
