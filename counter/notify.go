package counter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"go.uber.org/atomic"
)

// A notifier is the channel between the handles of a lineage (the senders) and
// one NotifyHandle (the receiver).
type notifier struct {
	// armed is set while the receiver waits. Senders skip the send otherwise.
	armed atomic.Bool
	// signal holds at most one pending "something changed" token. Further sends
	// while it is full are dropped: only the fact of a change matters, and the
	// waiter re-reads the count anyway. A single slot is what keeps a mutation
	// between the waiter's check and its receive from being lost.
	signal chan struct{}

	// senders counts the handles bound to this notifier. gone is closed when
	// the count drops back to zero.
	senders  atomic.Int64
	gone     chan struct{}
	goneOnce sync.Once

	// waiting guards against concurrent waits on one NotifyHandle.
	waiting atomic.Bool
}

func newNotifier() *notifier {
	return &notifier{
		signal: make(chan struct{}, 1),
		gone:   make(chan struct{}),
	}
}

func (n *notifier) retain() {
	n.senders.Inc()
}

func (n *notifier) drop() {
	if n.senders.Dec() == 0 {
		n.goneOnce.Do(func() {
			close(n.gone)
		})
	}
}

func (n *notifier) notify() {
	if !n.armed.Load() {
		return
	}
	select {
	case n.signal <- struct{}{}:
	default:
	}
}

// drain discards a pending signal left over from an earlier wait.
func (n *notifier) drain() {
	for {
		select {
		case <-n.signal:
		default:
			return
		}
	}
}

// NotifyHandle lets a goroutine block until the shared count satisfies a
// condition. It is created by [Builder.Notifier] and is signalled by every
// mutation of the count made through handles descending from that Builder.
//
// Only one goroutine may wait on a NotifyHandle at a time; concurrent waits
// panic. Use one NotifyHandle per observer.
//
// A NotifyHandle disconnects only after handles have been built from its
// Builder and all of them are released. If the Builder is abandoned without
// Build or BuildWeak, the count stays zero and waits on the handle never
// return [ErrDisconnected]; they end only through their condition, a timeout
// or a context.
type NotifyHandle struct {
	cell *cell
	n    *notifier
	log  logr.Logger
}

// Count returns the current value of the shared count.
//
// This method is inherently racy. Assume the count has changed by the time the
// value is observed.
func (h *NotifyHandle) Count() int64 {
	return h.cell.load()
}

// WaitUntilCondition blocks until cond returns true for the current count.
// The condition is evaluated once up front and again after every batch of
// mutations, never in a busy loop.
//
// It returns [ErrDisconnected] if every handle bound to h is released while
// cond is still false.
func (h *NotifyHandle) WaitUntilCondition(cond func(count int64) bool) error {
	return h.wait(context.Background(), cond, nil)
}

// WaitUntilConditionTimeout is like [NotifyHandle.WaitUntilCondition] but gives
// up with [ErrTimeout] once timeout has elapsed. A non-positive timeout checks
// the condition once.
func (h *NotifyHandle) WaitUntilConditionTimeout(cond func(count int64) bool, timeout time.Duration) error {
	t := time.NewTimer(timeout)
	defer t.Stop()
	return h.wait(context.Background(), cond, t.C)
}

// WaitUntilConditionContext is like [NotifyHandle.WaitUntilCondition] but gives
// up with ctx.Err() once ctx is done.
func (h *NotifyHandle) WaitUntilConditionContext(ctx context.Context, cond func(count int64) bool) error {
	return h.wait(ctx, cond, nil)
}

func (h *NotifyHandle) wait(ctx context.Context, cond func(count int64) bool, timeout <-chan time.Time) error {
	n := h.n
	if !n.waiting.CompareAndSwap(false, true) {
		panic(errors.New("counter: concurrent waits on one NotifyHandle"))
	}
	defer n.waiting.Store(false)

	// Stale signals from an earlier wait must not count as a change. Draining
	// before arming means every signal present after this point was sent for a
	// mutation that may have happened after the check below.
	n.drain()
	n.armed.Store(true)
	defer n.armed.Store(false)

	met := func() bool { return cond(h.cell.load()) }
	if met() {
		return nil
	}
	for {
		var err error
		select {
		case <-n.signal:
			if met() {
				return nil
			}
			continue
		case <-n.gone:
			err = ErrDisconnected
		case <-timeout:
			err = ErrTimeout
		case <-ctx.Done():
			err = ctx.Err()
		}
		// A mutation may have landed together with the terminal event.
		if met() {
			return nil
		}
		h.log.V(1).Info("Wait ended before the condition was met", "reason", err.Error(), "count", h.cell.load())
		return err
	}
}
