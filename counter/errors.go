package counter

import (
	"errors"
	"fmt"
)

var (
	// ErrDisconnected is returned by a wait when every handle bound to the
	// NotifyHandle has been released while the condition is still false. The
	// count will never change again, so the condition is unreachable.
	ErrDisconnected = errors.New("counter: all linked handles are released, the count will never change")

	// ErrTimeout is returned by a wait whose time budget elapsed before the
	// condition was reached.
	ErrTimeout = errors.New("counter: timed out before the condition was reached")
)

// errLeaked is logged when the garbage collector releases a Counter.
var errLeaked = errors.New("counter: garbage collected without Release")

// The following panics mark contract violations, not runtime conditions.

func panicNegativeSize(size int64) {
	panic(fmt.Errorf("counter: negative size %d", size))
}

func panicReleased(op string) {
	panic(fmt.Errorf("counter: %s on a released handle", op))
}

func panicUnderflow(count int64) {
	panic(fmt.Errorf("counter: count dropped to %d", count))
}
