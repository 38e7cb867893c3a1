// Package counter provides a weighted live-instance counter: every held
// [Counter] contributes its weight to a shared count, and releasing it takes the
// weight back out. A [NotifyHandle] lets one goroutine sleep until the count
// satisfies a predicate, without polling.
//
// # Why This Package Exists
//
// Tracking "how many holders of a resource currently exist" (in-flight
// transactions, open handles, active leases) is usually done with a bare atomic
// integer and a pair of Inc/Dec calls sprinkled across the code. That works until
// somebody forgets a Dec on an error path, or until a coordinator needs to wait
// for the count to reach a value and ends up polling it in a loop.
//
// This package ties the increment to the creation of a handle and the decrement
// to its release, and ties waiting to the mutations themselves.
//
// # Handles
//
// A [Counter] is a strong handle. Creating or cloning one adds its weight to the
// shared count; releasing it subtracts the weight exactly once. A [WeakCounter]
// is a view of the same count that never changes it, but can mint new Counters:
//
//	weak := counter.NewWeak()
//	c := weak.SpawnUpgrade() // count is 1
//	defer c.Release()
//
// Go has no destructors, so a Counter must be released explicitly. Always pair
// the creation of a Counter with a deferred Release, or use the scoped helpers
// [WeakCounter.Hold] and [WeakCounter.HoldWithSize] which do it for you:
//
//	weak.Hold(func() {
//	    // the count includes this call while it runs, even if it panics.
//	})
//
// Release is idempotent. A Counter that becomes unreachable without being
// released is released by the garbage collector and reported to the Builder's
// logger, but relying on that makes the count lag arbitrarily behind reality.
//
// # Waiting
//
// NotifyHandles are created from a [Builder] before the first handle is built.
// Every handle descending from that Builder signals every NotifyHandle on each
// mutation:
//
//	b := counter.NewBuilder()
//	done := b.Notifier()
//	weak := b.BuildWeak()
//	defer weak.Release()
//
//	// ... hand weak to workers ...
//
//	err := done.WaitUntilConditionTimeout(func(n int64) bool { return n == 0 }, time.Minute)
//
// A wait returns nil once the predicate holds, [ErrTimeout] when the time budget
// is spent, and [ErrDisconnected] once every handle descending from the Builder
// has been released while the predicate is still false: the count can no longer
// change, so the condition is unreachable. WeakCounters count as descendants
// too, so they must be released for a wait to observe disconnection.
//
// # When NOT to Use This Package
//
//   - Waiting on several independent conditions over one handle: create one
//     NotifyHandle per observer instead.
//   - Several goroutines waiting on the same NotifyHandle: this is rejected
//     with a panic; fan-out requires one NotifyHandle per waiter.
//   - Fairness or priority between waiters: there is none.
//
// # Implementation
//
// The count is a single atomic integer shared by reference between all handles
// of one lineage. Mutations are lock-free. A NotifyHandle owns a one-slot signal
// channel and an "armed" flag; mutations perform a non-blocking send only while
// the flag is set, so nothing is buffered and nothing is paid when nobody waits.
// Waiting drains stale signals, arms the flag, checks the predicate and only then
// blocks, which closes the window in which a mutation could slip between the
// check and the block unnoticed.
package counter
