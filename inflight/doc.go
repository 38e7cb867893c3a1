// Package inflight provides a goroutine group whose in-flight work is tracked by
// a weighted counter.
//
// A [Group] is a sync.WaitGroup with three differences: every goroutine carries
// a weight, the combined weight can be capped, and waiting supports timeouts and
// contexts. Each goroutine started by the Group holds a counter.Counter of its
// weight for exactly as long as its function runs, so the Group's count is the
// total weight of the work currently in flight.
//
//	g := inflight.New(inflight.WithLimit(8))
//	for _, job := range jobs {
//	    g.GoWithSize(job.Cost, func() { job.Run() })
//	}
//	if err := g.WaitTimeout(time.Minute); err != nil {
//	    // err is counter.ErrTimeout
//	}
//
// # Limits
//
// The limit bounds the total weight in flight, not the number of goroutines. A
// goroutine of weight n needs n free units before it starts; Go and GoWithSize
// block until they are available, TryGo gives up instead, and GoContext gives up
// when its context is done. A weight larger than the limit could never start,
// so Go, GoWithSize and GoContext panic on it.
//
// # Waiting
//
// Wait returns once the in-flight weight is zero. Waits are serialized, so any
// number of goroutines may wait on one Group. Like sync.WaitGroup, a Wait that
// starts while the count is zero returns immediately even if more work is about
// to be started.
package inflight
