package inflight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/semaphore"

	"github.com/notorious-go/livecount/counter"
)

// Option configures a Group.
type Option func(*config)

type config struct {
	log   logr.Logger
	limit int64
}

// WithLogger sets the logger of the Group and of its counter lineage.
func WithLogger(l logr.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithLimit caps the total weight in flight. A negative limit means no limit.
func WithLimit(n int64) Option {
	return func(c *config) {
		c.limit = n
	}
}

func defaultConfig() config {
	return config{
		log:   logr.Discard(),
		limit: -1,
	}
}

// A Group is a collection of goroutines working on weighted tasks.
type Group struct {
	weak *counter.WeakCounter
	log  logr.Logger

	// sem is nil when the Group has no limit.
	sem   *semaphore.Weighted
	limit int64

	// waitMu serializes waits, since a NotifyHandle admits one waiter at a time.
	waitMu sync.Mutex
	idle   *counter.NotifyHandle
}

// New returns a Group configured by the given options.
func New(opts ...Option) *Group {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	b := counter.NewBuilder().Logger(cfg.log)
	idle := b.Notifier()
	g := &Group{
		weak: b.BuildWeak(),
		idle: idle,
		log:  cfg.log.WithName("inflight"),
	}
	g.setLimit(cfg.limit)
	return g
}

// Go calls f in a new goroutine that counts with weight 1. It blocks until the
// weight fits under the limit.
func (g *Group) Go(f func()) {
	g.GoWithSize(1, f)
}

// GoWithSize calls f in a new goroutine that counts with the given weight. It
// blocks until the weight fits under the limit.
func (g *Group) GoWithSize(size int64, f func()) {
	// A background context never ends, so acquisition cannot fail.
	_ = g.GoContext(context.Background(), size, f)
}

// GoContext is like GoWithSize, but gives up with ctx.Err() if ctx is done
// before the weight fits under the limit. f is not called in that case.
//
// A weight larger than the limit could never be acquired, so GoWithSize,
// GoContext and Go panic on it instead of blocking.
func (g *Group) GoContext(ctx context.Context, size int64, f func()) error {
	if g.sem != nil {
		if size > g.limit {
			panic(fmt.Errorf("inflight: weight %d exceeds limit %d", size, g.limit))
		}
		if err := g.sem.Acquire(ctx, size); err != nil {
			return err
		}
	}
	g.start(size, f)
	return nil
}

// TryGo calls f in a new goroutine with weight 1 only if that fits under the
// limit right now. It reports whether f was started.
func (g *Group) TryGo(f func()) bool {
	if g.sem != nil && !g.sem.TryAcquire(1) {
		return false
	}
	g.start(1, f)
	return true
}

func (g *Group) start(size int64, f func()) {
	c := g.weak.SpawnUpgradeWithSize(size)
	go func() {
		defer g.done(c)
		f()
	}()
}

func (g *Group) done(c *counter.Counter) {
	// The limit is returned first, so a Wait that returns sees the full limit
	// available again.
	if g.sem != nil {
		g.sem.Release(c.Size())
	}
	c.Release()
}

// Wait blocks until the weight in flight is zero.
func (g *Group) Wait() {
	// The Group holds a WeakCounter for its whole life, so the lineage cannot
	// disconnect and the wait cannot fail.
	_ = g.WaitContext(context.Background())
}

// WaitTimeout is like Wait, but gives up with counter.ErrTimeout once timeout
// has elapsed.
func (g *Group) WaitTimeout(timeout time.Duration) error {
	g.waitMu.Lock()
	defer g.waitMu.Unlock()
	return g.idle.WaitUntilConditionTimeout(isIdle, timeout)
}

// WaitContext is like Wait, but gives up with ctx.Err() once ctx is done.
func (g *Group) WaitContext(ctx context.Context) error {
	g.waitMu.Lock()
	defer g.waitMu.Unlock()
	return g.idle.WaitUntilConditionContext(ctx, isIdle)
}

func isIdle(n int64) bool {
	return n == 0
}

// Count returns the total weight currently in flight.
//
// This method is inherently racy. Assume the count has changed by the time the
// value is observed.
func (g *Group) Count() int64 {
	return g.weak.Count()
}

// Limit returns the configured limit, or a negative value when there is none.
func (g *Group) Limit() int64 {
	return g.limit
}

// SetLimit limits the total weight in flight to at most n. A negative value
// indicates no limit. With a zero value, any further call to Go panics and
// TryGo never starts f.
//
// The limit must not be modified while any goroutines in the group are active.
func (g *Group) SetLimit(n int64) {
	if active := g.Count(); active != 0 {
		panic(fmt.Errorf("inflight: modify limit while weight %v is still in flight", active))
	}
	g.setLimit(n)
	g.log.V(1).Info("Limit changed", "limit", n)
}

func (g *Group) setLimit(n int64) {
	g.limit = n
	if n < 0 {
		g.sem = nil
		return
	}
	g.sem = semaphore.NewWeighted(n)
}

func (g *Group) String() string {
	if g.limit < 0 {
		return fmt.Sprintf("Group(inflight=%d, unlimited)", g.Count())
	}
	return fmt.Sprintf("Group(inflight=%d/%d)", g.Count(), g.limit)
}
