package counter

import (
	"errors"

	"github.com/go-logr/logr"
)

// A Builder configures a new count before its first handle exists. It is the
// only place where NotifyHandles can be created: once Build or BuildWeak has
// been called, the set of NotifyHandles is fixed, and every handle descending
// from the built one signals all of them.
//
// A Builder is finalized by exactly one call to Build or BuildWeak. It is not
// safe for concurrent use.
type Builder struct {
	cell      *cell
	size      int64
	log       logr.Logger
	notifiers []*notifier
	built     bool
}

// NewBuilder returns a Builder for a Counter of size 1 that logs nothing.
func NewBuilder() *Builder {
	return &Builder{
		cell: new(cell),
		size: 1,
		log:  logr.Discard(),
	}
}

// Size sets the size of the Counter returned by Build. It has no effect on
// BuildWeak, which always starts from an untouched count.
func (b *Builder) Size(size int64) *Builder {
	b.mustConfigure()
	if size < 0 {
		panicNegativeSize(size)
	}
	b.size = size
	return b
}

// Logger sets the logger used by the built lineage and by the NotifyHandles
// created after this call.
func (b *Builder) Logger(l logr.Logger) *Builder {
	b.mustConfigure()
	b.log = l
	return b
}

// Notifier creates a NotifyHandle bound to the count being built. The handle
// cannot report [ErrDisconnected] unless the Builder is eventually built.
func (b *Builder) Notifier() *NotifyHandle {
	b.mustConfigure()
	n := newNotifier()
	b.notifiers = append(b.notifiers, n)
	return &NotifyHandle{
		cell: b.cell,
		n:    n,
		log:  b.log.WithName("notify"),
	}
}

// Build finalizes the Builder and returns a Counter holding the configured size.
func (b *Builder) Build() *Counter {
	b.finalize()
	return newCounter(b.cell, b.senders(), b.size)
}

// BuildWeak finalizes the Builder and returns a WeakCounter on a count of zero.
func (b *Builder) BuildWeak() *WeakCounter {
	b.finalize()
	return newWeak(b.cell, b.senders())
}

func (b *Builder) senders() senders {
	// Clip so that no descendant can append into the shared backing array.
	return senders(b.notifiers[:len(b.notifiers):len(b.notifiers)])
}

func (b *Builder) finalize() {
	b.mustConfigure()
	b.built = true
	b.cell.log = b.log
}

func (b *Builder) mustConfigure() {
	if b.built {
		panic(errors.New("counter: Builder used after Build"))
	}
}
