// Package signal provides the cross-thread primitives shared by the primary
// and worker threads: one-shot latches, overwrite-latest slots and a
// write-once message cell.
//
// None of the primitives block on write. Latch additionally exposes a
// channel so waiters can select on it together with a timer.
package signal

import (
	"sync"
	"sync/atomic"
	"time"
)

// Latch is a one-shot flag. It starts false, becomes true on the first Set,
// and never resets. The zero value is ready to use.
type Latch struct {
	done     chan struct{}
	initOnce sync.Once
	setOnce  sync.Once
	set      atomic.Bool
}

func (l *Latch) init() {
	l.initOnce.Do(func() {
		l.done = make(chan struct{})
	})
}

// Set flips the latch. It reports whether this call performed the flip.
func (l *Latch) Set() bool {
	l.init()
	flipped := false
	l.setOnce.Do(func() {
		l.set.Store(true)
		close(l.done)
		flipped = true
	})
	return flipped
}

// IsSet reports whether the latch has been set.
func (l *Latch) IsSet() bool {
	return l.set.Load()
}

// Done returns a channel closed when the latch is set.
func (l *Latch) Done() <-chan struct{} {
	l.init()
	return l.done
}

// WaitTimeout blocks until the latch is set or timeout elapses.
// It reports whether the latch was observed set.
func (l *Latch) WaitTimeout(timeout time.Duration) bool {
	if l.IsSet() {
		return true
	}
	if timeout <= 0 {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-l.Done():
		return true
	case <-timer.C:
		return l.IsSet()
	}
}

// Slot is a single-value cell where each Post replaces any unread value.
// The consumer only ever observes the most recent post; intermediate values
// are dropped. The zero value is an empty slot.
type Slot[T any] struct {
	v atomic.Pointer[T]
}

// Post stores v, replacing any unread value. It reports whether an unread
// value was overwritten.
func (s *Slot[T]) Post(v T) bool {
	return s.v.Swap(&v) != nil
}

// Poll takes the latest posted value, leaving the slot empty.
func (s *Slot[T]) Poll() (T, bool) {
	p := s.v.Swap(nil)
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// Pending reports whether an unread value is waiting.
func (s *Slot[T]) Pending() bool {
	return s.v.Load() != nil
}

// Message is a write-once string cell. The first non-empty Set wins.
type Message struct {
	v atomic.Pointer[string]
}

// Set stores msg if no message has been stored yet. Empty strings are ignored.
// It reports whether msg was stored.
func (m *Message) Set(msg string) bool {
	if msg == "" {
		return false
	}
	return m.v.CompareAndSwap(nil, &msg)
}

// Get returns the stored message, or "" if none was set.
func (m *Message) Get() string {
	if p := m.v.Load(); p != nil {
		return *p
	}
	return ""
}
