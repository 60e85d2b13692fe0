package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed            = errors.New("resource backend closed")
	ErrOutstandingBorrow = errors.New("cannot drop resource with outstanding borrows")

	errNotFound = errors.New("resource not found")
)

// backend is the slot storage behind a Table. Freed handles are reused.
type backend struct {
	entries  []entry
	freeList []Handle
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value       any
	typeID      uint32
	borrowCount uint32
	valid       bool
}

type liveEntry struct {
	entry
	handle Handle
}

func newBackend() *backend {
	return &backend{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

func (b *backend) create(typeID uint32, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	e := entry{
		typeID: typeID,
		value:  value,
		valid:  true,
	}

	if len(b.freeList) > 0 {
		handle := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		b.entries[handle-1] = e
		return handle, nil
	}

	b.entries = append(b.entries, e)
	return Handle(len(b.entries)), nil
}

// lookup returns the live entry for handle. Callers hold b.mu.
func (b *backend) lookup(handle Handle) *entry {
	if handle == 0 || int(handle) > len(b.entries) {
		return nil
	}
	e := &b.entries[handle-1]
	if !e.valid {
		return nil
	}
	return e
}

func (b *backend) get(handle Handle) (any, uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, 0, false
	}
	return e.value, e.typeID, true
}

func (b *backend) drop(handle Handle) (any, uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, 0, errNotFound
	}
	if e.borrowCount > 0 {
		return nil, 0, ErrOutstandingBorrow
	}

	value, typeID := e.value, e.typeID
	*e = entry{}
	b.freeList = append(b.freeList, handle)

	return value, typeID, nil
}

func (b *backend) borrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil {
		return false
	}
	e.borrowCount++
	return true
}

func (b *backend) returnBorrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil || e.borrowCount == 0 {
		return false
	}
	e.borrowCount--
	return true
}

func (b *backend) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, e := range b.entries {
		if e.valid {
			count++
		}
	}
	return count
}

func (b *backend) each(fn func(Handle, uint32, any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(Handle(i+1), e.typeID, e.value) {
				break
			}
		}
	}
}

// close marks the backend closed and returns the live values so the caller
// can release them outside the lock.
func (b *backend) close() []liveEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var live []liveEntry
	for i, e := range b.entries {
		if e.valid {
			live = append(live, liveEntry{entry: e, handle: Handle(i + 1)})
		}
	}

	b.entries = nil
	b.freeList = nil
	return live
}
