package resource

import (
	"sync"
)

// Table maps handles to typed values and notifies observers of lifecycle
// events. Safe for concurrent use.
type Table struct {
	backend   *backend
	observers []Observer
	obsMu     sync.RWMutex
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		backend: newBackend(),
	}
}

// Insert adds a value and returns its handle.
// It returns 0 once the table is closed.
func (t *Table) Insert(typeID uint32, value any) Handle {
	handle, err := t.backend.create(typeID, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})

	return handle
}

// Get retrieves a value by handle.
func (t *Table) Get(handle Handle) (any, bool) {
	v, _, ok := t.backend.get(handle)
	return v, ok
}

// GetTyped retrieves a value only if it matches the expected type.
func (t *Table) GetTyped(handle Handle, typeID uint32) (any, bool) {
	v, actual, ok := t.backend.get(handle)
	if !ok || actual != typeID {
		return nil, false
	}
	return v, true
}

// Remove drops a resource and returns (value, true) if found.
// Borrowed resources are not removed.
func (t *Table) Remove(handle Handle) (any, bool) {
	value, typeID, err := t.backend.drop(handle)
	if err != nil {
		return nil, false
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		TypeID: typeID,
		Value:  value,
	})

	return value, true
}

// Borrow pins a handle so it cannot be removed until ReturnBorrow.
func (t *Table) Borrow(handle Handle) bool {
	if !t.backend.borrow(handle) {
		return false
	}
	t.notify(Event{Type: EventBorrowed, Handle: handle})
	return true
}

// ReturnBorrow releases a pin taken with Borrow.
func (t *Table) ReturnBorrow(handle Handle) bool {
	if !t.backend.returnBorrow(handle) {
		return false
	}
	t.notify(Event{Type: EventBorrowReturned, Handle: handle})
	return true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of active resources.
func (t *Table) Len() int {
	return t.backend.len()
}

// Each iterates over all active resources until fn returns false.
func (t *Table) Each(fn func(Handle, uint32, any) bool) {
	t.backend.each(fn)
}

// Close drops every live resource, borrowed or not, and stops accepting
// inserts. Calling Close more than once is a no-op.
func (t *Table) Close() error {
	for _, e := range t.backend.close() {
		if d, ok := e.value.(Dropper); ok {
			d.Drop()
		}
		t.notify(Event{
			Type:   EventDropped,
			Handle: e.handle,
			TypeID: e.typeID,
			Value:  e.value,
		})
	}
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
