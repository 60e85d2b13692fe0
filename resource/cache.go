package resource

import (
	"sync"
)

// Loader produces the value for a named resource on a cache miss.
type Loader func(name string) (any, error)

// Cache deduplicates named loads of one resource type over a Table.
type Cache struct {
	table  *Table
	load   Loader
	byName map[string]Handle
	typeID uint32
	mu     sync.Mutex
}

// NewCache creates a cache storing values of typeID in table.
func NewCache(table *Table, typeID uint32, load Loader) *Cache {
	c := &Cache{
		table:  table,
		load:   load,
		typeID: typeID,
		byName: make(map[string]Handle),
	}
	table.Subscribe(c)
	return c
}

// Load returns the handle for name, loading it on first use.
func (c *Cache) Load(name string) (Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.byName[name]; ok {
		return h, nil
	}

	value, err := c.load(name)
	if err != nil {
		return 0, err
	}

	h := c.table.Insert(c.typeID, value)
	if h == 0 {
		if d, ok := value.(Dropper); ok {
			d.Drop()
		}
		return 0, ErrClosed
	}
	c.byName[name] = h
	return h, nil
}

// Len returns the number of cached names.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byName)
}

// OnResourceEvent forgets names whose handle was dropped from the table.
func (c *Cache) OnResourceEvent(e Event) {
	if e.Type != EventDropped || e.TypeID != c.typeID {
		return
	}
	// Insert only emits EventCreated, so this never runs under Load's lock.
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, h := range c.byName {
		if h == e.Handle {
			delete(c.byName, name)
			return
		}
	}
}
