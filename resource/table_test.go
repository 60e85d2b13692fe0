package resource

import (
	"errors"
	"sync"
	"testing"
)

const typeOther = TypeSprite + 1

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h := table.Insert(TypeSprite, "test")
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	if _, ok = table.GetTyped(h, TypeSprite); !ok {
		t.Fatal("GetTyped with correct type failed")
	}
	if _, ok = table.GetTyped(h, typeOther); ok {
		t.Fatal("GetTyped with wrong type should fail")
	}

	val, ok = table.Remove(h)
	if !ok {
		t.Fatal("Remove failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}
	if _, ok := table.Remove(h); ok {
		t.Fatal("second Remove should fail")
	}
}

func TestTable_ZeroHandleInvalid(t *testing.T) {
	table := NewTable()
	table.Insert(TypeSprite, "a")

	if _, ok := table.Get(0); ok {
		t.Fatal("handle 0 must never resolve")
	}
	if _, ok := table.Get(99); ok {
		t.Fatal("out of range handle must not resolve")
	}
}

func TestTable_HandleReuse(t *testing.T) {
	table := NewTable()

	h1 := table.Insert(TypeSprite, "a")
	table.Remove(h1)
	h2 := table.Insert(typeOther, "b")

	if h1 != h2 {
		t.Fatalf("expected freed handle %d to be reused, got %d", h1, h2)
	}
	if _, ok := table.GetTyped(h2, TypeSprite); ok {
		t.Fatal("reused handle must carry the new type")
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	h := table.Insert(TypeSprite, "test")
	if len(obs.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(obs.events))
	}
	if obs.events[0].Type != EventCreated {
		t.Fatal("Expected EventCreated")
	}
	if obs.events[0].Handle != h {
		t.Fatal("Wrong handle in event")
	}

	table.Remove(h)
	if len(obs.events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(obs.events))
	}
	if obs.events[1].Type != EventDropped {
		t.Fatal("Expected EventDropped")
	}

	table.Unsubscribe(obs)
	table.Insert(TypeSprite, "test2")
	if len(obs.events) != 2 {
		t.Fatal("Should not receive events after Unsubscribe")
	}
}

func TestTable_Borrow(t *testing.T) {
	table := NewTable()
	h := table.Insert(TypeSprite, "pinned")

	if !table.Borrow(h) {
		t.Fatal("Borrow failed")
	}
	if _, ok := table.Remove(h); ok {
		t.Fatal("Remove should fail while borrowed")
	}
	if !table.ReturnBorrow(h) {
		t.Fatal("ReturnBorrow failed")
	}
	if table.ReturnBorrow(h) {
		t.Fatal("ReturnBorrow without a borrow should fail")
	}
	if _, ok := table.Remove(h); !ok {
		t.Fatal("Remove should succeed after the borrow is returned")
	}
	if table.Borrow(h) {
		t.Fatal("Borrow of a removed handle should fail")
	}
}

type dropCounter struct {
	count int
}

func (d *dropCounter) Drop() {
	d.count++
}

func TestTable_DropperInterface(t *testing.T) {
	table := NewTable()
	d := &dropCounter{}

	h := table.Insert(TypeSprite, d)
	table.Remove(h)

	if d.count != 1 {
		t.Fatalf("Expected Drop() to be called once, called %d times", d.count)
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	borrowed := &dropCounter{}
	plain := &dropCounter{}
	h := table.Insert(TypeSprite, borrowed)
	table.Insert(typeOther, plain)
	table.Borrow(h)

	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if borrowed.count != 1 || plain.count != 1 {
		t.Fatalf("Close should drop every live value once, got %d and %d", borrowed.count, plain.count)
	}

	dropped := 0
	for _, e := range obs.events {
		if e.Type == EventDropped {
			dropped++
		}
	}
	if dropped != 2 {
		t.Fatalf("expected 2 dropped events, got %d", dropped)
	}

	if h := table.Insert(TypeSprite, "c"); h != 0 {
		t.Fatal("Expected Insert to fail after Close")
	}
	if err := table.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if borrowed.count != 1 {
		t.Fatal("second Close must not drop again")
	}
}

func TestTable_Concurrent(t *testing.T) {
	table := NewTable()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h := table.Insert(TypeSprite, i*1000+j)
				if v, ok := table.Get(h); !ok || v != i*1000+j {
					t.Errorf("Get(%d) = %v, %v", h, v, ok)
				}
				table.Remove(h)
			}
		}(i)
	}
	wg.Wait()

	if table.Len() != 0 {
		t.Fatalf("Len() = %d after concurrent insert/remove", table.Len())
	}
}

func TestCache_Dedupes(t *testing.T) {
	table := NewTable()
	loads := 0
	cache := NewCache(table, TypeSprite, func(name string) (any, error) {
		loads++
		return "sprite:" + name, nil
	})

	h1, err := cache.Load("hero.txt")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	h2, err := cache.Load("hero.txt")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h1 != h2 || loads != 1 {
		t.Fatalf("expected one load and a shared handle, got loads=%d h1=%d h2=%d", loads, h1, h2)
	}

	table.Remove(h1)
	if cache.Len() != 0 {
		t.Fatal("dropping the handle should evict the cached name")
	}
	if _, err := cache.Load("hero.txt"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loads != 2 {
		t.Fatalf("expected reload after eviction, loads=%d", loads)
	}
}

func TestCache_LoadError(t *testing.T) {
	table := NewTable()
	boom := errors.New("missing file")
	cache := NewCache(table, TypeSprite, func(string) (any, error) {
		return nil, boom
	})

	h, err := cache.Load("nope")
	if !errors.Is(err, boom) || h != 0 {
		t.Fatalf("Load() = %d, %v", h, err)
	}
	if table.Len() != 0 {
		t.Fatal("failed load must not occupy a handle")
	}
}

func TestCache_ClosedTable(t *testing.T) {
	table := NewTable()
	d := &dropCounter{}
	cache := NewCache(table, TypeSprite, func(string) (any, error) {
		return d, nil
	})
	table.Close()

	if _, err := cache.Load("late"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if d.count != 1 {
		t.Fatal("value loaded after Close should be dropped")
	}
}
