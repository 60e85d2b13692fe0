package signal

import (
	"sync"
	"testing"
	"time"
)

func TestLatch_Monotonic(t *testing.T) {
	var l Latch

	if l.IsSet() {
		t.Fatal("zero latch should be unset")
	}
	if !l.Set() {
		t.Fatal("first Set should flip the latch")
	}
	if l.Set() {
		t.Fatal("second Set should be a no-op")
	}
	for i := 0; i < 100; i++ {
		if !l.IsSet() {
			t.Fatalf("latch reverted to false on read %d", i)
		}
	}

	select {
	case <-l.Done():
	default:
		t.Fatal("Done channel should be closed after Set")
	}
}

func TestLatch_ConcurrentSet(t *testing.T) {
	var l Latch
	var wg sync.WaitGroup
	flips := make(chan bool, 16)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flips <- l.Set()
		}()
	}
	wg.Wait()
	close(flips)

	count := 0
	for f := range flips {
		if f {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one flipping Set, got %d", count)
	}
}

func TestLatch_WaitTimeout(t *testing.T) {
	t.Run("already set", func(t *testing.T) {
		var l Latch
		l.Set()
		if !l.WaitTimeout(0) {
			t.Fatal("set latch should be observed without waiting")
		}
	})

	t.Run("expires", func(t *testing.T) {
		var l Latch
		start := time.Now()
		if l.WaitTimeout(30 * time.Millisecond) {
			t.Fatal("unset latch should time out")
		}
		if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
			t.Fatalf("returned after %v, before the timeout", elapsed)
		}
	})

	t.Run("set while waiting", func(t *testing.T) {
		var l Latch
		go func() {
			time.Sleep(10 * time.Millisecond)
			l.Set()
		}()
		if !l.WaitTimeout(5 * time.Second) {
			t.Fatal("expected latch to be observed")
		}
	})
}

func TestSlot_LatestWins(t *testing.T) {
	type size struct{ w, h int }
	var s Slot[size]

	if _, ok := s.Poll(); ok {
		t.Fatal("empty slot should not yield a value")
	}

	if s.Post(size{100, 100}) {
		t.Fatal("first post should not report an overwrite")
	}
	if !s.Post(size{200, 200}) {
		t.Fatal("second post should report overwriting the unread value")
	}

	got, ok := s.Poll()
	if !ok {
		t.Fatal("expected a value")
	}
	if got != (size{200, 200}) {
		t.Fatalf("got %v, want {200 200}", got)
	}

	if _, ok := s.Poll(); ok {
		t.Fatal("slot should be empty after Poll")
	}
}

func TestSlot_NPosts(t *testing.T) {
	var s Slot[int]
	for n := 1; n <= 50; n++ {
		for i := 1; i <= n; i++ {
			s.Post(i)
		}
		got, ok := s.Poll()
		if !ok || got != n {
			t.Fatalf("after %d posts got (%d, %v), want (%d, true)", n, got, ok, n)
		}
	}
}

func TestSlot_ConcurrentProducerConsumer(t *testing.T) {
	var s Slot[int]
	const last = 10000

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= last; i++ {
			s.Post(i)
		}
	}()

	prev := 0
	for {
		if v, ok := s.Poll(); ok {
			if v <= prev {
				t.Fatalf("observed %d after %d", v, prev)
			}
			prev = v
			if v == last {
				break
			}
		}
		select {
		case <-done:
			if !s.Pending() && prev != last {
				t.Fatalf("producer finished but consumer stopped at %d", prev)
			}
		default:
		}
	}
	<-done
}

func TestMessage_WriteOnce(t *testing.T) {
	var m Message

	if m.Get() != "" {
		t.Fatal("zero message should be empty")
	}
	if m.Set("") {
		t.Fatal("empty message should be ignored")
	}
	if !m.Set("Error creating context: no surface") {
		t.Fatal("first Set should store")
	}
	if m.Set("later") {
		t.Fatal("second Set should be ignored")
	}
	if got := m.Get(); got != "Error creating context: no surface" {
		t.Fatalf("Get() = %q", got)
	}
}
