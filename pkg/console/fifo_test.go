package console

import (
	"context"
	"testing"
	"time"
)

func TestFIFOPushPopOrder(t *testing.T) {
	q := newFIFO[int]()

	for i := 1; i <= 3; i++ {
		q.push(i)
	}
	if got := q.len(); got != 3 {
		t.Fatalf("expected len 3, got %d", got)
	}

	for want := 1; want <= 3; want++ {
		got, ok := q.pop()
		if !ok {
			t.Fatalf("expected item %d, queue empty", want)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}

	if _, ok := q.pop(); ok {
		t.Error("expected pop on empty queue to report false")
	}
}

func TestFIFOPushCountMonotonic(t *testing.T) {
	q := newFIFO[string]()

	if got := q.pushCount(); got != 0 {
		t.Fatalf("expected push count 0, got %d", got)
	}

	q.push("a")
	q.push("b")
	if got := q.pushCount(); got != 2 {
		t.Fatalf("expected push count 2, got %d", got)
	}

	// Pops must not decrease the counter; waiters key off pushes, not
	// length.
	q.pop()
	q.pop()
	if got := q.pushCount(); got != 2 {
		t.Errorf("expected push count 2 after pops, got %d", got)
	}
}

func TestFIFOPushAfterCloseDropped(t *testing.T) {
	q := newFIFO[int]()
	q.push(1)
	q.close()
	q.push(2)

	if got := q.len(); got != 1 {
		t.Fatalf("expected len 1 after push on closed queue, got %d", got)
	}

	// Buffered items stay poppable after close.
	got, ok := q.pop()
	if !ok || got != 1 {
		t.Errorf("expected to pop 1 from closed queue, got %d ok=%v", got, ok)
	}
}

func TestFIFOWaitWakesOnPush(t *testing.T) {
	q := newFIFO[int]()

	woke := make(chan bool, 1)
	go func() {
		woke <- q.wait(context.Background())
	}()

	// Give the waiter a moment to block before pushing.
	time.Sleep(10 * time.Millisecond)
	q.push(42)

	select {
	case ok := <-woke:
		if !ok {
			t.Error("expected wait to report data available")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not wake on push")
	}
}

func TestFIFOWaitCanceled(t *testing.T) {
	q := newFIFO[int]()

	ctx, cancel := context.WithCancel(context.Background())
	woke := make(chan bool, 1)
	go func() {
		woke <- q.wait(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case ok := <-woke:
		if ok {
			t.Error("expected canceled wait to report no data")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not wake on cancellation")
	}
}

func TestFIFOCloseWakesWaiters(t *testing.T) {
	q := newFIFO[int]()

	woke := make(chan bool, 2)
	for range 2 {
		go func() {
			woke <- q.wait(context.Background())
		}()
	}

	time.Sleep(10 * time.Millisecond)
	q.close()

	for range 2 {
		select {
		case ok := <-woke:
			if ok {
				t.Error("expected closed wait to report no data")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("waiter not woken by close")
		}
	}
}

func TestFIFOWaitPushIgnoresBufferedItems(t *testing.T) {
	q := newFIFO[string]()
	q.push("buffered")

	// The snapshot is taken after the push, so the buffered item must not
	// satisfy the wait.
	since := q.pushCount()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if q.waitPush(ctx, since) {
		t.Error("expected waitPush to ignore items buffered before the snapshot")
	}
}

func TestFIFOWaitPushSeesNewPush(t *testing.T) {
	q := newFIFO[string]()
	q.push("old")
	since := q.pushCount()

	woke := make(chan bool, 1)
	go func() {
		woke <- q.waitPush(context.Background(), since)
	}()

	time.Sleep(10 * time.Millisecond)
	q.push("new")

	select {
	case ok := <-woke:
		if !ok {
			t.Error("expected waitPush to report a new push")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waitPush did not wake on a new push")
	}
}

func TestFIFOWaitPushWakesOnClose(t *testing.T) {
	q := newFIFO[string]()
	since := q.pushCount()

	woke := make(chan bool, 1)
	go func() {
		woke <- q.waitPush(context.Background(), since)
	}()

	time.Sleep(10 * time.Millisecond)
	q.close()

	select {
	case ok := <-woke:
		if ok {
			t.Error("expected waitPush to report no push after close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waitPush did not wake on close")
	}
}
