package broadcast

import (
	"context"
	"testing"
	"time"
)

func TestNotifyWakesExistingWaiter(t *testing.T) {
	n := New()
	ch := n.Wait()

	woke := make(chan struct{})
	go func() {
		<-ch
		close(woke)
	}()

	n.Notify()

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by Notify")
	}
}

func TestWaitAfterNotifyDoesNotFireImmediately(t *testing.T) {
	n := New()
	n.Notify()
	ch := n.Wait()

	select {
	case <-ch:
		t.Fatal("channel obtained after Notify must not already be closed")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestNotifyWakesAllWaiters(t *testing.T) {
	n := New()
	const waiters = 8
	woke := make(chan struct{}, waiters)

	for i := 0; i < waiters; i++ {
		ch := n.Wait()
		go func() {
			<-ch
			woke <- struct{}{}
		}()
	}

	n.Notify()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < waiters; i++ {
		select {
		case <-woke:
		case <-ctx.Done():
			t.Fatalf("only %d/%d waiters woke", i, waiters)
		}
	}
}
