package cache

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"
)

// scenario 1 from spec.md §8: zero-copy list fan-out.
func TestListCacheZeroCopyFanOut(t *testing.T) {
	c := NewListCache(false)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([][]byte, 2)
	started := make(chan struct{}, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			// Readers arrive before the ingester; Get must succeed because
			// Cell() below creates the entry first in this test's timeline.
			var r io.ReadCloser
			for {
				var ok bool
				r, ok = c.Get(ctx, "/s/1/0.m4s")
				if ok {
					break
				}
				time.Sleep(time.Millisecond)
			}
			started <- struct{}{}
			data, err := io.ReadAll(r)
			if err != nil {
				t.Errorf("reader %d: %v", idx, err)
			}
			results[idx] = data
		}(i)
	}

	cell := c.Cell("/s/1/0.m4s")
	<-started
	<-started
	cell.Append([]byte("AB"))
	cell.Append([]byte("CD"))
	cell.Append(nil)

	wg.Wait()

	for i, got := range results {
		if string(got) != "ABCD" {
			t.Fatalf("reader %d: got %q, want %q", i, got, "ABCD")
		}
	}
}

func TestListCacheGetOnUnknownPathReturnsNotFound(t *testing.T) {
	c := NewListCache(false)
	_, ok := c.Get(context.Background(), "/never/written")
	if ok {
		t.Fatal("expected not-found for a path with no ingest")
	}
}

// A reader that arrives after Remove finds nothing; the Cell outliving its
// map entry for an already-attached reader is covered by the next test.
func TestListCacheLateReaderAfterRemove(t *testing.T) {
	c := NewListCache(false)
	cell := c.Cell("/s/1/2.m4s")
	cell.Append([]byte("HELLO"))
	cell.Append(nil)
	c.Remove("/s/1/2.m4s")

	r, ok := c.Get(context.Background(), "/s/1/2.m4s")
	if ok {
		t.Fatal("Get after Remove must report not-found; only a live reference keeps the Cell reachable")
	}
	_ = r
}

func TestListCacheReaderHoldsCellAcrossRemove(t *testing.T) {
	c := NewListCache(false)
	cell := c.Cell("/s/1/2.m4s")
	r, ok := c.Get(context.Background(), "/s/1/2.m4s")
	if !ok {
		t.Fatal("expected entry to exist before remove")
	}
	c.Remove("/s/1/2.m4s")

	cell.Append([]byte("HELLO"))
	cell.Append(nil)

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "HELLO" {
		t.Fatalf("got %q, want %q", data, "HELLO")
	}
}

func TestListCacheEmptyIngestIsImmediatelyComplete(t *testing.T) {
	c := NewListCache(false)
	cell := c.Cell("/s/1/3.m4s")
	cell.Append(nil) // zero-byte body: terminal sentinel only

	r, ok := c.Get(context.Background(), "/s/1/3.m4s")
	if !ok {
		t.Fatal("expected entry")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty content, got %q", data)
	}
}

func TestListDownstreamContextCancellation(t *testing.T) {
	c := NewListCache(false)
	cell := c.Cell("/s/1/5.m4s")
	ctx, cancel := context.WithCancel(context.Background())
	r, _ := c.Get(ctx, "/s/1/5.m4s")

	done := make(chan error, 1)
	go func() {
		_, err := r.Read(make([]byte, 16))
		done <- err
	}()

	cancel()
	_ = cell

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected context error")
		}
	case <-time.After(time.Second):
		t.Fatal("Read did not return after context cancellation")
	}
}
