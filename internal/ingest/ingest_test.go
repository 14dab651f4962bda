package ingest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cmafrelay/relaycache/internal/cache"
)

func TestListIngesterCopyBeforeInsertDecouplesBuffer(t *testing.T) {
	c := cache.NewListCache(true)
	ing := NewListIngester(c, nil)

	req := httptest.NewRequest(http.MethodPut, "/s/1/0.m4s", strings.NewReader("HELLOWORLD"))
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	var data []byte
	var readErr error
	go func() {
		r, ok := c.Get(context.Background(), "/s/1/0.m4s")
		for !ok {
			r, ok = c.Get(context.Background(), "/s/1/0.m4s")
		}
		data, readErr = io.ReadAll(r)
		close(done)
	}()

	ing.Ingest(rec, req)
	<-done

	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(data) != "HELLOWORLD" {
		t.Fatalf("got %q, want %q", data, "HELLOWORLD")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestListIngesterRejectsNonPut(t *testing.T) {
	c := cache.NewListCache(false)
	ing := NewListIngester(c, nil)

	req := httptest.NewRequest(http.MethodGet, "/s/1/0.m4s", nil)
	rec := httptest.NewRecorder()
	ing.Ingest(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestListIngesterDeleteReturnsOK(t *testing.T) {
	c := cache.NewListCache(false)
	ing := NewListIngester(c, nil)

	req := httptest.NewRequest(http.MethodDelete, "/s/1/0.m4s", nil)
	rec := httptest.NewRecorder()
	ing.Ingest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestMapIngesterPublishesWholeBufferOnEachChunk(t *testing.T) {
	c := cache.NewMapCache(0, nil)
	ing := NewMapIngester(c, nil)

	// Ingest removes the cell once the body ends, so attach the reader to a
	// seeded cell first; the ingester reuses it and the reader keeps it alive.
	c.Insert("/s/1/1.m4s", []byte{}, false)
	r, ok := c.Get(context.Background(), "/s/1/1.m4s")
	if !ok {
		t.Fatal("expected cell after seeding Insert")
	}

	req := httptest.NewRequest(http.MethodPut, "/s/1/1.m4s", strings.NewReader("ABCDEF"))
	rec := httptest.NewRecorder()
	ing.Ingest(rec, req)

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "ABCDEF" {
		t.Fatalf("got %q, want %q", data, "ABCDEF")
	}
}

func TestMapIngesterDeleteReturnsOK(t *testing.T) {
	c := cache.NewMapCache(0, nil)
	ing := NewMapIngester(c, nil)

	req := httptest.NewRequest(http.MethodDelete, "/s/1/1.m4s", nil)
	rec := httptest.NewRecorder()
	ing.Ingest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestSimpleIngesterDrainsBodyAndReturnsOK(t *testing.T) {
	ing := NewSimpleIngester()
	req := httptest.NewRequest(http.MethodPut, "/s/1/2.m4s", strings.NewReader("IGNOREME"))
	rec := httptest.NewRecorder()
	ing.Ingest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestSimpleIngesterDeleteReturnsOK(t *testing.T) {
	ing := NewSimpleIngester()
	req := httptest.NewRequest(http.MethodDelete, "/s/1/2.m4s", nil)
	rec := httptest.NewRecorder()
	ing.Ingest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
