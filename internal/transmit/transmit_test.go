package transmit

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmafrelay/relaycache/internal/cache"
)

func TestHandlerServesChunkedBody(t *testing.T) {
	c := cache.NewListCache(false)
	h := NewHandler(c, nil)

	cell := c.Cell("/s/1/0.m4s")
	cell.Append([]byte("AB"))
	cell.Append([]byte("CD"))
	cell.Append(nil)

	req := httptest.NewRequest(http.MethodGet, "/s/1/0.m4s", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "video/mp4" {
		t.Fatalf("content-type = %q, want video/mp4", rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected wide-open CORS header")
	}
	if rec.Body.String() != "ABCD" {
		t.Fatalf("body = %q, want %q", rec.Body.String(), "ABCD")
	}
}

func TestHandlerReturnsNotFoundForUnknownPath(t *testing.T) {
	c := cache.NewListCache(false)
	h := NewHandler(c, nil)

	req := httptest.NewRequest(http.MethodGet, "/never/written", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerRejectsNonGet(t *testing.T) {
	c := cache.NewListCache(false)
	h := NewHandler(c, nil)

	req := httptest.NewRequest(http.MethodPut, "/s/1/0.m4s", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHandlerUsesStaticCache(t *testing.T) {
	c := cache.NewStaticCache(map[string][]byte{"/a": []byte("hello")})
	h := NewHandler(c, nil)

	req := httptest.NewRequest(http.MethodGet, "/a", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	data, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("body = %q, want %q", data, "hello")
	}
}
