// Copyright © 2017 Microsoft <wastore@microsoft.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package ingest turns a chunked PUT request body into cache writes. Each
// Ingester implementation binds one HTTP method contract to one cache shape;
// the transmitter side never sees these types, only the Cache they write into.
package ingest

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/cmafrelay/relaycache/internal/cache"
)

// Ingester handles the producer side of one path: a PUT request whose body
// is the live CMAF segment or init stream being relayed.
type Ingester interface {
	Ingest(w http.ResponseWriter, r *http.Request)
}

// readSize is the buffer used to pull frames off the request body. CMAF
// fragments are written by the producer in small bursts (mdat boxes aren't
// buffered upstream); matching chunklist.Node granularity to the producer's
// write pattern is what makes low-latency fan-out low-latency.
const readSize = 64 * 1024

// ListIngester appends each chunk read from the request body onto a
// chunklist.List-backed cache.ListCell, optionally deep-copying it first so
// the read buffer can be reused across iterations.
//
// Grounded on server/src/ingester/list_ingester.rs: copy_before_insert there
// is a Bytes::copy_from_slice gated on cache.copy_before_insert; here it's
// the same gate but the "copy" is a fresh slice since readSize buffers are
// reused across Read calls in the loop below.
type ListIngester struct {
	Cache *cache.ListCache
	Log   *zap.SugaredLogger
}

func NewListIngester(c *cache.ListCache, log *zap.SugaredLogger) *ListIngester {
	return &ListIngester{Cache: c, Log: log}
}

// Ingest implements Ingester. PUT streams into the cell; DELETE is a no-op
// 200 (the producer signaling end-of-stream on a path it never wrote to
// isn't an error); any other method gets 405.
func (i *ListIngester) Ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	key := r.URL.Path
	cell := i.Cache.Cell(key)
	defer i.Cache.Remove(key)
	defer cell.Append(nil) // terminal sentinel, even on early return

	buf := make([]byte, readSize)
	for {
		n, err := r.Body.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if i.Cache.CopyBeforeInsert {
				chunk = append([]byte(nil), chunk...)
			}
			cell.Append(chunk)
			if !i.Cache.CopyBeforeInsert {
				buf = make([]byte, readSize)
			}
		}
		if err != nil {
			if err != io.EOF && i.Log != nil {
				i.Log.Errorw("ingest: read request body", "path", key, "error", err)
			}
			break
		}
	}

	w.WriteHeader(http.StatusOK)
}

// MapIngester accumulates the request body into one growing buffer and
// republishes the whole thing on every chunk, matching cache.MapCache's
// coalescing-read contract.
//
// Grounded on server/src/ingester/map_ingester.rs: the BytesMut accumulator
// there is append-and-republish on every frame; preallocate mirrors
// BytesMut::with_capacity(cache.preallocate).
type MapIngester struct {
	Cache *cache.MapCache
	Log   *zap.SugaredLogger
}

func NewMapIngester(c *cache.MapCache, log *zap.SugaredLogger) *MapIngester {
	return &MapIngester{Cache: c, Log: log}
}

func (i *MapIngester) Ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	key := r.URL.Path
	defer i.Cache.Remove(key)

	var buffer []byte
	if i.Cache.Preallocate > 0 {
		buffer = make([]byte, 0, i.Cache.Preallocate)
	}

	buf := make([]byte, readSize)
	for {
		n, err := r.Body.Read(buf)
		if n > 0 {
			buffer = append(buffer, buf[:n]...)
			published := append([]byte(nil), buffer...)
			i.Cache.Insert(key, published, false)
		}
		if err != nil {
			if err != io.EOF && i.Log != nil {
				i.Log.Errorw("ingest: read request body", "path", key, "error", err)
			}
			break
		}
	}

	final := append([]byte(nil), buffer...)
	i.Cache.Insert(key, final, true)

	w.WriteHeader(http.StatusOK)
}

// SimpleIngester drains and discards the request body without publishing
// anything to a cache. It exists for load-testing the ingester HTTP path
// (connection handling, TLS termination, request parsing) in isolation from
// any cache implementation.
//
// Grounded on server/src/ingester/simple_ingester.rs.
type SimpleIngester struct{}

func NewSimpleIngester() *SimpleIngester { return &SimpleIngester{} }

func (i *SimpleIngester) Ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	_, _ = io.Copy(io.Discard, r.Body)
	w.WriteHeader(http.StatusOK)
}
