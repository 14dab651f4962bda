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

// Package transmit serves cached CMAF segments to consumers: resolve the
// request path against a cache.Cache, then stream whatever is found back
// as a chunked video/mp4 response.
package transmit

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/cmafrelay/relaycache/internal/cache"
)

// Grounded on server/src/api/http/service.rs's COMMON_HEADERS/MEDIA_HEADERS:
// CORS is wide open because the consumer is a browser-side media player
// fetching segments cross-origin from the ingest host, and every served
// body is a CMAF byte stream regardless of which cache produced it.
var commonHeaders = map[string]string{
	"Access-Control-Allow-Origin": "*",
}

var mediaHeaders = map[string]string{
	"Content-Type": "video/mp4",
}

// Handler resolves GET requests against a single cache.Cache.
type Handler struct {
	Cache cache.Cache
	Log   *zap.SugaredLogger
}

func NewHandler(c cache.Cache, log *zap.SugaredLogger) *Handler {
	return &Handler{Cache: c, Log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for k, v := range commonHeaders {
		w.Header().Set(k, v)
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, ok := h.Cache.Get(r.Context(), r.URL.Path)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	defer body.Close()

	for k, v := range mediaHeaders {
		w.Header().Set(k, v)
	}
	w.WriteHeader(http.StatusOK)

	if flusher, ok := w.(http.Flusher); ok {
		_, _ = copyFlushing(w, body, flusher)
		return
	}
	_, _ = io.Copy(w, body)
}

// copyFlushing streams body to w one read at a time, flushing after each
// write so a slow producer's chunks reach the consumer as soon as they
// arrive instead of sitting in an internal buffer until it fills.
func copyFlushing(w io.Writer, body io.Reader, flusher http.Flusher) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			nw, werr := w.Write(buf[:n])
			written += int64(nw)
			flusher.Flush()
			if werr != nil {
				return written, werr
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return written, nil
			}
			return written, rerr
		}
	}
}
