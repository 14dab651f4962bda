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

// Package cache implements the two cache shapes described by the relay
// spec: a streaming list cache (internal/chunklist backed) and a
// coalescing map cache (a single republished growing buffer). Both are
// exposed behind the Cache interface so the transmitter can be written
// once against either shape.
//
// The map cache trades a memcpy on every producer append for fewer,
// larger frames delivered to readers; the list cache is zero-copy per
// chunk at the cost of many small frames. Neither is strictly better —
// pick at startup based on the expected chunk size and reader count.
package cache

import (
	"context"
	"io"
)

// Cache resolves a path to a readable stream of its current (possibly
// still-growing) content. Get returns ok=false when no ingest has ever
// started for key — callers must not block waiting for one to start; per
// the relay's design, downstream clients discover paths via a manifest
// the producer publishes only once content exists.
type Cache interface {
	Get(ctx context.Context, key string) (r io.ReadCloser, ok bool)
}
