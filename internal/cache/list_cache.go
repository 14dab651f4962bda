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

package cache

import (
	"context"
	"io"
	"sync"

	"github.com/cmafrelay/relaycache/internal/broadcast"
	"github.com/cmafrelay/relaycache/internal/chunklist"
)

// ListCache maps a URL path to a ListCell. A Cell is created by the first
// call to Cell (the ingester's entry point); a GET for a path nothing has
// ever ingested returns ok=false without creating one.
type ListCache struct {
	// CopyBeforeInsert decouples the cache's lifetime from the ingester's
	// buffer reuse at the cost of one memcpy per chunk. When false, the
	// caller's byte slice is retained directly and must not be mutated
	// after it is handed to Append.
	CopyBeforeInsert bool

	mu    sync.Mutex
	cells map[string]*ListCell
}

// NewListCache returns an empty ListCache.
func NewListCache(copyBeforeInsert bool) *ListCache {
	return &ListCache{
		CopyBeforeInsert: copyBeforeInsert,
		cells:            make(map[string]*ListCell),
	}
}

// Cell returns the Cell for key, creating one if this is the first call
// for that key. Intended for the single ingester bound to key; never
// called concurrently for the same key.
func (c *ListCache) Cell(key string) *ListCell {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cell, ok := c.cells[key]; ok {
		return cell
	}

	cell := &ListCell{notifier: broadcast.New()}
	c.cells[key] = cell
	return cell
}

// Remove drops the map's reference to key's Cell. Readers that already
// hold a strong reference (via Get) keep draining it to completion.
func (c *ListCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cells, key)
}

// Get implements Cache.
func (c *ListCache) Get(ctx context.Context, key string) (io.ReadCloser, bool) {
	c.mu.Lock()
	cell, ok := c.cells[key]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	return newListDownstream(ctx, cell), true
}

// ListCell is one cache entry: an append-only chunk list plus a notifier
// that wakes readers parked at the current head.
type ListCell struct {
	list     chunklist.List
	notifier *broadcast.Notifier
}

// Append adds value (nil for the terminal sentinel) to the cell and wakes
// every reader currently parked on it. Must only be called by the single
// ingester owning this cell.
func (c *ListCell) Append(value []byte) {
	c.list.Append(value)
	c.notifier.Notify()
}

type listDownstream struct {
	ctx    context.Context
	cell   *ListCell
	cursor *chunklist.Node
	buf    []byte
	done   bool
}

func newListDownstream(ctx context.Context, cell *ListCell) *listDownstream {
	return &listDownstream{ctx: ctx, cell: cell}
}

// Read implements the poll-for-next-frame algorithm from the relay spec:
// advance the cursor if a successor is already visible; otherwise
// register interest on the notifier, re-check once, and only then park.
func (d *listDownstream) Read(p []byte) (int, error) {
	for {
		if d.done {
			return 0, io.EOF
		}
		if len(d.buf) > 0 {
			n := copy(p, d.buf)
			d.buf = d.buf[n:]
			return n, nil
		}

		next := d.advance()
		if next == nil {
			ch := d.cell.notifier.Wait()
			if next = d.advance(); next == nil {
				select {
				case <-ch:
					continue
				case <-d.ctx.Done():
					return 0, d.ctx.Err()
				}
			}
		}

		d.cursor = next
		if next.Value == nil {
			d.done = true
			return 0, io.EOF
		}
		d.buf = next.Value
	}
}

func (d *listDownstream) advance() *chunklist.Node {
	if d.cursor == nil {
		return d.cell.list.Tail()
	}
	return d.cursor.Next()
}

func (d *listDownstream) Close() error {
	return nil
}
