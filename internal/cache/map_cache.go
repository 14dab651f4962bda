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
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cmafrelay/relaycache/internal/broadcast"
)

// MapCache maps a URL path to a MapCell, a single growing buffer that is
// wholly republished on every Insert. Unlike ListCache, the Cell is
// created by Insert itself — there is no separate "start appending"
// call, since the map variant has nothing useful to hand back before the
// first buffer exists.
type MapCache struct {
	// Preallocate is an initial capacity hint passed to the ingester;
	// MapCache itself doesn't allocate, it only stores whatever buffer
	// Insert is given.
	Preallocate int

	log *zap.SugaredLogger

	mu    sync.Mutex
	cells map[string]*MapCell
}

// NewMapCache returns an empty MapCache. log may be nil, in which case
// buffer-truncation diagnostics (a producer-contract violation) are
// dropped instead of logged.
func NewMapCache(preallocate int, log *zap.SugaredLogger) *MapCache {
	return &MapCache{
		Preallocate: preallocate,
		log:         log,
		cells:       make(map[string]*MapCell),
	}
}

// Insert publishes data as the new buffer for key, creating the Cell on
// first call. completed=true finalizes the Cell; no further Insert calls
// for key are expected after that (re-ingestion of the same path is
// legal and simply starts a fresh buffer sequence).
func (c *MapCache) Insert(key string, data []byte, completed bool) {
	c.mu.Lock()
	cell, ok := c.cells[key]
	if !ok {
		cell = &MapCell{notifier: broadcast.New()}
		c.cells[key] = cell
	}
	c.mu.Unlock()

	cell.setData(data, completed)
}

// Remove drops the map's reference to key's Cell.
func (c *MapCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cells, key)
}

// Get implements Cache.
func (c *MapCache) Get(ctx context.Context, key string) (io.ReadCloser, bool) {
	c.mu.Lock()
	cell, ok := c.cells[key]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	return newMapDownstream(ctx, cell, c.log), true
}

// MapCell holds the current published buffer for one path. data is
// replaced wholesale (never mutated in place) so readers that are mid-Read
// on the previous slice are unaffected.
type MapCell struct {
	data      atomic.Pointer[[]byte]
	completed atomic.Bool
	notifier  *broadcast.Notifier
}

func (c *MapCell) setData(data []byte, completed bool) {
	c.data.Store(&data)
	c.completed.Store(completed)
	c.notifier.Notify()
}

type mapDownstream struct {
	ctx       context.Context
	cell      *MapCell
	log       *zap.SugaredLogger
	bytesSent int
}

func newMapDownstream(ctx context.Context, cell *MapCell, log *zap.SugaredLogger) *mapDownstream {
	return &mapDownstream{ctx: ctx, cell: cell, log: log}
}

// Read implements the map-cache poll-for-next-frame algorithm: emit only
// the suffix appended since the last Read, coalescing however many
// producer chunks arrived in between into one frame.
func (d *mapDownstream) Read(p []byte) (int, error) {
	for {
		dataPtr := d.cell.data.Load()
		completed := d.cell.completed.Load()

		if dataPtr == nil {
			if completed {
				return 0, io.EOF
			}
			if err := d.park(); err != nil {
				return 0, err
			}
			continue
		}

		data := *dataPtr
		switch {
		case len(data) < d.bytesSent:
			if d.log != nil {
				d.log.Errorw("map cache buffer truncated", "sent", d.bytesSent, "available", len(data))
			}
			return 0, io.EOF
		case len(data) == d.bytesSent:
			if completed {
				return 0, io.EOF
			}
			if err := d.park(); err != nil {
				return 0, err
			}
			continue
		default:
			n := copy(p, data[d.bytesSent:])
			d.bytesSent += n
			return n, nil
		}
	}
}

// park registers interest, re-checks once (the caller's loop does the
// re-check by looping back to the top), and blocks until notified or the
// reader's context is done.
func (d *mapDownstream) park() error {
	ch := d.cell.notifier.Wait()
	// Re-check without blocking: something may have published between
	// our last read of data/completed and registering the wait.
	if d.cell.data.Load() != nil && len(*d.cell.data.Load()) != d.bytesSent {
		return nil
	}
	if d.cell.completed.Load() {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

func (d *mapDownstream) Close() error {
	return nil
}
