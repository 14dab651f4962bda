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
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// StaticCache serves a fixed, pre-populated set of paths from an
// immutable map. It has no ingester contract at all — Insert-style calls
// don't exist — and exists to exercise the transmitter and the HTTP
// framing in isolation from a live producer (load testing, benchmarking).
type StaticCache struct {
	entries map[string][]byte
}

// NewStaticCache builds a StaticCache from a path→content map. The caller
// must not mutate the byte slices afterward; StaticCache shares them
// directly with every reader.
func NewStaticCache(entries map[string][]byte) *StaticCache {
	return &StaticCache{entries: entries}
}

// Get implements Cache.
func (c *StaticCache) Get(_ context.Context, key string) (io.ReadCloser, bool) {
	data, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return io.NopCloser(bytes.NewReader(data)), true
}

// ShardedStaticCache is StaticCache partitioned across a fixed number of
// xxhash-keyed shards, each guarded by its own mutex-free read-only map.
// Sharding only matters at construction time here since lookups never
// mutate state; it mirrors the original's sharded benchmark cache so
// startup population can be parallelized across shards if desired.
type ShardedStaticCache struct {
	shards []map[string][]byte
}

// NewShardedStaticCache partitions entries into n shards by
// xxhash.Sum64String(path) % n.
func NewShardedStaticCache(n int, entries map[string][]byte) *ShardedStaticCache {
	if n < 1 {
		n = 1
	}
	shards := make([]map[string][]byte, n)
	for i := range shards {
		shards[i] = make(map[string][]byte)
	}
	for k, v := range entries {
		shard := shardFor(k, n)
		shards[shard][k] = v
	}
	return &ShardedStaticCache{shards: shards}
}

func shardFor(key string, n int) int {
	return int(xxhash.Sum64String(key) % uint64(n))
}

// GenerateKeys produces the synthetic /stream-<x>/<y>/<z>.m4s key space a
// benchmark StaticCache is populated with, every key mapping to the same
// content. Grounded on static_cache.rs's gen_key/make_mutex_map loops.
func GenerateKeys(streams, tracks, segments uint64, data []byte) map[string][]byte {
	entries := make(map[string][]byte, streams*tracks*segments)
	for x := uint64(0); x < streams; x++ {
		for y := uint64(0); y < tracks; y++ {
			for z := uint64(0); z < segments; z++ {
				entries[genKey(x, y, z)] = data
			}
		}
	}
	return entries
}

func genKey(stream, track, segment uint64) string {
	return fmt.Sprintf("/stream-%d/%d/%d.m4s", stream, track, segment)
}

// Get implements Cache.
func (c *ShardedStaticCache) Get(_ context.Context, key string) (io.ReadCloser, bool) {
	shard := c.shards[shardFor(key, len(c.shards))]
	data, ok := shard[key]
	if !ok {
		return nil, false
	}
	return io.NopCloser(bytes.NewReader(data)), true
}
