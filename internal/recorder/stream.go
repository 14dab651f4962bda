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

package recorder

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry tracks every active stream by name, spinning up a watchdog
// goroutine per stream that writes its metadata.json and evicts it from
// the registry once it goes quiet.
//
// Grounded on recorder/src/stream.rs's StreamRegistry.
type Registry struct {
	inactiveTimeout time.Duration
	storage         *FileStorage
	log             *zap.SugaredLogger

	mu      sync.Mutex
	streams map[string]*Stream
}

func NewRegistry(storage *FileStorage, inactiveTimeout time.Duration, log *zap.SugaredLogger) *Registry {
	return &Registry{
		inactiveTimeout: inactiveTimeout,
		storage:         storage,
		log:             log,
		streams:         make(map[string]*Stream),
	}
}

// Get returns the named stream, creating it (and its watchdog) on first
// use.
func (r *Registry) Get(name string) *Stream {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.streams[name]; ok {
		return s
	}

	s := newStream(name)
	r.streams[name] = s

	go r.watchdog(s)

	return s
}

// watchdog polls once a second; once a stream has gone inactiveTimeout
// without a write it is dropped from the registry and its metadata is
// flushed to disk as metadata.json next to its recorded files.
func (r *Registry) watchdog(s *Stream) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		elapsed := time.Since(s.start)
		lastWrite := time.Duration(atomic.LoadInt64(&s.lastWriteMillis)) * time.Millisecond

		if elapsed-lastWrite <= r.inactiveTimeout {
			continue
		}

		r.mu.Lock()
		delete(r.streams, s.id)
		r.mu.Unlock()

		if r.log != nil {
			r.log.Infow("stream removed due to inactivity", "stream", s.id)
		}

		metadata := s.exportMetadata()
		data, err := json.MarshalIndent(metadata, "", "  ")
		if err != nil {
			if r.log != nil {
				r.log.Errorw("serialize stream metadata", "stream", s.id, "error", err)
			}
			return
		}

		path := s.id + "/metadata.json"
		if err := r.storage.WriteFile(path, data); err != nil {
			if r.log != nil {
				r.log.Errorw("save stream metadata", "stream", s.id, "error", err)
			}
			return
		}
		if r.log != nil {
			r.log.Debugw("stream metadata saved", "path", path)
		}
		return
	}
}

// Stream is one content stream with multiple quality Representations plus
// whatever manifest files were uploaded for it.
type Stream struct {
	id              string
	correlationID   uuid.UUID
	start           time.Time
	lastWriteMillis int64
	counter         uint32

	mu             sync.RWMutex
	manifests      []FileMetadata
	representation map[uint32]*Representation
}

func newStream(id string) *Stream {
	return &Stream{
		id:             id,
		correlationID:  uuid.New(),
		start:          time.Now(),
		representation: make(map[uint32]*Representation),
	}
}

// NextNumber returns the stream-wide sequence number for a manifest write.
func (s *Stream) NextNumber() uint32 {
	return atomic.AddUint32(&s.counter, 1) - 1
}

// Representation returns the quality variant idx, creating it on first use.
func (s *Stream) Representation(idx uint32) *Representation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rep, ok := s.representation[idx]; ok {
		return rep
	}
	rep := newRepresentation()
	s.representation[idx] = rep
	return rep
}

// AddManifest records a manifest file against this stream.
func (s *Stream) AddManifest(file FileMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests = append(s.manifests, file)
}

// UpdateLastWrite marks the stream as active right now.
func (s *Stream) UpdateLastWrite() {
	atomic.StoreInt64(&s.lastWriteMillis, time.Since(s.start).Milliseconds())
}

func (s *Stream) exportMetadata() StreamMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reps := make([]RepresentationMetadata, 0, len(s.representation))
	for idx, rep := range s.representation {
		reps = append(reps, RepresentationMetadata{
			Idx:      idx,
			Init:     rep.init,
			Segments: rep.segmentsCopy(),
		})
	}

	return StreamMetadata{
		Name:            s.id,
		Manifests:       append([]FileMetadata(nil), s.manifests...),
		Representations: reps,
	}
}

// Representation is one quality variant of a stream: an optional init
// segment plus its ordered media segments.
type Representation struct {
	counter uint32

	mu       sync.RWMutex
	init     *FileMetadata
	segments []FileMetadata
}

func newRepresentation() *Representation {
	return &Representation{}
}

// NextNumber returns the representation-wide sequence number.
func (r *Representation) NextNumber() uint32 {
	return atomic.AddUint32(&r.counter, 1) - 1
}

// SetInit stores file as the init segment, replacing whatever was there.
func (r *Representation) SetInit(file FileMetadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.init = &file
}

// AddFile appends file to the representation's media segment list.
func (r *Representation) AddFile(file FileMetadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = append(r.segments, file)
}

func (r *Representation) segmentsCopy() []FileMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]FileMetadata(nil), r.segments...)
}

// StreamMetadata is the JSON document written to metadata.json on eviction.
type StreamMetadata struct {
	Name            string                   `json:"name"`
	Manifests       []FileMetadata           `json:"manifests"`
	Representations []RepresentationMetadata `json:"representations"`
}

type RepresentationMetadata struct {
	Idx      uint32         `json:"idx"`
	Init     *FileMetadata  `json:"init,omitempty"`
	Segments []FileMetadata `json:"segments"`
}

// Chunk records one write's offset, in both stream time and file bytes, so
// a replay can reproduce the producer's original pacing.
type Chunk struct {
	TimeOffsetMillis uint32 `json:"time_offset_ms"`
	ByteOffset       int    `json:"byte_offset"`
	Size             int    `json:"size"`
}

// FileMetadata is one recorded file: where it's stored, how it was
// addressed, and the chunk-by-chunk timeline of writes that built it.
type FileMetadata struct {
	Path           string  `json:"path"`
	FileName       string  `json:"file_name"`
	Segment        *uint32 `json:"segment,omitempty"`
	TimeOffsetMs   uint32  `json:"time_offset"`
	Size           int     `json:"size"`
	Chunks         []Chunk `json:"chunks"`
}

func NewFileMetadata(offset uint32, path, fileName string, segment *uint32) FileMetadata {
	return FileMetadata{
		Path:         path,
		FileName:     fileName,
		Segment:      segment,
		TimeOffsetMs: offset,
	}
}

// AddChunk records one write and folds its size into the running total.
func (f *FileMetadata) AddChunk(timeOffsetMs uint32, byteOffset, size int) {
	f.Chunks = append(f.Chunks, Chunk{TimeOffsetMillis: timeOffsetMs, ByteOffset: byteOffset, Size: size})
	f.Size += size
}
