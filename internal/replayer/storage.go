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

package replayer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/cmafrelay/relaycache/internal/recorder"
)

// FileStorage reads a recording tree written by internal/recorder: one
// metadata.json per stream plus the segment/init/manifest files it
// describes, all rooted at basePath.
type FileStorage struct {
	basePath string

	mu       sync.RWMutex
	metadata map[string]recorder.StreamMetadata
}

func NewFileStorage(basePath string) *FileStorage {
	return &FileStorage{basePath: basePath, metadata: make(map[string]recorder.StreamMetadata)}
}

// ReadMetadata loads stream/metadata.json into the storage's cache.
func (s *FileStorage) ReadMetadata(stream string) error {
	path := filepath.Join(s.basePath, stream, "metadata.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "replayer: read metadata %s", path)
	}

	var meta recorder.StreamMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return errors.Wrapf(err, "replayer: parse metadata %s", path)
	}

	s.mu.Lock()
	s.metadata[stream] = meta
	s.mu.Unlock()
	return nil
}

// GetMetadata returns a previously-loaded stream's metadata.
func (s *FileStorage) GetMetadata(stream string) (recorder.StreamMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.metadata[stream]
	return meta, ok
}

// GetFile reads a recorded file's bytes from disk by its relative path.
func (s *FileStorage) GetFile(relativePath string) ([]byte, error) {
	path := filepath.Join(s.basePath, relativePath)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "replayer: read file %s", path)
	}
	return data, nil
}
