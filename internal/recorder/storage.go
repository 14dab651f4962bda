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

// Package recorder persists live CMAF uploads to disk alongside a
// per-stream manifest of what was written and when, so a later replay can
// reproduce the original producer's timing.
package recorder

import (
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FileStorage writes uploaded content under a base directory, creating
// whatever subdirectories a relative path needs.
//
// Grounded on recorder/src/storage.rs's FileStorage.
type FileStorage struct {
	basePath string
	log      *zap.SugaredLogger
}

func NewFileStorage(basePath string, log *zap.SugaredLogger) *FileStorage {
	return &FileStorage{basePath: basePath, log: log}
}

// WriteFile writes content to basePath/relativePath, creating parent
// directories as needed.
func (s *FileStorage) WriteFile(relativePath string, content []byte) error {
	fullPath := filepath.Join(s.basePath, relativePath)

	if dir := filepath.Dir(fullPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "recorder: create directory %s", dir)
		}
	}

	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return errors.Wrapf(err, "recorder: write file %s", fullPath)
	}

	if s.log != nil {
		s.log.Debugw("wrote file", "path", fullPath, "size", humanize.Bytes(uint64(len(content))))
	}
	return nil
}
