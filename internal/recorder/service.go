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
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cmafrelay/relaycache/internal/pathspec"
)

// Uploader is the recorder's HTTP handler: every PUT is parsed against the
// pathspec grammar, recorded into its stream's metadata, and written to
// disk by FileStorage.
//
// Grounded on recorder/src/service.rs's CMAFUploader.
type Uploader struct {
	Storage  *FileStorage
	Registry *Registry
	Log      *zap.SugaredLogger
}

func NewUploader(storage *FileStorage, registry *Registry, log *zap.SugaredLogger) *Uploader {
	return &Uploader{Storage: storage, Registry: registry, Log: log}
}

func (u *Uploader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPut {
		if u.Log != nil {
			u.Log.Infow("received disallowed method", "method", r.Method)
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	path := r.URL.Path

	params, err := pathspec.Parse(path)
	if err != nil {
		if u.Log != nil {
			u.Log.Warnw("invalid request path", "path", path, "error", err)
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	stream := u.Registry.Get(params.StreamName)
	timeOffset := uint32(time.Since(stream.start).Milliseconds())

	var seqNum uint32
	if params.QualityIdx == nil {
		seqNum = stream.NextNumber()
	} else {
		seqNum = stream.Representation(*params.QualityIdx).NextNumber()
	}

	filename := params.FormatFilename(seqNum)
	meta := NewFileMetadata(timeOffset, path, filename, params.Segment)

	content, readErr := readChunked(r.Body, &meta, start)
	if readErr != nil && u.Log != nil {
		u.Log.Errorw("read request body", "path", path, "error", readErr)
	}
	stream.UpdateLastWrite()

	if params.IsManifest {
		stream.AddManifest(meta)
	} else if params.QualityIdx != nil {
		rep := stream.Representation(*params.QualityIdx)
		if params.IsInit {
			rep.SetInit(meta)
		} else {
			rep.AddFile(meta)
		}
	}

	if err := u.Storage.WriteFile(filename, content); err != nil {
		if u.Log != nil {
			u.Log.Errorw("write file", "path", filename, "error", err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// readChunked reads r in producer-sized bursts, recording each one's byte
// offset and elapsed time into meta so a replay can reproduce the original
// write cadence.
func readChunked(body io.Reader, meta *FileMetadata, start time.Time) ([]byte, error) {
	var content []byte
	buf := make([]byte, 64*1024)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			offset := uint32(time.Since(start).Milliseconds())
			meta.AddChunk(offset, len(content), n)
			content = append(content, buf[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				return content, nil
			}
			return content, err
		}
	}
}
