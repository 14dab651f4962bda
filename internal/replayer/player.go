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
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/cmafrelay/relaycache/internal/recorder"
)

// minDelayMillis is the delay at or below which sleeping is skipped (chunks
// arrived close enough together that a sleep call would cost more than it
// reproduces); kept from replayer.rs's `if delay > 2`.
const minDelayMillis = 2

// Player replays one representation's init segment and media segments
// against a target, reproducing both the inter-file and intra-file
// pacing recorded in their FileMetadata.Chunks.
//
// Grounded on original_source/replayer/src/replayer.rs's Replayer/FileStream.
type Player struct {
	Storage *FileStorage
	Client  *http.Client
}

func NewPlayer(storage *FileStorage, client *http.Client) *Player {
	if client == nil {
		client = http.DefaultClient
	}
	return &Player{Storage: storage, Client: client}
}

// Play replays representation against baseURL, looping for duration if
// set, or once through all segments otherwise. It returns total bytes
// sent.
func (p *Player) Play(baseURL string, representation recorder.RepresentationMetadata, duration time.Duration, loop bool) (int64, error) {
	start := time.Now()
	var totalSent int64
	var lastTimeOffset uint32

	if representation.Init != nil {
		n, err := p.sendFile(initURL(baseURL, representation.Idx), *representation.Init)
		if err != nil {
			return totalSent, err
		}
		totalSent += n
		lastTimeOffset = lastChunkEnd(*representation.Init)
	}

	if len(representation.Segments) == 0 {
		return totalSent, errors.New("replayer: representation has no segments")
	}

	i := 0
	for {
		if loop && time.Since(start) > duration {
			break
		}

		if i >= len(representation.Segments) {
			if !loop {
				break
			}
			i = 0
			lastTimeOffset = 0
		}

		segment := representation.Segments[i]
		delay := saturatingDelta(segment.TimeOffsetMs, lastTimeOffset)
		if delay > minDelayMillis {
			time.Sleep(time.Duration(delay) * time.Millisecond)
		}

		if segment.Segment == nil {
			return totalSent, errors.New("replayer: media segment missing its segment number")
		}
		n, err := p.sendFile(segmentURL(baseURL, representation.Idx, *segment.Segment), segment)
		if err != nil {
			return totalSent, err
		}
		totalSent += n

		i++
		lastTimeOffset = lastChunkEnd(segment)
	}

	return totalSent, nil
}

// saturatingDelta is the REDESIGN FLAG fix: the original computes
// next_ts - ts in unsigned arithmetic, wrapping to a huge value when the
// recorded clock went backwards. Here the subtraction is done in signed
// arithmetic and clamped to zero instead.
func saturatingDelta(next, prev uint32) int64 {
	delta := int64(next) - int64(prev)
	if delta < 0 {
		return 0
	}
	return delta
}

func lastChunkEnd(file recorder.FileMetadata) uint32 {
	if len(file.Chunks) == 0 {
		return file.TimeOffsetMs
	}
	return file.TimeOffsetMs + file.Chunks[len(file.Chunks)-1].TimeOffsetMillis
}

func initURL(base string, idx uint32) string {
	return fmt.Sprintf("%s/%d/init.m4s", base, idx)
}

func segmentURL(base string, idx, segment uint32) string {
	return fmt.Sprintf("%s/%d/%d.m4s", base, idx, segment)
}

// sendFile PUTs file's recorded bytes to url, replaying its recorded
// chunk boundaries and inter-chunk delays as it streams the body so the
// receiving ingester sees the same write cadence the original producer
// did.
func (p *Player) sendFile(url string, file recorder.FileMetadata) (int64, error) {
	data, err := p.Storage.GetFile(file.FileName)
	if err != nil {
		return 0, err
	}

	pr, pw := io.Pipe()
	go p.streamChunks(pw, data, file.Chunks)

	req, err := http.NewRequest(http.MethodPut, url, pr)
	if err != nil {
		return 0, errors.Wrap(err, "replayer: build request")
	}
	req.Header.Set("User-Agent", "relaycache-replayer/1.0")
	req.ContentLength = -1 // force chunked transfer encoding

	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "replayer: send request")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return int64(len(data)), nil
}

func (p *Player) streamChunks(w *io.PipeWriter, data []byte, chunks []recorder.Chunk) {
	var lastTs uint32
	for _, c := range chunks {
		delay := saturatingDelta(c.TimeOffsetMillis, lastTs)
		if delay > minDelayMillis {
			time.Sleep(time.Duration(delay) * time.Millisecond)
		}

		end := c.ByteOffset + c.Size
		if end > len(data) {
			end = len(data)
		}
		if _, err := w.Write(data[c.ByteOffset:end]); err != nil {
			_ = w.CloseWithError(err)
			return
		}
		lastTs = c.TimeOffsetMillis
	}
	_ = w.Close()
}
