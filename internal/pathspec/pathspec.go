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

// Package pathspec parses and formats the recorder's upload path grammar:
//
//	/<stream>/<filename>               -- a manifest, two path segments
//	/<stream>/<quality>/init.m4s       -- an init segment
//	/<stream>/<quality>/<segment>.m4s  -- a media segment
package pathspec

import (
	"fmt"
	"strconv"
	"strings"
)

// Params is a parsed request path.
type Params struct {
	StreamName string
	QualityIdx *uint32
	Segment    *uint32
	IsManifest bool
	IsInit     bool
}

// Parse splits path into Params. It accepts a leading slash or not.
// Grounded on recorder/src/service.rs's RequestParams::from_path.
func Parse(path string) (Params, error) {
	trimmed := strings.TrimPrefix(path, "/")
	parts := strings.Split(trimmed, "/")

	switch len(parts) {
	case 2:
		return Params{
			StreamName: parts[0],
			IsManifest: true,
		}, nil
	case 3:
		filename, ok := strings.CutSuffix(parts[2], ".m4s")
		if !ok {
			return Params{}, fmt.Errorf("invalid filename: must end with .m4s")
		}

		qualityIdx, err := parseUint32(parts[1])
		if err != nil {
			return Params{}, fmt.Errorf("invalid quality index: %w", err)
		}

		var isInit bool
		var segment *uint32
		if filename == "init" {
			isInit = true
		} else {
			seg, err := parseUint32(filename)
			if err != nil {
				return Params{}, fmt.Errorf("invalid segment number: %w", err)
			}
			segment = &seg
		}

		return Params{
			StreamName: parts[0],
			QualityIdx: &qualityIdx,
			IsInit:     isInit,
			Segment:    segment,
		}, nil
	default:
		return Params{}, fmt.Errorf("invalid path: expected 2-3 parts, got %d", len(parts))
	}
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// FormatFilename builds the on-disk storage filename for this request,
// given the sequence number the stream or representation assigned it.
func (p Params) FormatFilename(seq uint32) string {
	if p.IsManifest {
		return fmt.Sprintf("%s/manifests/%d_index.mpd", p.StreamName, seq)
	}

	if p.QualityIdx != nil {
		if p.Segment != nil {
			return fmt.Sprintf("%s/%d/%d_%d.m4s", p.StreamName, *p.QualityIdx, seq, *p.Segment)
		}
		return fmt.Sprintf("%s/%d/%d_init.m4s", p.StreamName, *p.QualityIdx, seq)
	}

	return fmt.Sprintf("%s/none/%d_none", p.StreamName, seq)
}
