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

// Package replayer re-PUTs a recorded stream's segments against a target
// address in their original order, sleeping between chunks to reproduce
// the producer's recorded pacing.
package replayer

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Settings is the replayer's TOML configuration: the target to PUT
// against, where recordings live on disk, and a schedule of streams to
// replay in sequence.
//
// Grounded on original_source/replayer/src/config.rs.
type Settings struct {
	Target   Target   `toml:"target"`
	Storage  Storage  `toml:"storage"`
	Schedule Schedule `toml:"schedule"`
}

type Target struct {
	URL string `toml:"url"`
}

type Storage struct {
	Path string `toml:"path"`
}

type Schedule struct {
	Steps []ScheduleStep `toml:"steps"`
}

// ScheduleStep replays one recorded stream, optionally looping for
// Duration and preceded by Delay, with Parallel concurrent players.
type ScheduleStep struct {
	DurationSecs *uint64 `toml:"duration_secs"`
	DelaySecs    *uint64 `toml:"delay_secs"`
	Stream       string  `toml:"stream"`
	Parallel     uint32  `toml:"parallel"`
}

func (s ScheduleStep) Duration() (time.Duration, bool) {
	if s.DurationSecs == nil {
		return 0, false
	}
	return time.Duration(*s.DurationSecs) * time.Second, true
}

func (s ScheduleStep) Delay() (time.Duration, bool) {
	if s.DelaySecs == nil {
		return 0, false
	}
	return time.Duration(*s.DelaySecs) * time.Second, true
}

func LoadSettings(path string) (*Settings, error) {
	var s Settings
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return nil, errors.Wrapf(err, "replayer: parse settings %s", path)
	}
	return &s, nil
}
