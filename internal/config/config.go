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

// Package config parses the TOML settings file that wires up the ingester
// and transmitter addresses and the set of named cache instances a
// "kind:name" selector on the command line can resolve to.
package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Setting is the top-level TOML document.
type Setting struct {
	Runtime     Runtime     `toml:"runtime"`
	Ingester    Ingester    `toml:"ingester"`
	Transmitter Transmitter `toml:"transmitter"`
	Cache       Cache       `toml:"cache"`
}

// Runtime holds process-wide tuning knobs. Threads mirrors the Rust
// original's tokio worker-thread count; Go has no equivalent scheduler
// knob, so it instead bounds GOMAXPROCS when set (0 leaves the runtime
// default of NumCPU in place).
type Runtime struct {
	Threads int `toml:"threads"`
}

// Ingester is the listen address for chunked PUT uploads.
type Ingester struct {
	Addr string `toml:"addr"`
}

// Transmitter is the listen address for consumer GET requests.
type Transmitter struct {
	Addr string `toml:"addr"`
}

// Cache lists every named cache instance available for the command line's
// "kind:name" selector, grouped by kind.
type Cache struct {
	Map    []MapCache    `toml:"map"`
	List   []ListCache   `toml:"list"`
	Static []StaticCache `toml:"static"`
}

type MapCache struct {
	Name        string `toml:"name"`
	Preallocate int    `toml:"preallocate"`
}

type ListCache struct {
	Name string `toml:"name"`
	Copy bool   `toml:"copy"`
}

type StaticCache struct {
	Name     string `toml:"name"`
	FilePath string `toml:"file_path"`
	Shards   uint64 `toml:"shards"`
	Streams  uint64 `toml:"streams"`
	Tracks   uint64 `toml:"tracks"`
	Segments uint64 `toml:"segments"`
}

// Kind identifies which of Cache's three slices a selector resolved into.
type Kind int

const (
	KindNotFound Kind = iota
	KindStatic
	KindList
	KindMap
)

// Resolved is the result of looking up a "kind:name" selector: exactly one
// of the embedded configs is meaningful, indicated by Kind.
type Resolved struct {
	Kind   Kind
	Static StaticCache
	List   ListCache
	Map    MapCache
}

// Resolve splits name on ':' and looks the second half up in the matching
// slice. A malformed selector or an unknown name both resolve to
// KindNotFound rather than an error, since the caller (main) is expected to
// turn that into a fatal "no such cache" message with the selector text.
func (c Cache) Resolve(name string) Resolved {
	parts := strings.SplitN(name, ":", 2)
	if len(parts) != 2 {
		return Resolved{Kind: KindNotFound}
	}

	switch parts[0] {
	case "static":
		for _, s := range c.Static {
			if s.Name == parts[1] {
				return Resolved{Kind: KindStatic, Static: s}
			}
		}
	case "list":
		for _, l := range c.List {
			if l.Name == parts[1] {
				return Resolved{Kind: KindList, List: l}
			}
		}
	case "map":
		for _, m := range c.Map {
			if m.Name == parts[1] {
				return Resolved{Kind: KindMap, Map: m}
			}
		}
	}
	return Resolved{Kind: KindNotFound}
}

// Load reads and parses a TOML settings file.
func Load(path string) (*Setting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}

	var s Setting
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	return &s, nil
}
