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
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// defaultInactiveTimeout matches config.rs's default_timeout_secs (5s).
const defaultInactiveTimeout = 5 * time.Second

// defaultAddr matches config.rs's HttpServer::default_addr.
const defaultAddr = "0.0.0.0:9091"

// Settings is the recorder's TOML configuration document.
type Settings struct {
	HTTP    HTTPServer `toml:"http"`
	Storage Storage    `toml:"storage"`
	Stream  Stream     `toml:"stream"`
}

type HTTPServer struct {
	Addr string `toml:"addr"`
}

type Storage struct {
	Path string `toml:"path"`
}

// Stream holds raw seconds from TOML; InactiveTimeout() converts to a
// time.Duration, mirroring config.rs's custom Deserialize impl for
// StreamSettings that does the same u64-seconds-to-Duration conversion.
type Stream struct {
	InactiveTimeoutSecs *uint64 `toml:"inactive_timeout"`
}

func (s Stream) InactiveTimeout() time.Duration {
	if s.InactiveTimeoutSecs == nil {
		return defaultInactiveTimeout
	}
	return time.Duration(*s.InactiveTimeoutSecs) * time.Second
}

// LoadSettings reads and parses a recorder TOML settings file, filling in
// the same defaults the Rust config does for an absent addr/timeout.
func LoadSettings(path string) (*Settings, error) {
	var s Settings
	s.HTTP.Addr = defaultAddr

	if _, err := toml.DecodeFile(path, &s); err != nil {
		return nil, errors.Wrapf(err, "recorder: parse settings %s", path)
	}
	return &s, nil
}
