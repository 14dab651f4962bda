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

// Package errs classifies the handful of ways the relay's own bootstrap
// code can fail, so callers can test a failure's class with As instead of
// string-matching error text. internal/httpserver tags its listen and serve
// failures with Network; the cmd/* entry points exit with status 1 for any
// error and do not inspect the kind.
package errs

import "github.com/pkg/errors"

// Kind is the classification attached to a Wrap'd error.
type Kind int

const (
	_ Kind = iota
	Config
	Network
	Storage
	Request
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "configuration error"
	case Network:
		return "network error"
	case Storage:
		return "storage error"
	case Request:
		return "request error"
	default:
		return "error"
	}
}

// kindError pairs a Kind with the wrapped cause; Error() matches the
// "<Kind>: <cause>" rendering of the original's ServerError Display impl.
type kindError struct {
	kind  Kind
	cause error
}

func (e *kindError) Error() string {
	return e.kind.String() + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() error { return e.cause }

// Wrap attaches kind to err, formatting msg/args with errors.Wrapf first so
// the original call site is preserved in the error chain.
func Wrap(kind Kind, err error, msg string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, cause: errors.Wrapf(err, msg, args...)}
}

// As reports whether err (or something it wraps) carries kind.
func As(err error, kind Kind) bool {
	var ke *kindError
	for err != nil {
		if k, ok := err.(*kindError); ok {
			ke = k
			break
		}
		err = errors.Unwrap(err)
	}
	return ke != nil && ke.kind == kind
}
