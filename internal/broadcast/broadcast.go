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

// Package broadcast implements a "wake all waiters once per registration"
// primitive. It is the idiomatic-Go substitute for tokio::sync::Notify: a
// mutex-guarded channel that is closed (waking every current waiter) and
// replaced on every Notify call. A waiter that calls Wait after a Notify
// has already happened gets the new channel and is not woken by the old
// notification — matching spec's "waiter registered after the call sees
// only subsequent notifications."
package broadcast

import "sync"

// Notifier is safe for any number of concurrent waiters and exactly one
// (or many, serialized by the caller) notifier.
type Notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

// New returns a ready-to-use Notifier.
func New() *Notifier {
	return &Notifier{ch: make(chan struct{})}
}

// Wait returns the channel that will be closed by the next call to Notify.
// Callers must re-check their own state after obtaining this channel and
// before blocking on it, to avoid missing a Notify that raced with Wait:
//
//	ch := n.Wait()
//	if progressed() {
//	    return // don't park, something already happened
//	}
//	select {
//	case <-ch:
//	case <-ctx.Done():
//	}
func (n *Notifier) Wait() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch
}

// Notify wakes every waiter currently holding a channel from Wait, then
// installs a fresh channel for subsequent waiters.
func (n *Notifier) Notify() {
	n.mu.Lock()
	old := n.ch
	n.ch = make(chan struct{})
	n.mu.Unlock()
	close(old)
}
