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

// Package chunklist implements a lock-free, append-only, singly-linked
// list of byte chunks. Exactly one producer calls Append; any number of
// readers hold long-lived cursors and walk the list from a node they last
// saw toward the current head.
//
// A node's Next pointer is written exactly once, with a release store,
// and read with an acquire load everywhere it is observed. That gives a
// happens-before edge from the construction of a node to any reader that
// observes a pointer to it, so no additional synchronization is needed to
// read a node's Value once its predecessor's Next field resolves to it.
//
// Go's garbage collector retains nodes for as long as any Tail/Next
// pointer or reader cursor still references them — there is no manual
// refcounting here, unlike the Arc-based original this package is modeled
// on.
package chunklist

import "sync/atomic"

// Node is one link in the list. A nil Value marks the terminal sentinel:
// the producer is done and no further chunks will be appended.
type Node struct {
	Value []byte
	next  atomic.Pointer[Node]
}

// Next returns the node appended after n, or nil if the producer hasn't
// appended one yet.
func (n *Node) Next() *Node {
	return n.next.Load()
}

// List is the append-only chunk list described in the package doc.
// The zero value is ready to use.
type List struct {
	tail atomic.Pointer[Node]
	head atomic.Pointer[Node]
}

// Tail returns the first node ever appended, or nil if the list is still
// empty. Safe to call from any number of concurrent readers.
func (l *List) Tail() *Node {
	return l.tail.Load()
}

// Append adds a new node carrying value at the head of the list. value
// may be nil to publish the terminal sentinel. Append must only ever be
// called by a single producer; concurrent Append calls on the same List
// are a contract violation the package does not guard against (see
// spec invariant "single-writer").
func (l *List) Append(value []byte) *Node {
	node := &Node{Value: value}

	if l.tail.Load() == nil {
		l.tail.Store(node)
	}

	if head := l.head.Load(); head != nil {
		head.next.Store(node)
	}

	l.head.Store(node)
	return node
}
