// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

package core // import "github.com/traceworks/calltree/core"

// DepthFirstIterator walks a call tree in pre-order: each Callable is
// produced before its callees, callees in invocation order. Iteration is
// lazy and bounded by the subtree size; every iterator is independent, so a
// subtree can be traversed concurrently by multiple readers once the
// producer is done mutating it.
type DepthFirstIterator struct {
	// stack holds the not-yet-visited nodes; the top is produced next and
	// its callees pushed in reverse so that the leftmost callee surfaces
	// first.
	stack []Callable
}

// NewDepthFirstIterator returns an iterator over root and all its
// descendants. A nil root yields an empty iteration.
func NewDepthFirstIterator(root Callable) *DepthFirstIterator {
	it := &DepthFirstIterator{}
	if root != nil {
		it.stack = append(it.stack, root)
	}
	return it
}

// Next returns the next Callable in pre-order, or false once the subtree is
// exhausted.
func (it *DepthFirstIterator) Next() (Callable, bool) {
	if len(it.stack) == 0 {
		return nil, false
	}
	top := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]

	callees := top.Callees()
	for i := len(callees) - 1; i >= 0; i-- {
		it.stack = append(it.stack, callees[i])
	}
	return top, true
}
