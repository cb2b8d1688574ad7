// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

package calltree // import "github.com/traceworks/calltree"

import (
	"github.com/traceworks/calltree/core"
)

var _ core.SubTrace = (*SubTrace)(nil)

// SubTrace is one contiguous execution-context span of call nodes, for
// example one thread's portion of a request. It owns its root nodes and
// back-references the owning trace.
type SubTrace struct {
	id    int64
	trace *Trace

	// roots holds the nil-parent nodes of this span in construction order.
	roots []*CallNode

	location core.Location
}

// NewSubTrace creates a sub-trace and registers it with its owning trace.
func NewSubTrace(id int64, owner *Trace) *SubTrace {
	if owner == nil {
		panic("calltree: sub-trace requires an owning trace")
	}
	st := &SubTrace{id: id, trace: owner}
	owner.addSubTrace(st)
	return st
}

// ID returns the producer-assigned identifier.
func (st *SubTrace) ID() int64 {
	return st.id
}

// ContainingTrace returns the owning trace.
func (st *SubTrace) ContainingTrace() core.Trace {
	return st.trace
}

// Trace returns the owning trace with its concrete type.
func (st *SubTrace) Trace() *Trace {
	return st.trace
}

// Roots returns the root nodes in construction order. The returned slice is
// a snapshot.
func (st *SubTrace) Roots() []core.Callable {
	roots := make([]core.Callable, len(st.roots))
	for i, r := range st.roots {
		roots[i] = r
	}
	return roots
}

// Size returns the total number of nodes in this sub-trace.
func (st *SubTrace) Size() int {
	size := 0
	for _, r := range st.roots {
		size += r.descendants + 1
	}
	return size
}

// Location describes where this execution context ran.
func (st *SubTrace) Location() core.Location {
	return st.location
}

// SetLocation records where this execution context ran.
func (st *SubTrace) SetLocation(loc core.Location) {
	st.location = loc
}

func (st *SubTrace) addRoot(n *CallNode) {
	st.roots = append(st.roots, n)
}
