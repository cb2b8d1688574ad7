// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

// Package calltree provides the default in-memory implementation of the
// call-tree trace model: traces built incrementally from call nodes, with
// method signatures and label strings interned in per-trace repositories.
//
// A Trace owns the repositories and an ordered set of SubTraces; a SubTrace
// owns the root CallNodes of one execution context. Nodes link themselves to
// their parent (or the sub-trace root list) at construction time and keep
// the descendant counts of all ancestors up to date.
//
// Construction is single-writer and unsynchronized. Once the producer is
// done, the model is effectively immutable; all exposed views are snapshots,
// so independent readers are safe without coordination.
package calltree // import "github.com/traceworks/calltree"

import (
	"github.com/traceworks/calltree/core"
)

var _ core.Trace = (*Trace)(nil)

// Trace is the full captured execution. It owns the interning repositories
// shared by all of its nodes and the ordered set of sub-traces.
type Trace struct {
	id int64

	signatures      *SignatureRepository
	stringConstants *StringConstantRepository

	subTraces []*SubTrace
}

// NewTrace creates an empty trace with fresh repositories.
func NewTrace(id int64) *Trace {
	return &Trace{
		id:              id,
		signatures:      NewSignatureRepository(),
		stringConstants: NewStringConstantRepository(),
	}
}

// ID returns the producer-assigned identifier.
func (t *Trace) ID() int64 {
	return t.id
}

// SubTraces returns the sub-traces in registration order. The returned
// slice is a snapshot.
func (t *Trace) SubTraces() []core.SubTrace {
	subTraces := make([]core.SubTrace, len(t.subTraces))
	for i, st := range t.subTraces {
		subTraces[i] = st
	}
	return subTraces
}

// Size returns the total number of nodes across all sub-traces.
func (t *Trace) Size() int {
	size := 0
	for _, st := range t.subTraces {
		size += st.Size()
	}
	return size
}

// Signatures returns the trace's signature repository.
func (t *Trace) Signatures() *SignatureRepository {
	return t.signatures
}

// StringConstants returns the trace's string constant repository.
func (t *Trace) StringConstants() *StringConstantRepository {
	return t.stringConstants
}

// RegisterSignature interns sig and returns its id.
func (t *Trace) RegisterSignature(sig Signature) SignatureID {
	return t.signatures.Register(sig)
}

// ResolveSignature returns the signature registered under id.
func (t *Trace) ResolveSignature(id SignatureID) (Signature, error) {
	return t.signatures.Resolve(id)
}

// RegisterStringConstant interns value and returns its id.
func (t *Trace) RegisterStringConstant(value string) StringID {
	return t.stringConstants.Register(value)
}

// ResolveStringConstant returns the string registered under id.
func (t *Trace) ResolveStringConstant(id StringID) (string, error) {
	return t.stringConstants.Resolve(id)
}

// LookupStringConstant returns the id assigned to value, without
// registering it.
func (t *Trace) LookupStringConstant(value string) (StringID, bool) {
	return t.stringConstants.Lookup(value)
}

func (t *Trace) addSubTrace(st *SubTrace) {
	t.subTraces = append(t.subTraces, st)
}
