// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

// Package core defines the consumer-facing capabilities of the call-tree
// trace model: what a recorded invocation, a sub-trace and a trace expose to
// analysis and diagnostic tooling. It carries no implementation; the default
// in-memory implementation lives in the repository root package.
package core // import "github.com/traceworks/calltree/core"

import (
	"time"
)

// Callable is one recorded invocation and its position in the call tree.
//
// Timing getters return their unset sentinel (UnsetTime respectively
// UnsetDuration) until the producer populates them. Signature projections
// panic if no signature was ever registered for the node; that state
// indicates a defect in the producing pipeline, not a runtime condition.
type Callable interface {
	// Parent returns the invoking Callable, or nil for a sub-trace root.
	Parent() Callable

	// Callees returns the directly invoked Callables in invocation order.
	// The returned slice is a snapshot; modifying it does not affect the node.
	Callees() []Callable

	// ContainingSubTrace returns the sub-trace this Callable belongs to.
	ContainingSubTrace() SubTrace

	// EntryTime returns the wall-clock entry timestamp.
	EntryTime() TimeMillis

	// ExitTime returns the wall-clock exit timestamp derived from the entry
	// time and the response time, or UnsetTime if either is unset.
	ExitTime() TimeMillis

	// ResponseTime returns the total inclusive duration of the invocation.
	ResponseTime() time.Duration

	// ExecutionTime returns the exclusive (self) duration of the invocation,
	// not counting time spent in callees.
	ExecutionTime() time.Duration

	// CPUTime returns the CPU time consumed by the invocation.
	CPUTime() time.Duration

	// Signature returns the canonical string rendering of the invoked
	// method's signature.
	Signature() string

	MethodName() string
	ClassName() string
	PackageName() string
	ParameterTypes() []string
	ReturnType() string

	// IsConstructor reports whether the invoked method constructs its class.
	IsConstructor() bool

	// Labels returns all labels attached to this Callable, duplicates
	// preserved, in attachment order.
	Labels() []string

	// HasLabel reports whether the given label was attached to this Callable.
	HasLabel(label string) bool

	// AdditionalInformation returns all attached metadata objects. Use
	// InformationOfType to select a specific capability.
	AdditionalInformation() []AdditionalInformation

	// IsSubTraceInvocation reports whether this Callable hands off into
	// another execution context.
	IsSubTraceInvocation() bool

	// IsAsyncInvocation reports whether the sub-trace invocation is
	// asynchronous. Only meaningful when IsSubTraceInvocation is true.
	IsAsyncInvocation() bool

	// InvokedSubTrace returns the sub-trace this Callable hands off to,
	// or nil if it is not a sub-trace invocation or the target is unset.
	InvokedSubTrace() SubTrace

	// DescendantCount returns the number of Callables in the subtree below
	// this one, excluding the node itself. O(1).
	DescendantCount() int

	// DepthFirst returns a fresh pre-order iterator over this Callable and
	// all its descendants.
	DepthFirst() *DepthFirstIterator
}

// SubTrace is one contiguous execution-context span of call nodes, for
// example one thread's portion of a request.
type SubTrace interface {
	// ID returns the producer-assigned identifier of this sub-trace.
	ID() int64

	// ContainingTrace returns the trace owning this sub-trace.
	ContainingTrace() Trace

	// Roots returns the root Callables of this sub-trace in construction
	// order. The returned slice is a snapshot.
	Roots() []Callable

	// Size returns the total number of Callables in this sub-trace.
	Size() int

	// Location describes where this execution context ran.
	Location() Location
}

// Trace is the full captured execution, owning one or more sub-traces and
// the shared interning repositories.
type Trace interface {
	// ID returns the producer-assigned identifier of this trace.
	ID() int64

	// SubTraces returns the sub-traces of this trace in registration order.
	// The returned slice is a snapshot.
	SubTraces() []SubTrace

	// Size returns the total number of Callables across all sub-traces.
	Size() int
}

// Location describes the system context a sub-trace executed in.
type Location struct {
	// Host names the machine or node.
	Host string
	// RuntimeEnvironment names the executing runtime, e.g. a VM identifier.
	RuntimeEnvironment string
	// Application names the deployed application.
	Application string
	// BusinessTransaction names the business operation being served.
	BusinessTransaction string
}
