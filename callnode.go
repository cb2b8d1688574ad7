// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

package calltree // import "github.com/traceworks/calltree"

import (
	"slices"
	"time"

	"github.com/traceworks/calltree/core"
)

// noSignature marks a node that never had a signature registered.
const noSignature SignatureID = -1

var _ core.Callable = (*CallNode)(nil)

// CallNode is the default Callable implementation: one recorded invocation
// inside the call tree of a sub-trace.
//
// Nodes are built incrementally by a single producer. Construction links the
// node into its parent's child list (or the sub-trace's root list); all
// attribute setters may be called afterwards in any order. Once the producer
// is done, any number of readers may traverse and query the tree
// concurrently.
type CallNode struct {
	// parent is a lookup-only back-reference; ownership flows downward
	// through children.
	parent *CallNode

	// children holds the directly invoked nodes in invocation order.
	children []*CallNode

	// subTrace back-references the owning sub-trace, never nil.
	subTrace *SubTrace

	entryTime     core.TimeMillis
	responseTime  time.Duration
	executionTime time.Duration
	cpuTime       time.Duration

	// signatureID references the owning trace's signature repository,
	// noSignature until SetSignature is called.
	signatureID SignatureID

	// labelIDs reference the owning trace's string constant repository.
	// Duplicate attachments are preserved.
	labelIDs []StringID

	additionalInfo []core.AdditionalInformation

	// descendants counts all nodes below this one, excluding itself.
	// Maintained on insertion.
	descendants int

	subTraceInvocation bool
	asyncInvocation    bool
	invokedSubTrace    *SubTrace
}

// NewCallNode creates a node inside sub-trace st and links it under parent.
// A nil parent makes the node a root of st. The descendant counts of all
// ancestors are updated as part of construction.
func NewCallNode(parent *CallNode, st *SubTrace) *CallNode {
	if st == nil {
		panic("calltree: call node requires a containing sub-trace")
	}
	n := &CallNode{
		parent:        parent,
		subTrace:      st,
		entryTime:     core.UnsetTime,
		responseTime:  core.UnsetDuration,
		executionTime: core.UnsetDuration,
		cpuTime:       core.UnsetDuration,
		signatureID:   noSignature,
	}
	if parent == nil {
		st.addRoot(n)
	} else {
		parent.addCallee(n)
	}
	return n
}

// addCallee appends callee to the child list and propagates its subtree
// size to every ancestor. O(depth) per insertion.
func (n *CallNode) addCallee(callee *CallNode) {
	n.children = append(n.children, callee)
	added := callee.descendants + 1
	for anc := n; anc != nil; anc = anc.parent {
		anc.descendants += added
	}
}

// Parent returns the invoking node, or nil for a sub-trace root.
func (n *CallNode) Parent() core.Callable {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Callees returns the directly invoked nodes in invocation order. The
// returned slice is a snapshot; the tree cannot be mutated through it.
func (n *CallNode) Callees() []core.Callable {
	callees := make([]core.Callable, len(n.children))
	for i, c := range n.children {
		callees[i] = c
	}
	return callees
}

// ContainingSubTrace returns the sub-trace this node belongs to.
func (n *CallNode) ContainingSubTrace() core.SubTrace {
	return n.subTrace
}

// SubTrace returns the containing sub-trace with its concrete type, giving
// tooling access to the owning trace's repositories.
func (n *CallNode) SubTrace() *SubTrace {
	return n.subTrace
}

func (n *CallNode) SetEntryTime(t core.TimeMillis) {
	n.entryTime = t
}

func (n *CallNode) EntryTime() core.TimeMillis {
	return n.entryTime
}

// ExitTime derives the wall-clock exit timestamp from the entry time plus
// the response time rounded to the nearest millisecond, halves away from
// zero. It returns UnsetTime while either operand is unset.
func (n *CallNode) ExitTime() core.TimeMillis {
	if !n.entryTime.Valid() || n.responseTime == core.UnsetDuration {
		return core.UnsetTime
	}
	return n.entryTime.Add(n.responseTime)
}

func (n *CallNode) SetResponseTime(d time.Duration) {
	n.responseTime = d
}

func (n *CallNode) ResponseTime() time.Duration {
	return n.responseTime
}

func (n *CallNode) SetExecutionTime(d time.Duration) {
	n.executionTime = d
}

func (n *CallNode) ExecutionTime() time.Duration {
	return n.executionTime
}

func (n *CallNode) SetCPUTime(d time.Duration) {
	n.cpuTime = d
}

func (n *CallNode) CPUTime() time.Duration {
	return n.cpuTime
}

// SetSignature interns sig in the owning trace's signature repository and
// stores the returned id, replacing any prior signature.
func (n *CallNode) SetSignature(sig Signature) {
	n.signatureID = n.subTrace.trace.RegisterSignature(sig)
}

// SignatureID returns the raw interned id, or false when no signature was
// set. Tooling uses this to inspect incomplete traces without tripping the
// panic of the signature projections.
func (n *CallNode) SignatureID() (SignatureID, bool) {
	return n.signatureID, n.signatureID != noSignature
}

// resolveSignature returns the node's interned signature. It panics when no
// signature was ever set or when the stored id is unknown to the owning
// trace; both indicate a defect in the producing pipeline.
func (n *CallNode) resolveSignature() Signature {
	if n.signatureID == noSignature {
		panic("calltree: no signature set on call node")
	}
	sig, err := n.subTrace.trace.ResolveSignature(n.signatureID)
	if err != nil {
		panic(err)
	}
	return sig
}

// Signature returns the canonical string rendering of the node's signature.
func (n *CallNode) Signature() string {
	return n.resolveSignature().String()
}

func (n *CallNode) MethodName() string {
	return n.resolveSignature().MethodName
}

func (n *CallNode) ClassName() string {
	return n.resolveSignature().ClassName
}

func (n *CallNode) PackageName() string {
	return n.resolveSignature().PackageName
}

func (n *CallNode) ParameterTypes() []string {
	return n.resolveSignature().ParameterTypes
}

func (n *CallNode) ReturnType() string {
	return n.resolveSignature().ReturnType
}

func (n *CallNode) IsConstructor() bool {
	return n.resolveSignature().IsConstructor()
}

// AttachLabel interns label and appends its id to this node. Attaching the
// same label twice keeps both entries; the repository dedups storage, not
// presence.
func (n *CallNode) AttachLabel(label string) {
	n.labelIDs = append(n.labelIDs, n.subTrace.trace.RegisterStringConstant(label))
}

// Labels resolves the attached label ids, duplicates preserved, in
// attachment order.
func (n *CallNode) Labels() []string {
	if len(n.labelIDs) == 0 {
		return nil
	}
	labels := make([]string, len(n.labelIDs))
	for i, id := range n.labelIDs {
		value, err := n.subTrace.trace.ResolveStringConstant(id)
		if err != nil {
			panic(err)
		}
		labels[i] = value
	}
	return labels
}

// HasLabel reports whether label was attached to this node.
func (n *CallNode) HasLabel(label string) bool {
	id, ok := n.subTrace.trace.LookupStringConstant(label)
	if !ok {
		return false
	}
	return slices.Contains(n.labelIDs, id)
}

// LabelIDs returns a copy of the raw interned label ids.
func (n *CallNode) LabelIDs() []StringID {
	return slices.Clone(n.labelIDs)
}

// AttachAdditionalInformation appends info to the node's open metadata
// collection.
func (n *CallNode) AttachAdditionalInformation(info core.AdditionalInformation) {
	n.additionalInfo = append(n.additionalInfo, info)
}

// AdditionalInformation returns the attached metadata objects in attachment
// order. Select by capability with core.InformationOfType.
func (n *CallNode) AdditionalInformation() []core.AdditionalInformation {
	return slices.Clone(n.additionalInfo)
}

// SetSubTraceInvocation marks the node as handing off into another
// execution context.
func (n *CallNode) SetSubTraceInvocation(v bool) {
	n.subTraceInvocation = v
}

func (n *CallNode) IsSubTraceInvocation() bool {
	return n.subTraceInvocation
}

// SetAsyncInvocation marks the hand-off as asynchronous. The node must have
// been marked a sub-trace invocation first.
func (n *CallNode) SetAsyncInvocation(v bool) {
	if !n.subTraceInvocation {
		panic("calltree: async invocation flag on a node that is not a sub-trace invocation")
	}
	n.asyncInvocation = v
}

func (n *CallNode) IsAsyncInvocation() bool {
	return n.asyncInvocation
}

// SetInvokedSubTrace records the hand-off target. The node must have been
// marked a sub-trace invocation first.
func (n *CallNode) SetInvokedSubTrace(st *SubTrace) {
	if !n.subTraceInvocation {
		panic("calltree: invoked sub-trace on a node that is not a sub-trace invocation")
	}
	n.invokedSubTrace = st
}

// InvokedSubTrace returns the hand-off target, or nil when unset.
func (n *CallNode) InvokedSubTrace() core.SubTrace {
	if n.invokedSubTrace == nil {
		return nil
	}
	return n.invokedSubTrace
}

// DescendantCount returns the number of nodes below this one, excluding
// itself, in O(1).
func (n *CallNode) DescendantCount() int {
	return n.descendants
}

// DepthFirst returns a fresh pre-order iterator over this node and all its
// descendants.
func (n *CallNode) DepthFirst() *core.DepthFirstIterator {
	return core.NewDepthFirstIterator(n)
}
