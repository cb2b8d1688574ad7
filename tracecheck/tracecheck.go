// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracecheck validates built call trees against the invariants of
// the trace model: descendant-count consistency, parent/child bijection,
// sub-trace back-references, id resolvability and sub-trace invocation
// edges.
//
// It is meant for diagnosing trace producers. Check never mutates the trace
// and reports every violation it finds instead of stopping at the first.
package tracecheck // import "github.com/traceworks/calltree/tracecheck"

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/traceworks/calltree"
	"github.com/traceworks/calltree/traceutil"
)

// Check validates every node of t. It returns all violations joined into a
// single error, or nil for a well-formed trace.
func Check(t *calltree.Trace) error {
	if t == nil {
		return errors.New("tracecheck: nil trace")
	}

	c := &checker{
		trace:     t,
		subTraces: make(map[*calltree.SubTrace]bool),
		seen:      make(map[*calltree.CallNode]int),
	}
	subTraces := make([]*calltree.SubTrace, 0, len(t.SubTraces()))
	for _, st := range t.SubTraces() {
		concrete := st.(*calltree.SubTrace)
		c.subTraces[concrete] = true
		subTraces = append(subTraces, concrete)
	}
	for _, st := range subTraces {
		c.checkSubTrace(st)
	}

	log.Debugf("trace %d: %d sub-traces, %d nodes, %d signatures, %d string constants, "+
		"%d violations", t.ID(), len(subTraces), t.Size(), t.Signatures().Len(),
		t.StringConstants().Len(), len(c.violations))
	return errors.Join(c.violations...)
}

type checker struct {
	trace *calltree.Trace

	// subTraces holds the sub-traces registered with the checked trace, so
	// invocation edges into foreign traces can be detected.
	subTraces map[*calltree.SubTrace]bool

	// seen maps every visited node to its pre-order position; a second
	// visit means the node is linked into the tree more than once.
	seen map[*calltree.CallNode]int

	violations []error
}

func (c *checker) checkSubTrace(st *calltree.SubTrace) {
	nodes := 0
	for _, root := range st.Roots() {
		rootNode := root.(*calltree.CallNode)
		if rootNode.Parent() != nil {
			c.reportf(st, nodes, rootNode, "root has a parent")
		}
		it := rootNode.DepthFirst()
		for n, ok := it.Next(); ok; n, ok = it.Next() {
			c.checkNode(st, n.(*calltree.CallNode), nodes)
			nodes++
		}
	}
	log.Debugf("sub-trace %d: %d roots, %d nodes", st.ID(), len(st.Roots()), nodes)
}

func (c *checker) checkNode(st *calltree.SubTrace, n *calltree.CallNode, pos int) {
	if prev, dup := c.seen[n]; dup {
		c.reportf(st, pos, n, "node already reachable as node %d", prev)
		return
	}
	c.seen[n] = pos

	if n.SubTrace() != st {
		c.reportf(st, pos, n, "containing sub-trace is %d", n.SubTrace().ID())
	}

	sum := 0
	for _, callee := range n.Callees() {
		child := callee.(*calltree.CallNode)
		sum += child.DescendantCount() + 1
		if parent, ok := child.Parent().(*calltree.CallNode); !ok || parent != n {
			c.reportf(st, pos, n, "child's parent link does not point back")
		}
	}
	if n.DescendantCount() != sum {
		c.reportf(st, pos, n, "descendant count %d, children sum to %d",
			n.DescendantCount(), sum)
	}

	if id, ok := n.SignatureID(); ok {
		if _, err := c.trace.ResolveSignature(id); err != nil {
			c.reportf(st, pos, n, "%v", err)
		}
	}
	for _, labelID := range n.LabelIDs() {
		if _, err := c.trace.ResolveStringConstant(labelID); err != nil {
			c.reportf(st, pos, n, "%v", err)
		}
	}

	if n.IsAsyncInvocation() && !n.IsSubTraceInvocation() {
		c.reportf(st, pos, n, "async flag without sub-trace invocation flag")
	}
	if target := n.InvokedSubTrace(); target != nil {
		if !n.IsSubTraceInvocation() {
			c.reportf(st, pos, n, "invoked sub-trace without sub-trace invocation flag")
		}
		if !c.subTraces[target.(*calltree.SubTrace)] {
			c.reportf(st, pos, n, "invoked sub-trace %d belongs to a different trace",
				target.ID())
		}
	}
}

func (c *checker) reportf(st *calltree.SubTrace, pos int, n *calltree.CallNode,
	format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.violations = append(c.violations,
		fmt.Errorf("sub-trace %d node %d: %s", st.ID(), pos, msg))
	log.Debugf("violation at %s: %s", traceutil.CallNodeString(n), msg)
}
