// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

package calltree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traceworks/calltree/core"
)

// scenario is the canonical 4-node tree used throughout the tests:
// root R with children A and B, A with a single child C.
type scenario struct {
	trace      *Trace
	subTrace   *SubTrace
	r, a, b, c *CallNode
}

func buildScenario() scenario {
	trace := NewTrace(1)
	st := NewSubTrace(1, trace)
	r := NewCallNode(nil, st)
	a := NewCallNode(r, st)
	c := NewCallNode(a, st)
	b := NewCallNode(r, st)
	return scenario{trace: trace, subTrace: st, r: r, a: a, b: b, c: c}
}

func preorder(root core.Callable) []*CallNode {
	var nodes []*CallNode
	it := root.DepthFirst()
	for n, ok := it.Next(); ok; n, ok = it.Next() {
		nodes = append(nodes, n.(*CallNode))
	}
	return nodes
}

func TestCallNodeScenario(t *testing.T) {
	s := buildScenario()

	assert.Equal(t, 3, s.r.DescendantCount())
	assert.Equal(t, 1, s.a.DescendantCount())
	assert.Equal(t, 0, s.b.DescendantCount())
	assert.Equal(t, 0, s.c.DescendantCount())

	assert.Equal(t, []*CallNode{s.r, s.a, s.c, s.b}, preorder(s.r))
	assert.Equal(t, []*CallNode{s.a, s.c}, preorder(s.a))

	assert.Equal(t, 4, s.subTrace.Size())
	assert.Equal(t, 4, s.trace.Size())
}

func TestCallNodeParentChildLinks(t *testing.T) {
	s := buildScenario()

	require.True(t, s.r.Parent() == nil)
	assert.Equal(t, []core.Callable{s.a, s.b}, s.r.Callees())
	assert.Equal(t, []core.Callable{s.c}, s.a.Callees())
	assert.Empty(t, s.b.Callees())

	for _, n := range []*CallNode{s.a, s.b} {
		parent, ok := n.Parent().(*CallNode)
		require.True(t, ok)
		assert.Same(t, s.r, parent)

		occurrences := 0
		for _, callee := range s.r.Callees() {
			if callee.(*CallNode) == n {
				occurrences++
			}
		}
		assert.Equal(t, 1, occurrences)
	}

	assert.Equal(t, s.subTrace, s.c.SubTrace())
	assert.Equal(t, core.SubTrace(s.subTrace), s.c.ContainingSubTrace())
}

func TestCallNodeDeepPropagation(t *testing.T) {
	trace := NewTrace(1)
	st := NewSubTrace(1, trace)

	const depth = 64
	chain := make([]*CallNode, depth)
	chain[0] = NewCallNode(nil, st)
	for i := 1; i < depth; i++ {
		chain[i] = NewCallNode(chain[i-1], st)
	}

	for i, n := range chain {
		assert.Equal(t, depth-1-i, n.DescendantCount())
	}
	assert.Equal(t, depth, st.Size())
}

func TestNewCallNodeRequiresSubTrace(t *testing.T) {
	assert.Panics(t, func() {
		NewCallNode(nil, nil)
	})
}

func TestSubTraceMultipleRoots(t *testing.T) {
	trace := NewTrace(1)
	st := NewSubTrace(1, trace)

	first := NewCallNode(nil, st)
	NewCallNode(first, st)
	second := NewCallNode(nil, st)

	roots := st.Roots()
	require.Len(t, roots, 2)
	assert.Same(t, first, roots[0].(*CallNode))
	assert.Same(t, second, roots[1].(*CallNode))
	assert.Equal(t, 3, st.Size())
}

func TestCallNodeCalleesSnapshot(t *testing.T) {
	s := buildScenario()

	callees := s.r.Callees()
	callees[0] = s.c

	assert.Equal(t, []core.Callable{s.a, s.b}, s.r.Callees())
	assert.Equal(t, []*CallNode{s.a, s.b}, s.r.children)
}

func TestCallNodeSignature(t *testing.T) {
	s := buildScenario()
	s.a.SetSignature(querySignature)

	assert.Equal(t, "execute", s.a.MethodName())
	assert.Equal(t, "StatementRunner", s.a.ClassName())
	assert.Equal(t, "org.dbaccess", s.a.PackageName())
	assert.Equal(t, "ResultSet", s.a.ReturnType())
	assert.Equal(t, []string{"String", "int"}, s.a.ParameterTypes())
	assert.False(t, s.a.IsConstructor())
	assert.Equal(t, "ResultSet org.dbaccess.StatementRunner.execute(String,int)",
		s.a.Signature())

	id, ok := s.a.SignatureID()
	assert.True(t, ok)
	assert.Equal(t, SignatureID(0), id)
}

func TestCallNodeSignatureReplacement(t *testing.T) {
	s := buildScenario()
	s.a.SetSignature(Signature{MethodName: "first"})
	s.a.SetSignature(Signature{MethodName: "second"})

	assert.Equal(t, "second", s.a.MethodName())
	// The first registration stays interned for other nodes.
	assert.Equal(t, 2, s.trace.Signatures().Len())
}

func TestCallNodeSignatureSharing(t *testing.T) {
	s := buildScenario()
	s.a.SetSignature(querySignature)
	s.b.SetSignature(querySignature)

	aID, _ := s.a.SignatureID()
	bID, _ := s.b.SignatureID()
	assert.Equal(t, aID, bID)
	assert.Equal(t, 1, s.trace.Signatures().Len())
}

func TestCallNodeUnsetSignaturePanics(t *testing.T) {
	s := buildScenario()

	_, ok := s.a.SignatureID()
	assert.False(t, ok)

	assert.Panics(t, func() { s.a.Signature() })
	assert.Panics(t, func() { s.a.MethodName() })
	assert.Panics(t, func() { s.a.IsConstructor() })
}

func TestCallNodeLabels(t *testing.T) {
	s := buildScenario()

	assert.Empty(t, s.a.Labels())
	assert.False(t, s.a.HasLabel("slow"))

	s.a.AttachLabel("slow")
	s.a.AttachLabel("db")
	s.a.AttachLabel("slow")

	assert.Equal(t, []string{"slow", "db", "slow"}, s.a.Labels())
	assert.True(t, s.a.HasLabel("slow"))
	assert.True(t, s.a.HasLabel("db"))
	assert.False(t, s.a.HasLabel("http"))

	// A label registered by another node does not leak onto this one.
	s.b.AttachLabel("http")
	assert.False(t, s.a.HasLabel("http"))

	// Repeated attachments reuse the interned id.
	ids := s.a.LabelIDs()
	require.Len(t, ids, 3)
	assert.Equal(t, ids[0], ids[2])
	assert.Equal(t, 3, s.trace.StringConstants().Len())
}

func TestCallNodeLabelInterningSharedAcrossNodes(t *testing.T) {
	s := buildScenario()
	s.a.AttachLabel("slow")
	s.b.AttachLabel("slow")

	assert.Equal(t, s.a.LabelIDs(), s.b.LabelIDs())
	assert.Equal(t, 1, s.trace.StringConstants().Len())
}

func TestCallNodeTimingDefaults(t *testing.T) {
	s := buildScenario()

	assert.Equal(t, core.UnsetTime, s.a.EntryTime())
	assert.Equal(t, core.UnsetDuration, s.a.ResponseTime())
	assert.Equal(t, core.UnsetDuration, s.a.ExecutionTime())
	assert.Equal(t, core.UnsetDuration, s.a.CPUTime())
	assert.Equal(t, core.UnsetTime, s.a.ExitTime())
}

func TestCallNodeExitTime(t *testing.T) {
	tests := map[string]struct {
		entry    core.TimeMillis
		response time.Duration
		want     core.TimeMillis
	}{
		"exact milliseconds": {
			entry:    1_000_000,
			response: 2_000_000 * time.Nanosecond,
			want:     1_000_002,
		},
		"half rounds away from zero": {
			entry:    1_000_000,
			response: 2_500_000 * time.Nanosecond,
			want:     1_000_003,
		},
		"below half rounds down": {
			entry:    1_000_000,
			response: 2_499_999 * time.Nanosecond,
			want:     1_000_002,
		},
		"unset entry": {
			entry:    core.UnsetTime,
			response: 2 * time.Millisecond,
			want:     core.UnsetTime,
		},
		"unset response": {
			entry:    1_000_000,
			response: core.UnsetDuration,
			want:     core.UnsetTime,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s := buildScenario()
			if test.entry != core.UnsetTime {
				s.a.SetEntryTime(test.entry)
			}
			if test.response != core.UnsetDuration {
				s.a.SetResponseTime(test.response)
			}
			assert.Equal(t, test.want, s.a.ExitTime())
		})
	}
}

func TestCallNodeTimingSetters(t *testing.T) {
	s := buildScenario()

	s.a.SetEntryTime(1_000_000)
	s.a.SetResponseTime(5 * time.Millisecond)
	s.a.SetExecutionTime(3 * time.Millisecond)
	s.a.SetCPUTime(2 * time.Millisecond)

	assert.Equal(t, core.TimeMillis(1_000_000), s.a.EntryTime())
	assert.Equal(t, 5*time.Millisecond, s.a.ResponseTime())
	assert.Equal(t, 3*time.Millisecond, s.a.ExecutionTime())
	assert.Equal(t, 2*time.Millisecond, s.a.CPUTime())
}

func TestCallNodeInvocationFlagsGated(t *testing.T) {
	s := buildScenario()
	target := NewSubTrace(2, s.trace)

	require.False(t, s.b.IsSubTraceInvocation())
	assert.Panics(t, func() { s.b.SetAsyncInvocation(true) })
	assert.Panics(t, func() { s.b.SetInvokedSubTrace(target) })

	// The failed calls must not have altered the node.
	assert.False(t, s.b.IsAsyncInvocation())
	assert.True(t, s.b.InvokedSubTrace() == nil)
}

func TestCallNodeSubTraceInvocation(t *testing.T) {
	s := buildScenario()
	target := NewSubTrace(2, s.trace)

	s.b.SetSubTraceInvocation(true)
	s.b.SetAsyncInvocation(true)
	s.b.SetInvokedSubTrace(target)

	assert.True(t, s.b.IsSubTraceInvocation())
	assert.True(t, s.b.IsAsyncInvocation())
	assert.Equal(t, core.SubTrace(target), s.b.InvokedSubTrace())
}

func TestCallNodeInvokedSubTraceUnset(t *testing.T) {
	s := buildScenario()
	s.b.SetSubTraceInvocation(true)

	assert.True(t, s.b.InvokedSubTrace() == nil)
}

type sqlInfo struct {
	statement string
}

func (sqlInfo) Name() string { return "sql" }

type httpInfo struct {
	url string
}

func (httpInfo) Name() string { return "http" }

func TestCallNodeAdditionalInformation(t *testing.T) {
	s := buildScenario()

	assert.Empty(t, s.a.AdditionalInformation())
	assert.Empty(t, core.InformationOfType[sqlInfo](s.a))

	s.a.AttachAdditionalInformation(sqlInfo{statement: "SELECT 1"})
	s.a.AttachAdditionalInformation(httpInfo{url: "/health"})
	s.a.AttachAdditionalInformation(sqlInfo{statement: "SELECT 2"})

	all := s.a.AdditionalInformation()
	require.Len(t, all, 3)
	assert.Equal(t, "sql", all[0].Name())

	sql := core.InformationOfType[sqlInfo](s.a)
	require.Len(t, sql, 2)
	assert.Equal(t, "SELECT 1", sql[0].statement)
	assert.Equal(t, "SELECT 2", sql[1].statement)

	http := core.InformationOfType[httpInfo](s.a)
	require.Len(t, http, 1)
	assert.Equal(t, "/health", http[0].url)
}

func TestCallNodeDepthFirstIndependence(t *testing.T) {
	s := buildScenario()

	first := s.r.DepthFirst()
	second := s.r.DepthFirst()

	n, ok := first.Next()
	require.True(t, ok)
	assert.Same(t, s.r, n.(*CallNode))

	n, ok = second.Next()
	require.True(t, ok)
	assert.Same(t, s.r, n.(*CallNode))

	n, ok = first.Next()
	require.True(t, ok)
	assert.Same(t, s.a, n.(*CallNode))
}
