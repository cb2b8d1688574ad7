// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

// Package traceutil provides diagnostic helpers over built call trees:
// structural subtree hashing, whole-trace walking and debug rendering.
package traceutil // import "github.com/traceworks/calltree/traceutil"

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/traceworks/calltree"
)

// noSignatureMark is hashed in place of the first field length for nodes
// that have no signature. No real string can reach this length.
const noSignatureMark = ^uint64(0)

// HashSubtree calculates the structural hash of the subtree rooted at root:
// the pre-order sequence of (depth, signature field tuple, label values).
// Two subtrees hash equal exactly when their shape, signatures and labels
// match, regardless of which trace they were built in or in which order
// their metadata was interned. Signatures feed their exact fields, not the
// String() rendering, so distinct values whose renderings coincide still
// hash apart.
//
// Unresolvable ids are reported as errors rather than panics so that the
// hash can be taken of traces from a misbehaving producer.
func HashSubtree(root *calltree.CallNode) (TreeHash, error) {
	if root == nil {
		return TreeHash{}, errors.New("hash subtree: nil root")
	}

	type nodeDepth struct {
		node  *calltree.CallNode
		depth uint64
	}

	var buf [8]byte
	h := xxh3.New()
	stack := []nodeDepth{{root, 0}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// Nodes linked in from another trace intern their metadata in that
		// trace's repositories, so ids resolve per node, not via the root.
		trace := top.node.SubTrace().Trace()

		binary.BigEndian.PutUint64(buf[:], top.depth)
		_, _ = h.Write(buf[:])

		if id, ok := top.node.SignatureID(); ok {
			sig, err := trace.ResolveSignature(id)
			if err != nil {
				return TreeHash{}, fmt.Errorf("hash subtree: %w", err)
			}
			hashString(h, &buf, sig.ReturnType)
			hashString(h, &buf, sig.PackageName)
			hashString(h, &buf, sig.ClassName)
			hashString(h, &buf, sig.MethodName)
			binary.BigEndian.PutUint64(buf[:], uint64(len(sig.ParameterTypes)))
			_, _ = h.Write(buf[:])
			for _, param := range sig.ParameterTypes {
				hashString(h, &buf, param)
			}
		} else {
			binary.BigEndian.PutUint64(buf[:], noSignatureMark)
			_, _ = h.Write(buf[:])
		}

		labelIDs := top.node.LabelIDs()
		binary.BigEndian.PutUint64(buf[:], uint64(len(labelIDs)))
		_, _ = h.Write(buf[:])
		for _, labelID := range labelIDs {
			label, err := trace.ResolveStringConstant(labelID)
			if err != nil {
				return TreeHash{}, fmt.Errorf("hash subtree: %w", err)
			}
			hashString(h, &buf, label)
		}

		callees := top.node.Callees()
		for i := len(callees) - 1; i >= 0; i-- {
			stack = append(stack, nodeDepth{callees[i].(*calltree.CallNode), top.depth + 1})
		}
	}

	sum := h.Sum128()
	return NewTreeHash(sum.Hi, sum.Lo), nil
}

// hashString feeds s into h with a length prefix so field boundaries survive
// arbitrary content.
func hashString(h *xxh3.Hasher, buf *[8]byte, s string) {
	binary.BigEndian.PutUint64(buf[:], uint64(len(s)))
	_, _ = h.Write(buf[:])
	_, _ = h.WriteString(s)
}

// WalkTrace visits every node of every sub-trace of t in pre-order and calls
// fn for each. fn returning false stops the walk.
func WalkTrace(t *calltree.Trace, fn func(*calltree.CallNode) bool) {
	for _, st := range t.SubTraces() {
		for _, root := range st.Roots() {
			it := root.DepthFirst()
			for n, ok := it.Next(); ok; n, ok = it.Next() {
				if !fn(n.(*calltree.CallNode)) {
					return
				}
			}
		}
	}
}
