// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

package traceutil // import "github.com/traceworks/calltree/traceutil"

import (
	"fmt"
	"strings"
	"time"

	"github.com/traceworks/calltree"
	"github.com/traceworks/calltree/core"
)

// CallNodeString renders n on a single line for logs and debug output. It
// tolerates nodes with unset signature or timings. The format is not stable;
// nothing may parse it.
func CallNodeString(n *calltree.CallNode) string {
	var sb strings.Builder

	if id, ok := n.SignatureID(); ok {
		sig, err := n.SubTrace().Trace().ResolveSignature(id)
		if err != nil {
			fmt.Fprintf(&sb, "<unresolvable signature %d>", id)
		} else {
			sb.WriteString(sig.String())
		}
	} else {
		sb.WriteString("<no signature>")
	}

	if n.EntryTime().Valid() {
		fmt.Fprintf(&sb, " entry=%s", n.EntryTime().Time().Format(time.RFC3339Nano))
	}
	if d := n.ResponseTime(); d != core.UnsetDuration {
		fmt.Fprintf(&sb, " response=%s", d)
	}
	if d := n.ExecutionTime(); d != core.UnsetDuration {
		fmt.Fprintf(&sb, " exec=%s", d)
	}
	if d := n.CPUTime(); d != core.UnsetDuration {
		fmt.Fprintf(&sb, " cpu=%s", d)
	}
	if labels := n.Labels(); len(labels) > 0 {
		fmt.Fprintf(&sb, " labels=%s", strings.Join(labels, ","))
	}
	fmt.Fprintf(&sb, " descendants=%d", n.DescendantCount())

	if n.IsSubTraceInvocation() {
		sb.WriteString(" subtrace-invocation")
		if n.IsAsyncInvocation() {
			sb.WriteString(" async")
		}
		if target := n.InvokedSubTrace(); target != nil {
			fmt.Fprintf(&sb, " invokes=%d", target.ID())
		}
	}
	return sb.String()
}
