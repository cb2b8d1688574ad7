// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

// Package pprofconv flattens a built call tree into a pprof profile so a
// captured trace can be inspected with the standard pprof tooling.
package pprofconv // import "github.com/traceworks/calltree/pprofconv"

import (
	"errors"

	"github.com/google/pprof/profile"
	log "github.com/sirupsen/logrus"

	"github.com/traceworks/calltree"
	"github.com/traceworks/calltree/core"
	"github.com/traceworks/calltree/traceutil"
)

// Options controls the conversion.
type Options struct {
	// DropLabels omits node labels from the emitted samples.
	DropLabels bool
}

// Convert turns t into a pprof profile: one sample per signed node, stack
// running from the node up to its sub-trace root, values holding the node's
// self time in nanoseconds and one call. Functions and locations are
// deduplicated by signature id. Nodes without a signature contribute no
// sample and are dropped from the stacks of their descendants; a warning
// reports how many were skipped.
func Convert(t *calltree.Trace, opts Options) (*profile.Profile, error) {
	if t == nil {
		return nil, errors.New("pprofconv: nil trace")
	}
	if t.Size() == 0 {
		return nil, errors.New("pprofconv: empty trace")
	}

	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "execution", Unit: "nanoseconds"},
			{Type: "calls", Unit: "count"},
		},
		PeriodType: &profile.ValueType{
			Type: "execution",
			Unit: "nanoseconds",
		},
		Period: 1,
	}

	// Locations are deduplicated by signature id; each carries its function
	// 1:1 since signatures have no line information.
	locations := make(map[calltree.SignatureID]*profile.Location)

	minEntry := core.UnsetTime
	maxExit := core.UnsetTime
	skipped := 0
	var convErr error

	traceutil.WalkTrace(t, func(n *calltree.CallNode) bool {
		if entry := n.EntryTime(); entry.Valid() {
			if !minEntry.Valid() || entry < minEntry {
				minEntry = entry
			}
		}
		if exit := n.ExitTime(); exit.Valid() && exit > maxExit {
			maxExit = exit
		}

		if _, ok := n.SignatureID(); !ok {
			skipped++
			return true
		}

		stack, err := stackLocations(t, prof, locations, n)
		if err != nil {
			convErr = err
			return false
		}

		selfTime := int64(0)
		if d := n.ExecutionTime(); d != core.UnsetDuration {
			selfTime = d.Nanoseconds()
		}
		sample := &profile.Sample{
			Location: stack,
			Value:    []int64{selfTime, 1},
		}
		if labels := n.Labels(); len(labels) > 0 && !opts.DropLabels {
			sample.Label = map[string][]string{"label": labels}
		}
		prof.Sample = append(prof.Sample, sample)
		return true
	})
	if convErr != nil {
		return nil, convErr
	}

	if skipped > 0 {
		log.Warnf("pprofconv: skipped %d nodes without signature in trace %d",
			skipped, t.ID())
	}
	if minEntry.Valid() {
		prof.TimeNanos = minEntry.Time().UnixNano()
		if maxExit.Valid() && maxExit > minEntry {
			prof.DurationNanos = (maxExit.Time().UnixNano()) - prof.TimeNanos
		}
	}
	return prof, nil
}

// stackLocations returns the pprof location chain for n, leaf first, walking
// the parent links up to the sub-trace root. Unsigned ancestors contribute
// no frame.
func stackLocations(t *calltree.Trace, prof *profile.Profile,
	locations map[calltree.SignatureID]*profile.Location,
	n *calltree.CallNode) ([]*profile.Location, error) {
	var stack []*profile.Location
	for node := n; node != nil; {
		if id, ok := node.SignatureID(); ok {
			loc, err := location(t, prof, locations, id)
			if err != nil {
				return nil, err
			}
			stack = append(stack, loc)
		}
		parent, ok := node.Parent().(*calltree.CallNode)
		if !ok {
			break
		}
		node = parent
	}
	return stack, nil
}

// location returns the deduplicated pprof location for a signature id,
// creating the location and its function on first use.
func location(t *calltree.Trace, prof *profile.Profile,
	locations map[calltree.SignatureID]*profile.Location,
	id calltree.SignatureID) (*profile.Location, error) {
	if loc, exists := locations[id]; exists {
		return loc, nil
	}

	sig, err := t.ResolveSignature(id)
	if err != nil {
		return nil, err
	}
	fn := &profile.Function{
		ID:         uint64(len(prof.Function) + 1),
		Name:       sig.String(),
		SystemName: sig.MethodName,
		Filename:   containerName(sig),
	}
	prof.Function = append(prof.Function, fn)

	loc := &profile.Location{
		ID:   uint64(len(prof.Location) + 1),
		Line: []profile.Line{{Function: fn}},
	}
	prof.Location = append(prof.Location, loc)
	locations[id] = loc
	return loc, nil
}

// containerName renders the logical container of a signature, standing in
// for the file name pprof expects.
func containerName(sig calltree.Signature) string {
	switch {
	case sig.PackageName != "" && sig.ClassName != "":
		return sig.PackageName + "." + sig.ClassName
	case sig.PackageName != "":
		return sig.PackageName
	default:
		return sig.ClassName
	}
}
