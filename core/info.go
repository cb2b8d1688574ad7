// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

package core // import "github.com/traceworks/calltree/core"

// AdditionalInformation is the open extension point for metadata attached to
// a Callable. Implementations are free-form; consumers select the ones they
// understand with InformationOfType.
type AdditionalInformation interface {
	// Name identifies the kind of information for diagnostics.
	Name() string
}

// InformationOfType returns all metadata objects attached to c that satisfy
// the capability T, in attachment order. It returns an empty slice when none
// match; querying is never an error.
func InformationOfType[T AdditionalInformation](c Callable) []T {
	var matched []T
	for _, info := range c.AdditionalInformation() {
		if typed, ok := info.(T); ok {
			matched = append(matched, typed)
		}
	}
	return matched
}
