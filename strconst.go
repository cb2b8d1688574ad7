// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

package calltree // import "github.com/traceworks/calltree"

import (
	"errors"
	"fmt"
)

// StringID is the interned reference to a string constant within the owning
// trace's StringConstantRepository.
type StringID int32

// ErrStringConstantNotFound is returned when resolving a StringID that was
// never registered.
var ErrStringConstantNotFound = errors.New("string constant not found")

// StringConstantRepository maintains id allocation and deduplication for the
// label strings of one trace. Ids are keyed by exact value and assigned in
// registration order, so two distinct strings can never share an id.
type StringConstantRepository struct {
	// indices maps string values to ids in values.
	indices map[string]StringID

	// values is the inverse table, indexed by id.
	values []string
}

func NewStringConstantRepository() *StringConstantRepository {
	return &StringConstantRepository{
		indices: make(map[string]StringID),
	}
}

// Register interns value and returns its id. Registering an equal value
// again returns the previously assigned id.
func (r *StringConstantRepository) Register(value string) StringID {
	if id, exists := r.indices[value]; exists {
		return id
	}
	id := StringID(len(r.values))
	r.values = append(r.values, value)
	r.indices[value] = id
	return id
}

// Resolve returns the string registered under id.
func (r *StringConstantRepository) Resolve(id StringID) (string, error) {
	if id < 0 || int(id) >= len(r.values) {
		return "", fmt.Errorf("string constant id %d: %w", id, ErrStringConstantNotFound)
	}
	return r.values[id], nil
}

// Lookup returns the id assigned to value, without registering it.
func (r *StringConstantRepository) Lookup(value string) (StringID, bool) {
	id, exists := r.indices[value]
	return id, exists
}

// Contains reports whether value was previously registered.
func (r *StringConstantRepository) Contains(value string) bool {
	_, exists := r.indices[value]
	return exists
}

// Len returns the number of distinct strings registered.
func (r *StringConstantRepository) Len() int {
	return len(r.values)
}
