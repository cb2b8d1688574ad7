// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

package calltree // import "github.com/traceworks/calltree"

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// SignatureID is the interned reference to a Signature within the owning
// trace's SignatureRepository.
type SignatureID int32

// ErrSignatureNotFound is returned when resolving a SignatureID that was
// never registered. For a well-formed trace this never happens; hitting it
// indicates an invariant violation in the producing pipeline.
var ErrSignatureNotFound = errors.New("signature not found")

// Signature describes a method's identity. It is a pure value: two
// signatures with identical field values denote the same method and intern
// to the same id.
type Signature struct {
	ReturnType     string
	PackageName    string
	ClassName      string
	MethodName     string
	ParameterTypes []string
}

// IsConstructor reports whether the signature denotes a constructor, which
// is the case when the method is named after its class.
func (s Signature) IsConstructor() bool {
	return s.MethodName != "" && s.MethodName == s.ClassName
}

// String renders the canonical form "ret pkg.Class.method(p1,p2)". Empty
// fields are omitted together with their separators.
func (s Signature) String() string {
	var sb strings.Builder
	if s.ReturnType != "" {
		sb.WriteString(s.ReturnType)
		sb.WriteByte(' ')
	}
	if s.PackageName != "" {
		sb.WriteString(s.PackageName)
		sb.WriteByte('.')
	}
	if s.ClassName != "" {
		sb.WriteString(s.ClassName)
		sb.WriteByte('.')
	}
	sb.WriteString(s.MethodName)
	sb.WriteByte('(')
	sb.WriteString(strings.Join(s.ParameterTypes, ","))
	sb.WriteByte(')')
	return sb.String()
}

// key builds the compound interning key. Every part is length-prefixed, so
// no field content can shift a boundary and distinct tuples always produce
// distinct keys.
func (s Signature) key() string {
	parts := make([]string, 0, 4+len(s.ParameterTypes))
	parts = append(parts, s.ReturnType, s.PackageName, s.ClassName, s.MethodName)
	parts = append(parts, s.ParameterTypes...)

	var sb strings.Builder
	for _, part := range parts {
		sb.WriteString(strconv.Itoa(len(part)))
		sb.WriteByte(':')
		sb.WriteString(part)
	}
	return sb.String()
}

// SignatureRepository maintains id allocation and deduplication for the
// signatures of one trace. Ids are assigned in registration order and are
// never reused for a different value.
type SignatureRepository struct {
	// indices maps compound signature keys to ids in signatures.
	indices map[string]SignatureID

	// signatures is the inverse table, indexed by id.
	signatures []Signature
}

func NewSignatureRepository() *SignatureRepository {
	return &SignatureRepository{
		indices: make(map[string]SignatureID),
	}
}

// Register interns sig and returns its id. Registering an equal value again
// returns the previously assigned id.
func (r *SignatureRepository) Register(sig Signature) SignatureID {
	key := sig.key()
	if id, exists := r.indices[key]; exists {
		return id
	}
	id := SignatureID(len(r.signatures))
	sig.ParameterTypes = slices.Clone(sig.ParameterTypes)
	r.signatures = append(r.signatures, sig)
	r.indices[key] = id
	return id
}

// Resolve returns the signature registered under id.
func (r *SignatureRepository) Resolve(id SignatureID) (Signature, error) {
	if id < 0 || int(id) >= len(r.signatures) {
		return Signature{}, fmt.Errorf("signature id %d: %w", id, ErrSignatureNotFound)
	}
	sig := r.signatures[id]
	sig.ParameterTypes = slices.Clone(sig.ParameterTypes)
	return sig, nil
}

// Len returns the number of distinct signatures registered.
func (r *SignatureRepository) Len() int {
	return len(r.signatures)
}
