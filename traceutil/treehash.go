// Copyright The CallTree Authors
// SPDX-License-Identifier: Apache-2.0

package traceutil // import "github.com/traceworks/calltree/traceutil"

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// TreeHash represents the 128 bit structural hash of a call subtree using
// two uint64s.
//
// hi represents the most significant 64 bits and lo represents the least
// significant 64 bits.
type TreeHash struct {
	hi uint64
	lo uint64
}

func NewTreeHash(hi, lo uint64) TreeHash {
	return TreeHash{hi, lo}
}

// Words returns the hi and lo words of the hash.
func (h TreeHash) Words() (hi, lo uint64) {
	return h.hi, h.lo
}

func (h TreeHash) Equal(other TreeHash) bool {
	return h.hi == other.hi && h.lo == other.lo
}

func (h TreeHash) IsZero() bool {
	return h.hi == 0 && h.lo == 0
}

// Bytes returns the big-endian byte representation of the hash.
func (h TreeHash) Bytes() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], h.hi)
	binary.BigEndian.PutUint64(b[8:16], h.lo)
	return b
}

// String returns the hash as 32 lowercase hexadecimal characters.
func (h TreeHash) String() string {
	return fmt.Sprintf("%016x%016x", h.hi, h.lo)
}

// ToUUIDString formats the hash in UUID notation for systems that index
// subtrees by UUID.
func (h TreeHash) ToUUIDString() string {
	// The following can't fail: we are guaranteed to get a slice of the correct length.
	id, _ := uuid.FromBytes(h.Bytes())
	return id.String()
}
