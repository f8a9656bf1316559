package mpt

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// WitnessRow is one proof row: the 68 payload bytes feeding the two advice
// sections, followed by a row type marker.
type WitnessRow []byte

const witnessRowLen = rowLen + 1

// ErrWitness wraps every witness shape rejection.
var ErrWitness = errors.New("malformed witness")

func (r WitnessRow) check() error {
	if len(r) != witnessRowLen {
		return fmt.Errorf("%w: row has %d bytes, want %d", ErrWitness, len(r), witnessRowLen)
	}
	return nil
}

// Type is the row's trailing marker byte.
func (r WitnessRow) Type() byte { return r[rowLen] }

// S is the row's first 34-cell section.
func (r WitnessRow) S() []byte { return r[:rlpNum+hashWidth] }

// C is the row's second 34-cell section.
func (r WitnessRow) C() []byte { return r[rlpNum+hashWidth : rowLen] }

// Payload is the full 68-byte cell payload.
func (r WitnessRow) Payload() []byte { return r[:rowLen] }

// Proof is the witness for one trie modification: the rows, the keccak
// preimages of every node the rows fold, and the per-proof scalars the
// boundary columns carry.
type Proof struct {
	Type    int
	Address common.Address
	// StorageSlot is the modified slot on storage proofs, zero otherwise.
	StorageSlot common.Hash

	StartRoot common.Hash
	FinalRoot common.Hash

	Rows  []WitnessRow
	Nodes [][]byte
}

func (p *Proof) validate() error {
	if p.Type < ProofNonceChanged || p.Type > ProofStorageDoesNotExist {
		return fmt.Errorf("%w: unknown proof type %d", ErrWitness, p.Type)
	}
	if len(p.Rows) == 0 {
		return fmt.Errorf("%w: no rows", ErrWitness)
	}
	for i, r := range p.Rows {
		if err := r.check(); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}
