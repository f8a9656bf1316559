package mpt

import (
	"runtime"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/errgroup"

	"github.com/zkevm/circuits/plonkish"
)

// FixedTableTag selects a family of rows in the shared fixed table. The
// table's three columns are (tag, value, value2).
type FixedTableTag uint64

const (
	TagRange16 FixedTableTag = iota + 1
	TagRange256
	TagRangeKeyLen
	TagRMult
)

// fixedTableRows is the height of the fixed table including its zero row.
func fixedTableRows() int {
	return 1 + 16 + 256 + (maxKeyEncLen + 1) + (rMultMax + 1)
}

// loadFixedTable fills the byte ranges, the key length bound and the r-power
// rows. Row 0 stays zero so selector-gated-off lookups resolve against it.
func (c *Config) loadFixedTable(a *plonkish.Assignment) {
	row := 1
	assign := func(tag FixedTableTag, v1, v2 fr.Element) {
		var t fr.Element
		t.SetUint64(uint64(tag))
		a.AssignFixed(c.fixedTable[0], row, t)
		a.AssignFixed(c.fixedTable[1], row, v1)
		a.AssignFixed(c.fixedTable[2], row, v2)
		row++
	}

	var zero, v fr.Element
	for i := 0; i < 16; i++ {
		v.SetUint64(uint64(i))
		assign(TagRange16, v, zero)
	}
	for i := 0; i < 256; i++ {
		v.SetUint64(uint64(i))
		assign(TagRange256, v, zero)
	}
	for i := 0; i <= maxKeyEncLen; i++ {
		v.SetUint64(uint64(i))
		assign(TagRangeKeyLen, v, zero)
	}
	for i := 0; i <= rMultMax; i++ {
		v.SetUint64(uint64(i))
		assign(TagRMult, v, c.rPowers[i])
	}
}

// loadKeccakTable hashes the node encodings and stores one (preimage RLC,
// digest RLC) row per node. Row 0 stays zero.
func (c *Config) loadKeccakTable(a *plonkish.Assignment, nodes [][]byte) {
	type entry struct{ in, out fr.Element }
	entries := make([]entry, len(nodes))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := range nodes {
		g.Go(func() error {
			h := sha3.NewLegacyKeccak256()
			h.Write(nodes[i])
			entries[i].in = c.rlcBytes(nodes[i])
			entries[i].out = c.rlcBytes(h.Sum(nil))
			return nil
		})
	}
	_ = g.Wait() // the workers cannot fail

	for i := range entries {
		a.AssignFixed(c.keccakTable[0], i+1, entries[i].in)
		a.AssignFixed(c.keccakTable[1], i+1, entries[i].out)
	}
}

// rlcBytes is the witness-side RLC of a byte string,
// b[0] + b[1]*r + b[2]*r^2 + ...
func (c *Config) rlcBytes(bs []byte) fr.Element {
	var acc, term fr.Element
	mult := fr.One()
	for _, b := range bs {
		term.SetUint64(uint64(b))
		term.Mul(&term, &mult)
		acc.Add(&acc, &term)
		mult.Mul(&mult, &c.randomness)
	}
	return acc
}
