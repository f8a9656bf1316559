package mpt

import (
	"fmt"

	"github.com/zkevm/circuits/plonkish"
)

// MainCols is one 34-cell row section: two RLP cells and 32 byte cells.
type MainCols struct {
	RLP1  plonkish.Column
	RLP2  plonkish.Column
	Bytes [hashWidth]plonkish.Column
}

func newMainCols(sys *plonkish.System, prefix string) MainCols {
	var m MainCols
	m.RLP1 = sys.AddAdvice(prefix + ".rlp1")
	m.RLP2 = sys.AddAdvice(prefix + ".rlp2")
	for i := range m.Bytes {
		m.Bytes[i] = sys.AddAdvice(fmt.Sprintf("%s.bytes[%d]", prefix, i))
	}
	return m
}

// payload returns the section's columns in wire order.
func (m *MainCols) payload() []plonkish.Column {
	cols := make([]plonkish.Column, 0, rlpNum+hashWidth)
	cols = append(cols, m.RLP1, m.RLP2)
	cols = append(cols, m.Bytes[:]...)
	return cols
}

// AccumulatorPair is a running RLC and the next multiplier to fold with.
type AccumulatorPair struct {
	RLC  plonkish.Column
	Mult plonkish.Column
}

func newAccumulatorPair(sys *plonkish.System, prefix string) AccumulatorPair {
	return AccumulatorPair{
		RLC:  sys.AddAdvice(prefix + ".rlc"),
		Mult: sys.AddAdvice(prefix + ".mult"),
	}
}

// AccumulatorCols carries the node accumulators and the key accumulator.
// Several rows repurpose cells of these columns: the account non-existing row
// stores its two key RLC recomputations in Key.RLC / Key.Mult and the
// inverse witness of their difference in AccS.RLC.
type AccumulatorCols struct {
	AccS AccumulatorPair // S node being folded
	AccC AccumulatorPair // C node being folded
	Key  AccumulatorPair // running key RLC down the trie path

	// MultDiff holds r^len for the variable-length region folded on the
	// row, verified against the RMult fixed table.
	MultDiff plonkish.Column
}

// PositionCols gates constraint activation.
type PositionCols struct {
	QEnable   plonkish.Column // fixed, 1 on witness rows
	QNotFirst plonkish.Column // fixed, 1 on witness rows after the first
	// NotFirstLevel is 0 on the rows of the proof's root-level node and 1
	// below it.
	NotFirstLevel plonkish.Column
}

// BranchCols describes branch block structure.
type BranchCols struct {
	IsInit      plonkish.Column
	IsChild     plonkish.Column
	IsLastChild plonkish.Column
	NodeIndex   plonkish.Column
	// ModifiedNode is the nibble the proof path takes, constant across the
	// block's child rows.
	ModifiedNode plonkish.Column
	IsModified   plonkish.Column // 1 on the child row at ModifiedNode
	IsExtS       plonkish.Column // 1 on the S extension row of extension blocks
	IsExtC       plonkish.Column
}

// DenoteCols carry per-block helper values. Sel1/Sel2 mark nil modified
// children on branch child rows; on account nonce-balance rows they are
// repurposed as the nonce/balance long-encoding flags.
type DenoteCols struct {
	Sel1 plonkish.Column
	Sel2 plonkish.Column

	// SModNodeHashRLC is the RLC of the S-side modified child's hash,
	// constant across a branch's child rows. Repurposed on account
	// nonce-balance rows as r^len of the balance encoding.
	SModNodeHashRLC plonkish.Column
	CModNodeHashRLC plonkish.Column
}

// AccountLeafCols are the account block row-role flags.
type AccountLeafCols struct {
	IsKeyS             plonkish.Column
	IsKeyC             plonkish.Column
	IsNonExisting      plonkish.Column
	IsNonceBalanceS    plonkish.Column
	IsNonceBalanceC    plonkish.Column
	IsStorageCodehashS plonkish.Column
	IsStorageCodehashC plonkish.Column
	// IsInAddedBranch flags the block's last row; storage-level chips read
	// it one row above their branch init to detect the trie boundary.
	IsInAddedBranch plonkish.Column
}

// StorageLeafCols are the storage leaf block row-role flags.
type StorageLeafCols struct {
	IsKeyS          plonkish.Column
	IsValueS        plonkish.Column
	IsKeyC          plonkish.Column
	IsValueC        plonkish.Column
	IsInAddedBranch plonkish.Column
	// IsLong is 1 on leaf key rows whose node has a two-byte list header,
	// and on value rows whose value carries a length byte instead of being a
	// single RLP literal.
	IsLong plonkish.Column
}

// ProofTypeCols hold the per-proof lookup discriminant, one boolean per proof
// family plus the numeric tag.
type ProofTypeCols struct {
	IsNonceMod           plonkish.Column
	IsBalanceMod         plonkish.Column
	IsCodeHashMod        plonkish.Column
	IsNonExistingAccount plonkish.Column
	IsAccountDelete      plonkish.Column
	IsStorageMod         plonkish.Column
	IsNonExistingStorage plonkish.Column

	ProofType plonkish.Column
}

func (p *ProofTypeCols) flags() []plonkish.Column {
	return []plonkish.Column{
		p.IsNonceMod, p.IsBalanceMod, p.IsCodeHashMod, p.IsNonExistingAccount,
		p.IsAccountDelete, p.IsStorageMod, p.IsNonExistingStorage,
	}
}
