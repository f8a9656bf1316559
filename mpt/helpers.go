package mpt

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/zkevm/circuits/plonkish"
)

var one = plonkish.Constant(1)

func not(e *plonkish.Expression) *plonkish.Expression {
	return one.Sub(e)
}

// rPow returns r^i.
func (c *Config) rPow(i int) fr.Element {
	return c.rPowers[i]
}

// rlcOf returns the random linear combination of the cells,
// cells[0] + cells[1]*r + cells[2]*r^2 + ...
func (c *Config) rlcOf(cells []*plonkish.Expression) *plonkish.Expression {
	acc := cells[0]
	for i := 1; i < len(cells); i++ {
		acc = acc.Add(cells[i].Scale(c.rPow(i)))
	}
	return acc
}

// foldFrom returns acc + Σ cells[i] * mult * r^i, the accumulator state after
// folding the cells starting at (acc, mult).
func (c *Config) foldFrom(acc, mult *plonkish.Expression, cells ...*plonkish.Expression) *plonkish.Expression {
	res := acc
	for i, cell := range cells {
		term := cell.Mul(mult)
		if i > 0 {
			term = term.Scale(c.rPow(i))
		}
		res = res.Add(term)
	}
	return res
}

// sectionExprs queries a full 34-cell section at one rotation, wire order.
func sectionExprs(m *plonkish.Meta, mc *MainCols, rot int) []*plonkish.Expression {
	out := make([]*plonkish.Expression, 0, rlpNum+hashWidth)
	for _, col := range mc.payload() {
		out = append(out, m.Advice(col, rot))
	}
	return out
}

// bytesExprs queries the 32 byte cells of a section at one rotation.
func bytesExprs(m *plonkish.Meta, mc *MainCols, rot int) []*plonkish.Expression {
	out := make([]*plonkish.Expression, 0, hashWidth)
	for i := range mc.Bytes {
		out = append(out, m.Advice(mc.Bytes[i], rot))
	}
	return out
}

// payloadCol maps a row payload position to its column.
func (c *Config) payloadCol(pos int) plonkish.Column {
	sec := &c.sMain
	if pos >= rlpNum+hashWidth {
		sec = &c.cMain
		pos -= rlpNum + hashWidth
	}
	switch pos {
	case 0:
		return sec.RLP1
	case 1:
		return sec.RLP2
	default:
		return sec.Bytes[pos-rlpNum]
	}
}

// branchInfo reads block-level flags off a branch init row addressed by a
// relative rotation, the way chips below the init row see it.
type branchInfo struct {
	c   *Config
	m   *plonkish.Meta
	rot int // rotation landing on the init row
}

func (c *Config) branchInfo(m *plonkish.Meta, rotInit int) branchInfo {
	return branchInfo{c: c, m: m, rot: rotInit}
}

func (b branchInfo) flag(pos int) *plonkish.Expression {
	return b.m.Advice(b.c.payloadCol(pos), b.rot)
}

func (b branchInfo) isPlaceholder(isS bool) *plonkish.Expression {
	if isS {
		return b.flag(isBranchSPlaceholderPos)
	}
	return b.flag(isBranchCPlaceholderPos)
}

func (b branchInfo) extFlags() []*plonkish.Expression {
	return []*plonkish.Expression{
		b.flag(extShortC16Pos), b.flag(extShortC1Pos),
		b.flag(extLongEvenC16Pos), b.flag(extLongEvenC1Pos),
		b.flag(extLongOddC16Pos), b.flag(extLongOddC1Pos),
	}
}

// isExtension is 1 when the block wraps its branch in an extension node.
func (b branchInfo) isExtension() *plonkish.Expression {
	return plonkish.Sum(b.extFlags()...)
}

// isC16 is 1 when the path has consumed an even number of nibbles before this
// block, so the block's nibble lands in the high half of a key byte.
func (b branchInfo) isC16() *plonkish.Expression {
	return b.flag(isBranchC16Pos)
}

func (b branchInfo) isC1() *plonkish.Expression {
	return b.flag(isBranchC1Pos)
}

func (b branchInfo) hdr(isS bool) [3]*plonkish.Expression {
	base := branchInitSHdrPos
	if !isS {
		base = branchInitCHdrPos
	}
	return [3]*plonkish.Expression{b.flag(base), b.flag(base + 1), b.flag(base + 2)}
}

func (b branchInfo) twoRLPBytes(isS bool) *plonkish.Expression {
	if isS {
		return b.flag(isSTwoRLPBytesPos)
	}
	return b.flag(isCTwoRLPBytesPos)
}

func (b branchInfo) threeRLPBytes(isS bool) *plonkish.Expression {
	if isS {
		return b.flag(isSThreeRLPBytesPos)
	}
	return b.flag(isCThreeRLPBytesPos)
}

func (b branchInfo) extOneRLPByte() *plonkish.Expression {
	return b.flag(extOneRLPBytePos)
}

func (b branchInfo) extLongerThan55() *plonkish.Expression {
	return b.flag(extLongerThan55Pos)
}

// accountMarker is the account block's last-row flag; one row above a branch
// init (or a lone storage leaf) it marks the account/storage trie boundary.
func (c *Config) accountMarker(m *plonkish.Meta, rot int) *plonkish.Expression {
	return m.Advice(c.accountLeaf.IsInAddedBranch, rot)
}

// keccakLookup registers a hash lookup; build returns the selector, the
// preimage RLC and the digest RLC. Both pairs are gated by the selector, and
// disabled rows resolve against the table's zero row.
func (c *Config) keccakLookup(name string, build func(m *plonkish.Meta) (sel, input, output *plonkish.Expression)) {
	c.sys.LookupAny(name, func(m *plonkish.Meta) []plonkish.LookupPair {
		sel, in, out := build(m)
		return []plonkish.LookupPair{
			{Input: sel.Mul(in), Table: m.Fixed(c.keccakTable[0], 0)},
			{Input: sel.Mul(out), Table: m.Fixed(c.keccakTable[1], 0)},
		}
	})
}

// rangeLookups registers one byte-range lookup per column, gated on sel.
func (c *Config) rangeLookups(name string, sel func(*plonkish.Meta) *plonkish.Expression, cols []plonkish.Column, tag FixedTableTag) {
	for _, col := range cols {
		col := col
		c.sys.LookupAny(name, func(m *plonkish.Meta) []plonkish.LookupPair {
			q := sel(m)
			return []plonkish.LookupPair{
				{Input: q.ScaleUint(uint64(tag)), Table: m.Fixed(c.fixedTable[0], 0)},
				{Input: q.Mul(m.Advice(col, 0)), Table: m.Fixed(c.fixedTable[1], 0)},
			}
		})
	}
}

// lenBoundLookup bounds a declared length expression to [0, maxKeyEncLen].
func (c *Config) lenBoundLookup(name string, build func(m *plonkish.Meta) (sel, length *plonkish.Expression)) {
	c.sys.LookupAny(name, func(m *plonkish.Meta) []plonkish.LookupPair {
		sel, length := build(m)
		return []plonkish.LookupPair{
			{Input: sel.ScaleUint(uint64(TagRangeKeyLen)), Table: m.Fixed(c.fixedTable[0], 0)},
			{Input: sel.Mul(length), Table: m.Fixed(c.fixedTable[1], 0)},
		}
	})
}

// rMultLookup checks diff == r^length via the RMult fixed table, gated on sel.
func (c *Config) rMultLookup(name string, build func(m *plonkish.Meta) (sel, length, diff *plonkish.Expression)) {
	c.sys.LookupAny(name, func(m *plonkish.Meta) []plonkish.LookupPair {
		sel, length, diff := build(m)
		return []plonkish.LookupPair{
			{Input: sel.ScaleUint(uint64(TagRMult)), Table: m.Fixed(c.fixedTable[0], 0)},
			{Input: sel.Mul(length), Table: m.Fixed(c.fixedTable[1], 0)},
			{Input: sel.Mul(diff), Table: m.Fixed(c.fixedTable[2], 0)},
		}
	})
}
