package mpt

import (
	"github.com/zkevm/circuits/plonkish"
)

// configureExtensionNode constrains the two extension rows closing every
// branch block, active only when the init row declares an extension form.
//
// The S row's s section holds the extension node stream up to the embedded
// hash: list header, key string header and compact key, zero padded. Both c
// sections hold 160 followed by the wrapped branch hash, S and C side. The
// accumulators fold key part then hash part, with MultDiff bridging the
// variable key part length, and two keccak bindings close the loop: the
// branch accumulator hashes to the embedded bytes, and the extension
// accumulator hashes to the parent slot (or the trie root at the first
// level).
func (c *Config) configureExtensionNode() {
	c.sys.CreateGate("extension node encoding", func(m *plonkish.Meta) []plonkish.Poly {
		cb := plonkish.NewBuilder(maxGateDegree)
		q := m.Fixed(c.position.QEnable, 0)

		for _, side := range [2]struct {
			name    string
			row     plonkish.Column
			rotInit int
			rotKey  int // rotation from the ext row to the S ext row holding the key part
			acc     AccumulatorPair
		}{
			{"s", c.branch.IsExtS, rotExtSToInit, 0, c.accs.AccS},
			{"c", c.branch.IsExtC, rotExtCToInit, rotExtCToExtS, c.accs.AccC},
		} {
			side := side
			bi := c.branchInfo(m, side.rotInit)

			cb.If(q.Mul(m.Advice(side.row, 0)).Mul(bi.isExtension()), func() {
				keyRLC := c.rlcOf(sectionExprs(m, &c.sMain, side.rotKey))
				multAfterKey := m.Advice(c.accs.MultDiff, side.rotKey)

				cb.RequireEqual("embedded hash prefix "+side.name,
					m.Advice(c.cMain.RLP2, 0), plonkish.Constant(rlpHashPrefix))
				cb.RequireEqual("extension acc "+side.name,
					m.Advice(side.acc.RLC, 0),
					c.foldFrom(keyRLC, multAfterKey,
						append([]*plonkish.Expression{plonkish.Constant(rlpHashPrefix)},
							bytesExprs(m, &c.cMain, 0)...)...))
				cb.RequireEqual("extension acc mult "+side.name,
					m.Advice(side.acc.Mult, 0),
					multAfterKey.Scale(c.rPow(hashWidth+1)))
			})
		}

		// header shape, checked once on the S row
		biS := c.branchInfo(m, rotExtSToInit)
		cb.If(q.Mul(m.Advice(c.branch.IsExtS, 0)).Mul(biS.isExtension()), func() {
			cb.Require("one rlp byte excludes long payload",
				biS.extOneRLPByte().Mul(biS.extLongerThan55()))
			cb.Require("one rlp byte means a single nibble",
				biS.extOneRLPByte().Mul(not(biS.flag(extShortC16Pos).Add(biS.flag(extShortC1Pos)))))
			cb.If(biS.extOneRLPByte(), func() {
				cb.RequireEqual("short extension list header",
					m.Advice(c.sMain.RLP1, 0), plonkish.Constant(226))
			})
			cb.If(biS.extLongerThan55(), func() {
				cb.RequireEqual("long extension list header",
					m.Advice(c.sMain.RLP1, 0), plonkish.Constant(rlpList2))
			})
		})
		return cb.Polys()
	})

	// MultDiff must be r to the folded key part length. The length comes off
	// the headers: 2 cells for the bare nibble byte, header plus string for
	// the rest, with the string header shifted one cell right under a two
	// byte list header.
	c.rMultLookup("extension key mult", func(m *plonkish.Meta) (sel, length, diff *plonkish.Expression) {
		bi := c.branchInfo(m, rotExtSToInit)
		sel = m.Fixed(c.position.QEnable, 0).
			Mul(m.Advice(c.branch.IsExtS, 0)).
			Mul(bi.isExtension())
		oneRLP := bi.extOneRLPByte()
		gt55 := bi.extLongerThan55()
		shortLen := m.Advice(c.sMain.RLP2, 0).Sub(plonkish.Constant(rlpNil)).Add(plonkish.Constant(2))
		longLen := m.Advice(c.sMain.Bytes[0], 0).Sub(plonkish.Constant(rlpNil)).Add(plonkish.Constant(3))
		length = oneRLP.ScaleUint(2).
			Add(not(oneRLP).Mul(not(gt55)).Mul(shortLen)).
			Add(gt55.Mul(longLen))
		diff = m.Advice(c.accs.MultDiff, 0)
		return sel, length, diff
	})

	// The wrapped branch hashes to the bytes embedded in the extension rows.
	for _, side := range [2]struct {
		name   string
		row    plonkish.Column
		rotTo  int
		isS    bool
		acc    AccumulatorPair
	}{
		{"s", c.branch.IsExtS, rotExtSToLastChild, true, c.accs.AccS},
		{"c", c.branch.IsExtC, rotExtCToLastChild, false, c.accs.AccC},
	} {
		side := side
		rotInit := rotExtSToInit
		if !side.isS {
			rotInit = rotExtCToInit
		}
		c.keccakLookup("branch in extension "+side.name, func(m *plonkish.Meta) (sel, in, out *plonkish.Expression) {
			bi := c.branchInfo(m, rotInit)
			sel = m.Fixed(c.position.QNotFirst, 0).
				Mul(m.Advice(side.row, 0)).
				Mul(bi.isExtension()).
				Mul(not(bi.isPlaceholder(side.isS)))
			in = m.Advice(side.acc.RLC, side.rotTo).
				Add(m.Advice(side.acc.Mult, side.rotTo).ScaleUint(rlpNil))
			out = c.rlcOf(bytesExprs(m, &c.cMain, 0))
			return sel, in, out
		})
	}

	// The extension node hashes into its parent slot, or into the trie root
	// at the first level. Below an account leaf the storage root chip takes
	// over, and placeholders are skipped.
	for _, side := range [2]struct {
		name     string
		row      plonkish.Column
		rotInit  int
		rotAbove int
		rotPar   int
		isS      bool
		acc      AccumulatorPair
		mod      plonkish.Column
		root     plonkish.Column
	}{
		{"s", c.branch.IsExtS, rotExtSToInit, rotExtSToRowAbove, rotExtSToParentChild,
			true, c.accs.AccS, c.denote.SModNodeHashRLC, c.interStartRoot},
		{"c", c.branch.IsExtC, rotExtCToInit, rotExtCToRowAbove, rotExtCToParentChild,
			false, c.accs.AccC, c.denote.CModNodeHashRLC, c.interFinalRoot},
	} {
		side := side
		c.keccakLookup("extension "+side.name+" in parent", func(m *plonkish.Meta) (sel, in, out *plonkish.Expression) {
			bi := c.branchInfo(m, side.rotInit)
			sel = m.Fixed(c.position.QNotFirst, 0).
				Mul(m.Advice(side.row, 0)).
				Mul(bi.isExtension()).
				Mul(m.Advice(c.position.NotFirstLevel, 0)).
				Mul(not(c.accountMarker(m, side.rotAbove))).
				Mul(not(bi.isPlaceholder(side.isS)))
			in = m.Advice(side.acc.RLC, 0)
			out = m.Advice(side.mod, side.rotPar)
			return sel, in, out
		})
		c.keccakLookup("extension "+side.name+" in first level", func(m *plonkish.Meta) (sel, in, out *plonkish.Expression) {
			bi := c.branchInfo(m, side.rotInit)
			sel = m.Fixed(c.position.QNotFirst, 0).
				Mul(m.Advice(side.row, 0)).
				Mul(bi.isExtension()).
				Mul(not(m.Advice(c.position.NotFirstLevel, 0))).
				Mul(not(bi.isPlaceholder(side.isS)))
			in = m.Advice(side.acc.RLC, 0)
			out = m.Advice(side.root, 0)
			return sel, in, out
		})
	}

	extSel := func(m *plonkish.Meta) *plonkish.Expression {
		return m.Fixed(c.position.QEnable, 0).
			Mul(m.Advice(c.branch.IsExtS, 0).Add(m.Advice(c.branch.IsExtC, 0)))
	}
	c.rangeLookups("extension row byte", extSel,
		append(c.sMain.payload(), c.cMain.payload()...), TagRange256)
}
