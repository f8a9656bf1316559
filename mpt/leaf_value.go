package mpt

import (
	"github.com/zkevm/circuits/plonkish"
)

// configureLeafValue constrains storage leaf value rows. The row's s section
// continues the node stream begun on the key row: the accumulator folds all
// 34 cells on top of the key row's (rlc, mult) pair. The value RLC itself is
// exposed in AccC for the lookup surface, either the bare byte in the first
// cell or the string bytes after their header.
//
// The completed leaf accumulator must hash to the modified slot of the
// enclosing branch. Three cases opt out: a leaf alone in its storage trie
// (the storage root chip binds it), a nil modified slot (the leaf does not
// exist on this side), and a placeholder branch, where the leaf instead
// hashes straight into the branch one level up.
func (c *Config) configureLeafValue() {
	for _, side := range [2]struct {
		name     string
		row      plonkish.Column
		sel      plonkish.Column
		mod      plonkish.Column
		rotAbove int
		rotInit  int
	}{
		{"s", c.storageLeaf.IsValueS, c.denote.Sel1, c.denote.SModNodeHashRLC,
			rotLeafValueSToRowAbove, rotLeafValueSToInit},
		{"c", c.storageLeaf.IsValueC, c.denote.Sel2, c.denote.CModNodeHashRLC,
			rotLeafValueCToRowAbove, rotLeafValueCToInit},
	} {
		side := side
		c.sys.CreateGate("storage leaf value "+side.name, func(m *plonkish.Meta) []plonkish.Poly {
			cb := plonkish.NewBuilder(maxGateDegree)
			q := m.Fixed(c.position.QNotFirst, 0)
			isLong := m.Advice(c.storageLeaf.IsLong, 0)

			cb.If(q.Mul(m.Advice(side.row, 0)), func() {
				cb.RequireEqual("leaf acc continues over value",
					m.Advice(c.accs.AccS.RLC, 0),
					c.foldFrom(
						m.Advice(c.accs.AccS.RLC, rotLeafValueToKey),
						m.Advice(c.accs.AccS.Mult, rotLeafValueToKey),
						sectionExprs(m, &c.sMain, 0)...))

				valueRLC := m.Advice(c.accs.AccC.RLC, 0)
				cb.If(isLong, func() {
					cb.RequireEqual("long value rlc", valueRLC,
						c.rlcOf(append([]*plonkish.Expression{m.Advice(c.sMain.RLP2, 0)},
							bytesExprs(m, &c.sMain, 0)...)))
				})
				cb.If(not(isLong), func() {
					cb.RequireEqual("short value rlc", valueRLC, m.Advice(c.sMain.RLP1, 0))
				})
			})
			return cb.Polys()
		})

		c.keccakLookup("leaf "+side.name+" in branch", func(m *plonkish.Meta) (sel, in, out *plonkish.Expression) {
			bi := c.branchInfo(m, side.rotInit)
			sel = m.Fixed(c.position.QNotFirst, 0).
				Mul(m.Advice(side.row, 0)).
				Mul(not(m.Advice(side.sel, rotLeafValueToBranch))).
				Mul(not(c.accountMarker(m, side.rotAbove))).
				Mul(not(bi.isPlaceholder(side.name == "s")))
			in = m.Advice(c.accs.AccS.RLC, 0)
			out = m.Advice(side.mod, rotLeafValueToBranch)
			return sel, in, out
		})

		// placeholder branch: the leaf lives one branch higher
		c.keccakLookup("leaf "+side.name+" in grandparent", func(m *plonkish.Meta) (sel, in, out *plonkish.Expression) {
			bi := c.branchInfo(m, side.rotInit)
			sel = m.Fixed(c.position.QNotFirst, 0).
				Mul(m.Advice(side.row, 0)).
				Mul(not(m.Advice(side.sel, rotLeafValueToBranch))).
				Mul(bi.isPlaceholder(side.name == "s")).
				Mul(not(c.accountMarker(m, side.rotInit-1))).
				Mul(not(c.accountMarker(m, side.rotAbove)))
			in = m.Advice(c.accs.AccS.RLC, 0)
			out = m.Advice(side.mod, side.rotInit+rotInitToPrevLastChild)
			return sel, in, out
		})
	}

	valueRowSel := func(m *plonkish.Meta) *plonkish.Expression {
		return m.Fixed(c.position.QEnable, 0).Mul(plonkish.Sum(
			m.Advice(c.storageLeaf.IsValueS, 0),
			m.Advice(c.storageLeaf.IsValueC, 0)))
	}
	c.rangeLookups("leaf value byte", valueRowSel, c.sMain.payload(), TagRange256)
}
