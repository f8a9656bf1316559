package mpt

import (
	"github.com/zkevm/circuits/plonkish"
)

// configureLeafKey constrains storage leaf key rows. A leaf is the list
// [keyEnc, valueEnc]; the key row holds list header and keyEnc, spilling past
// the s section into the first two c cells for full-length keys. The row's
// accumulator folds all 36 cells (honest witnesses zero pad past the key) and
// its multiplier jumps by r to the folded prefix length, checked against the
// RMult table, so the value row continues the node stream at the right
// offset.
//
// The path key RLC extends the enclosing branch's running pair with the
// leaf's remaining nibbles. The compact key head absorbs the parity: after a
// block that consumed a high nibble the head is 48 plus the dangling low
// nibble, otherwise the head is the bare 32 marker and the key bytes align.
func (c *Config) configureLeafKey() {
	for _, side := range [2]struct {
		name          string
		row           plonkish.Column
		rotInit       int
		rotFirstChild int
		rotAbove      int
	}{
		{"s", c.storageLeaf.IsKeyS, rotLeafKeySToInit, rotLeafKeySToFirstChild, rotLeafKeySToRowAbove},
		{"c", c.storageLeaf.IsKeyC, rotLeafKeyCToInit, rotLeafKeyCToFirstChild, rotLeafKeyCToRowAbove},
	} {
		side := side
		c.sys.CreateGate("storage leaf key "+side.name, func(m *plonkish.Meta) []plonkish.Poly {
			cb := plonkish.NewBuilder(maxGateDegree)
			q := m.Fixed(c.position.QNotFirst, 0)
			isLong := m.Advice(c.storageLeaf.IsLong, 0)

			cells := append(sectionExprs(m, &c.sMain, 0),
				m.Advice(c.cMain.RLP1, 0), m.Advice(c.cMain.RLP2, 0))

			cb.If(q.Mul(m.Advice(side.row, 0)), func() {
				cb.RequireEqual("leaf key acc", m.Advice(c.accs.AccS.RLC, 0), c.rlcOf(cells))
				cb.If(isLong, func() {
					cb.RequireEqual("long leaf list header",
						m.Advice(c.sMain.RLP1, 0), plonkish.Constant(rlpList2))
				})

				keyRLC := m.Advice(c.accs.Key.RLC, 0)
				marker := c.accountMarker(m, side.rotAbove)
				bi := c.branchInfo(m, side.rotInit)

				// head and tail shift one cell right under a long header
				headShort := m.Advice(c.sMain.Bytes[0], 0)
				tailShort := append(bytesExprs(m, &c.sMain, 0)[1:], m.Advice(c.cMain.RLP1, 0))
				headLong := m.Advice(c.sMain.Bytes[1], 0)
				tailLong := append(bytesExprs(m, &c.sMain, 0)[2:],
					m.Advice(c.cMain.RLP1, 0), m.Advice(c.cMain.RLP2, 0))

				extendKey := func(start, startMult *plonkish.Expression, odd bool) {
					apply := func(head *plonkish.Expression, tail []*plonkish.Expression) {
						if odd {
							cb.RequireEqual("leaf key rlc odd head", keyRLC,
								c.foldFrom(
									start.Add(head.Sub(plonkish.Constant(keyOddOffset)).Mul(startMult)),
									startMult.Scale(c.rPow(1)), tail...))
						} else {
							cb.RequireEqual("leaf key even head", head, plonkish.Constant(keyEvenPrefix))
							cb.RequireEqual("leaf key rlc even head", keyRLC,
								c.foldFrom(start, startMult, tail...))
						}
					}
					cb.If(not(isLong), func() { apply(headShort, tailShort) })
					cb.If(isLong, func() { apply(headLong, tailLong) })
				}

				// leaf as the whole storage trie: the key restarts and the
				// full slot key leaves an even nibble count
				cb.If(marker, func() {
					extendKey(plonkish.Constant(0), one, false)
				})
				cb.If(not(marker), func() {
					start := m.Advice(c.accs.Key.RLC, side.rotFirstChild)
					startMult := m.Advice(c.accs.Key.Mult, side.rotFirstChild)
					cb.If(bi.isC16(), func() { extendKey(start, startMult, true) })
					cb.If(bi.isC1(), func() { extendKey(start, startMult, false) })
				})
			})
			return cb.Polys()
		})

		c.rMultLookup("leaf key mult "+side.name, func(m *plonkish.Meta) (sel, length, diff *plonkish.Expression) {
			sel = m.Fixed(c.position.QNotFirst, 0).Mul(m.Advice(side.row, 0))
			isLong := m.Advice(c.storageLeaf.IsLong, 0)
			shortLen := m.Advice(c.sMain.RLP2, 0).Sub(plonkish.Constant(rlpNil)).Add(plonkish.Constant(2))
			longLen := m.Advice(c.sMain.Bytes[0], 0).Sub(plonkish.Constant(rlpNil)).Add(plonkish.Constant(3))
			length = not(isLong).Mul(shortLen).Add(isLong.Mul(longLen))
			diff = m.Advice(c.accs.AccS.Mult, 0)
			return sel, length, diff
		})
	}

	keyRowSel := func(m *plonkish.Meta) *plonkish.Expression {
		return m.Fixed(c.position.QEnable, 0).Mul(plonkish.Sum(
			m.Advice(c.storageLeaf.IsKeyS, 0),
			m.Advice(c.storageLeaf.IsKeyC, 0),
			m.Advice(c.storageLeaf.IsInAddedBranch, 0)))
	}
	c.rangeLookups("leaf key byte", keyRowSel,
		append(c.sMain.payload(), c.cMain.RLP1, c.cMain.RLP2), TagRange256)
}
