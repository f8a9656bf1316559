package mpt

import (
	"github.com/zkevm/circuits/plonkish"
)

// configureAccountLeafKey constrains account leaf key rows. An account leaf
// always carries a two-byte list header, so the row is 248, payload length,
// key string header, then the compact address key, spilling into the first
// two c cells at full length. S rows fold into the S accumulator pair and C
// rows into the C pair; the multiplier jump over the variable prefix is
// checked against the RMult table.
//
// The address key RLC extends the enclosing branch pair exactly like a
// storage leaf key, or starts fresh when the account sits at the trie root.
// On ordinary proofs the result must equal the address RLC column; a
// non-existing account proof unbinds the two, since the leaf on the path is
// then a neighbour of the missing address.
func (c *Config) configureAccountLeafKey() {
	for _, side := range [2]struct {
		name          string
		row           plonkish.Column
		acc           AccumulatorPair
		rotInit       int
		rotFirstChild int
	}{
		{"s", c.accountLeaf.IsKeyS, c.accs.AccS, rotAccountKeySToInit, rotAccountKeySToFirstChild},
		{"c", c.accountLeaf.IsKeyC, c.accs.AccC, rotAccountKeyCToInit, rotAccountKeyCToFirstChild},
	} {
		side := side
		c.sys.CreateGate("account leaf key "+side.name, func(m *plonkish.Meta) []plonkish.Poly {
			cb := plonkish.NewBuilder(maxGateDegree)
			q := m.Fixed(c.position.QEnable, 0)

			cells := append(sectionExprs(m, &c.sMain, 0),
				m.Advice(c.cMain.RLP1, 0), m.Advice(c.cMain.RLP2, 0))

			cb.If(q.Mul(m.Advice(side.row, 0)), func() {
				cb.RequireEqual("account list header",
					m.Advice(c.sMain.RLP1, 0), plonkish.Constant(rlpList2))
				cb.RequireEqual("account key acc",
					m.Advice(side.acc.RLC, 0), c.rlcOf(cells))

				keyRLC := m.Advice(c.accs.Key.RLC, 0)
				head := m.Advice(c.sMain.Bytes[1], 0)
				tail := append(bytesExprs(m, &c.sMain, 0)[2:],
					m.Advice(c.cMain.RLP1, 0), m.Advice(c.cMain.RLP2, 0))
				nfl := m.Advice(c.position.NotFirstLevel, 0)
				bi := c.branchInfo(m, side.rotInit)

				evenHead := func(start, startMult *plonkish.Expression) {
					cb.RequireEqual("account key even head", head, plonkish.Constant(keyEvenPrefix))
					cb.RequireEqual("account key rlc", keyRLC,
						c.foldFrom(start, startMult, tail...))
				}
				cb.If(not(nfl), func() {
					evenHead(plonkish.Constant(0), one)
				})
				cb.If(nfl, func() {
					start := m.Advice(c.accs.Key.RLC, side.rotFirstChild)
					startMult := m.Advice(c.accs.Key.Mult, side.rotFirstChild)
					cb.If(bi.isC16(), func() {
						cb.RequireEqual("account key rlc odd head", keyRLC,
							c.foldFrom(
								start.Add(head.Sub(plonkish.Constant(keyOddOffset)).Mul(startMult)),
								startMult.Scale(c.rPow(1)), tail...))
					})
					cb.If(bi.isC1(), func() { evenHead(start, startMult) })
				})
			})
			return cb.Polys()
		})

		c.rMultLookup("account key mult "+side.name, func(m *plonkish.Meta) (sel, length, diff *plonkish.Expression) {
			sel = m.Fixed(c.position.QEnable, 0).Mul(m.Advice(side.row, 0))
			length = m.Advice(c.sMain.Bytes[0], 0).
				Sub(plonkish.Constant(rlpNil)).Add(plonkish.Constant(3))
			diff = m.Advice(side.acc.Mult, 0)
			return sel, length, diff
		})

		c.lenBoundLookup("account key len "+side.name, func(m *plonkish.Meta) (sel, length *plonkish.Expression) {
			sel = m.Fixed(c.position.QEnable, 0).Mul(m.Advice(side.row, 0))
			length = m.Advice(c.sMain.Bytes[0], 0).Sub(plonkish.Constant(rlpNil))
			return sel, length
		})
	}

	// ordinary proofs tie the derived key to the queried address
	c.sys.CreateGate("account address binding", func(m *plonkish.Meta) []plonkish.Poly {
		cb := plonkish.NewBuilder(maxGateDegree)
		q := m.Fixed(c.position.QEnable, 0)
		isKeyS := m.Advice(c.accountLeaf.IsKeyS, 0)
		nonExisting := m.Advice(c.proofType.IsNonExistingAccount, 0)

		cb.If(q.Mul(isKeyS).Mul(not(nonExisting)), func() {
			cb.RequireEqual("address rlc matches leaf key",
				m.Advice(c.addressRLC, 0), m.Advice(c.accs.Key.RLC, 0))
		})
		return cb.Polys()
	})

	keyRowSel := func(m *plonkish.Meta) *plonkish.Expression {
		return m.Fixed(c.position.QEnable, 0).Mul(plonkish.Sum(
			m.Advice(c.accountLeaf.IsKeyS, 0),
			m.Advice(c.accountLeaf.IsKeyC, 0)))
	}
	c.rangeLookups("account key byte", keyRowSel,
		append(c.sMain.payload(), c.cMain.RLP1, c.cMain.RLP2), TagRange256)
}
