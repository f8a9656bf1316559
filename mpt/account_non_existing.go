package mpt

import (
	"github.com/zkevm/circuits/plonkish"
)

// configureAccountNonExisting constrains the non-existing row of the account
// block. The row mirrors the key row layout but carries the queried address
// encoding instead of the leaf key, and its first cell flags which of the two
// absence shapes the witness claims. Outside non-existing-account proofs the
// flag is forced off and the row stays unconstrained.
//
// Wrong leaf: the path ends in a leaf whose key differs from the queried
// address. The row recomputes the address RLC along the same path, so the
// query would have landed here, and an inverse witness certifies that the
// two key encodings differ while their declared lengths agree.
//
// Nil slot: the path ends in a nil branch slot, witnessed by the nil
// selector on the parent's child rows.
func (c *Config) configureAccountNonExisting() {
	c.sys.CreateGate("account non existing", func(m *plonkish.Meta) []plonkish.Poly {
		cb := plonkish.NewBuilder(maxGateDegree)
		q := m.Fixed(c.position.QEnable, 0)
		onRow := q.Mul(m.Advice(c.accountLeaf.IsNonExisting, 0))

		isWrongLeaf := m.Advice(c.sMain.RLP1, 0)
		nfl := m.Advice(c.position.NotFirstLevel, 0)
		bi := c.branchInfo(m, rotNonExistingToInit)

		head := m.Advice(c.sMain.Bytes[1], 0)
		tail := append(bytesExprs(m, &c.sMain, 0)[2:],
			m.Advice(c.cMain.RLP1, 0), m.Advice(c.cMain.RLP2, 0))
		keyCells := append(bytesExprs(m, &c.sMain, 0)[1:],
			m.Advice(c.cMain.RLP1, 0), m.Advice(c.cMain.RLP2, 0))
		// TODO: read the neighbour key off the S key row instead; the C key
		// row only mirrors it while non-existing proofs keep both sides
		// identical.
		keyCellsPrev := append(bytesExprs(m, &c.sMain, rotNonExistingToKeyRow)[1:],
			m.Advice(c.cMain.RLP1, rotNonExistingToKeyRow),
			m.Advice(c.cMain.RLP2, rotNonExistingToKeyRow))

		cb.If(onRow, func() {
			cb.RequireBoolean("wrong leaf flag", isWrongLeaf)

			cb.IfElse(m.Advice(c.proofType.IsNonExistingAccount, 0), func() {
				cb.If(isWrongLeaf, func() {
					// the queried address must follow the path into this
					// position
					addressRLC := m.Advice(c.addressRLC, 0)
					cb.IfElse(nfl, func() {
						start := m.Advice(c.accs.Key.RLC, rotNonExistingToFirstChild)
						startMult := m.Advice(c.accs.Key.Mult, rotNonExistingToFirstChild)
						cb.If(bi.isC16(), func() {
							cb.RequireEqual("queried key odd head", addressRLC,
								c.foldFrom(
									start.Add(head.Sub(plonkish.Constant(keyOddOffset)).Mul(startMult)),
									startMult.Scale(c.rPow(1)), tail...))
						})
						cb.If(bi.isC1(), func() {
							cb.RequireEqual("queried key head marker", head, plonkish.Constant(keyEvenPrefix))
							cb.RequireEqual("queried key even head", addressRLC,
								c.foldFrom(start, startMult, tail...))
						})
					}, func() {
						cb.RequireEqual("queried key head marker", head, plonkish.Constant(keyEvenPrefix))
						cb.RequireEqual("queried key from root", addressRLC,
							c.foldFrom(plonkish.Constant(0), one, tail...))
					})

					sum := m.Advice(c.accs.Key.RLC, 0)
					sumPrev := m.Advice(c.accs.Key.Mult, 0)
					diffInv := m.Advice(c.accs.AccS.RLC, 0)

					cb.RequireEqual("queried key folded", sum, c.rlcOf(keyCells))
					cb.RequireEqual("leaf key folded", sumPrev, c.rlcOf(keyCellsPrev))
					cb.RequireEqual("keys differ", sum.Sub(sumPrev).Mul(diffInv), one)
					cb.RequireEqual("key lengths agree",
						m.Advice(c.sMain.Bytes[0], 0),
						m.Advice(c.sMain.Bytes[0], rotNonExistingToKeyRow))
				})
				cb.If(not(isWrongLeaf), func() {
					cb.RequireEqual("path ends in a nil slot",
						m.Advice(c.denote.Sel1, rotNonExistingToFirstChild), one)
				})
			}, func() {
				cb.Require("wrong leaf only on non-existing proofs", isWrongLeaf)
			})
		})
		return cb.Polys()
	})

	c.lenBoundLookup("queried key len", func(m *plonkish.Meta) (sel, length *plonkish.Expression) {
		sel = m.Fixed(c.position.QEnable, 0).
			Mul(m.Advice(c.accountLeaf.IsNonExisting, 0)).
			Mul(m.Advice(c.proofType.IsNonExistingAccount, 0))
		length = m.Advice(c.sMain.Bytes[0], 0).Sub(plonkish.Constant(rlpNil))
		return sel, length
	})

	rowSel := func(m *plonkish.Meta) *plonkish.Expression {
		return m.Fixed(c.position.QEnable, 0).Mul(m.Advice(c.accountLeaf.IsNonExisting, 0))
	}
	c.rangeLookups("account non existing byte", rowSel,
		append(c.sMain.payload(), c.cMain.RLP1, c.cMain.RLP2), TagRange256)
}
