package mpt

import (
	"github.com/zkevm/circuits/plonkish"
)

// configureAccountLeafNonceBalance constrains the nonce-balance rows. The
// account body is the string 184, length, wrapping the list 248, length,
// nonce, balance, storage root, code hash. The row splits that prefix over
// both sections: the s section carries 184, the string length and the nonce
// encoding, the c section carries 248, the inner list length and the balance
// encoding. The wire order folds the four header cells first, then nonce and
// balance back to back, with MultDiff and the repurposed S mod-hash cell
// holding r to the two encoding lengths.
//
// The S account folds in the S accumulator pair and the C account in the C
// pair. The S pair is copied across the C row so the storage-codehash rows
// can pick it up one rotation away. A nonce modification must keep the
// balance bytes intact and a balance modification the nonce bytes.
func (c *Config) configureAccountLeafNonceBalance() {
	for _, side := range [2]struct {
		name string
		row  plonkish.Column
		acc  AccumulatorPair
	}{
		{"s", c.accountLeaf.IsNonceBalanceS, c.accs.AccS},
		{"c", c.accountLeaf.IsNonceBalanceC, c.accs.AccC},
	} {
		side := side
		c.sys.CreateGate("account nonce balance "+side.name, func(m *plonkish.Meta) []plonkish.Poly {
			cb := plonkish.NewBuilder(maxGateDegree)
			q := m.Fixed(c.position.QEnable, 0)

			sRLP2 := m.Advice(c.sMain.RLP2, 0)
			cRLP2 := m.Advice(c.cMain.RLP2, 0)
			nonceMultDiff := m.Advice(c.accs.MultDiff, 0)
			balanceMultDiff := m.Advice(c.denote.SModNodeHashRLC, 0)

			cb.If(q.Mul(m.Advice(side.row, 0)), func() {
				cb.RequireEqual("body string header",
					m.Advice(c.sMain.RLP1, 0), plonkish.Constant(rlpLongStr))
				cb.RequireEqual("body list header",
					m.Advice(c.cMain.RLP1, 0), plonkish.Constant(rlpList2))
				cb.RequireEqual("body string wraps the list",
					sRLP2, cRLP2.Add(plonkish.Constant(2)))

				// the leaf payload is key encoding plus body
				keyRow := rotNonceBalanceToKey
				cb.RequireEqual("leaf length adds up",
					m.Advice(c.sMain.RLP2, keyRow),
					m.Advice(c.sMain.Bytes[0], keyRow).Sub(plonkish.Constant(rlpNil)).
						Add(sRLP2).Add(plonkish.Constant(3)))

				prevRLC := m.Advice(side.acc.RLC, keyRow)
				prevMult := m.Advice(side.acc.Mult, keyRow)
				headerAndNonce := append([]*plonkish.Expression{
					m.Advice(c.sMain.RLP1, 0), sRLP2,
					m.Advice(c.cMain.RLP1, 0), cRLP2,
				}, bytesExprs(m, &c.sMain, 0)...)

				accMid := c.foldFrom(prevRLC, prevMult, headerAndNonce...)
				balanceMult := prevMult.Mul(nonceMultDiff).Scale(c.rPow(rlpNum + rlpNum))
				acc := accMid
				for i, cell := range bytesExprs(m, &c.cMain, 0) {
					term := cell.Mul(balanceMult)
					if i > 0 {
						term = term.Scale(c.rPow(i))
					}
					acc = acc.Add(term)
				}
				cb.RequireEqual("nonce balance acc", m.Advice(side.acc.RLC, 0), acc)
				cb.RequireEqual("nonce balance acc mult",
					m.Advice(side.acc.Mult, 0), balanceMult.Mul(balanceMultDiff))
			})
			return cb.Polys()
		})

		// the row's repurposed selectors flag long encodings, Sel1 for the
		// nonce and Sel2 for the balance
		c.rMultLookup("nonce mult "+side.name, func(m *plonkish.Meta) (sel, length, diff *plonkish.Expression) {
			sel = m.Fixed(c.position.QEnable, 0).Mul(m.Advice(side.row, 0))
			long := m.Advice(c.denote.Sel1, 0)
			length = not(long).
				Add(long.Mul(m.Advice(c.sMain.Bytes[0], 0).Sub(plonkish.Constant(rlpNil)).Add(one)))
			diff = m.Advice(c.accs.MultDiff, 0)
			return sel, length, diff
		})
		c.rMultLookup("balance mult "+side.name, func(m *plonkish.Meta) (sel, length, diff *plonkish.Expression) {
			sel = m.Fixed(c.position.QEnable, 0).Mul(m.Advice(side.row, 0))
			long := m.Advice(c.denote.Sel2, 0)
			length = not(long).
				Add(long.Mul(m.Advice(c.cMain.Bytes[0], 0).Sub(plonkish.Constant(rlpNil)).Add(one)))
			diff = m.Advice(c.denote.SModNodeHashRLC, 0)
			return sel, length, diff
		})
	}

	c.sys.CreateGate("account nonce balance cross", func(m *plonkish.Meta) []plonkish.Poly {
		cb := plonkish.NewBuilder(maxGateDegree)
		q := m.Fixed(c.position.QEnable, 0)
		isC := m.Advice(c.accountLeaf.IsNonceBalanceC, 0)

		cb.If(q.Mul(isC), func() {
			// the storage-codehash rows read the completed S pair here
			cb.RequireEqual("s acc carried",
				m.Advice(c.accs.AccS.RLC, 0), m.Advice(c.accs.AccS.RLC, rotNonceBalanceCToNonceBalS))
			cb.RequireEqual("s acc mult carried",
				m.Advice(c.accs.AccS.Mult, 0), m.Advice(c.accs.AccS.Mult, rotNonceBalanceCToNonceBalS))

			cb.If(m.Advice(c.proofType.IsNonceMod, 0), func() {
				cb.RequireEqual("nonce mod keeps balance",
					c.rlcOf(bytesExprs(m, &c.cMain, 0)),
					c.rlcOf(bytesExprs(m, &c.cMain, rotNonceBalanceCToNonceBalS)))
			})
			cb.If(m.Advice(c.proofType.IsBalanceMod, 0), func() {
				cb.RequireEqual("balance mod keeps nonce",
					c.rlcOf(bytesExprs(m, &c.sMain, 0)),
					c.rlcOf(bytesExprs(m, &c.sMain, rotNonceBalanceCToNonceBalS)))
			})
		})
		return cb.Polys()
	})

	nbSel := func(m *plonkish.Meta) *plonkish.Expression {
		return m.Fixed(c.position.QEnable, 0).Mul(plonkish.Sum(
			m.Advice(c.accountLeaf.IsNonceBalanceS, 0),
			m.Advice(c.accountLeaf.IsNonceBalanceC, 0)))
	}
	c.rangeLookups("account nonce balance byte", nbSel,
		append(c.sMain.payload(), c.cMain.payload()...), TagRange256)
}
