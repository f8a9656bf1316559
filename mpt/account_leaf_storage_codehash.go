package mpt

import (
	"github.com/zkevm/circuits/plonkish"
)

// configureAccountLeafStorageCodehash constrains the storage-codehash rows
// closing an account leaf. Both remaining body fields are 32-byte strings, so
// each row is 160 and the storage root in the s section, 160 and the code
// hash in the c section. Folding the 66 cells on top of the pair carried to
// the nonce-balance C row completes the account accumulator, which must then
// hash into the parent branch slot, or into the trie root when the account
// sits at the first level. A nil modified slot in the parent branch marks a
// missing account and skips the binding.
//
// Modification scope is pinned down here as well: a storage change keeps
// nonce, balance and code hash, and a code hash change keeps the storage
// root.
func (c *Config) configureAccountLeafStorageCodehash() {
	for _, side := range [2]struct {
		name   string
		row    plonkish.Column
		acc    AccumulatorPair
		sel    plonkish.Column
		mod    plonkish.Column
		root   plonkish.Column
		rotAcc int
		rotPar int
	}{
		{"s", c.accountLeaf.IsStorageCodehashS, c.accs.AccS, c.denote.Sel1,
			c.denote.SModNodeHashRLC, c.interStartRoot, rotCodehashSToAcc, rotCodehashSToParentChild},
		{"c", c.accountLeaf.IsStorageCodehashC, c.accs.AccC, c.denote.Sel2,
			c.denote.CModNodeHashRLC, c.interFinalRoot, rotCodehashCToAcc, rotCodehashCToParentChild},
	} {
		side := side
		c.sys.CreateGate("account storage codehash "+side.name, func(m *plonkish.Meta) []plonkish.Poly {
			cb := plonkish.NewBuilder(maxGateDegree)
			q := m.Fixed(c.position.QEnable, 0)

			cb.If(q.Mul(m.Advice(side.row, 0)), func() {
				cb.RequireEqual("storage root prefix",
					m.Advice(c.sMain.RLP2, 0), plonkish.Constant(rlpHashPrefix))
				cb.RequireEqual("code hash prefix",
					m.Advice(c.cMain.RLP2, 0), plonkish.Constant(rlpHashPrefix))

				cells := append([]*plonkish.Expression{plonkish.Constant(rlpHashPrefix)},
					bytesExprs(m, &c.sMain, 0)...)
				cells = append(cells, plonkish.Constant(rlpHashPrefix))
				cells = append(cells, bytesExprs(m, &c.cMain, 0)...)
				cb.RequireEqual("account acc complete",
					m.Advice(side.acc.RLC, 0),
					c.foldFrom(
						m.Advice(side.acc.RLC, side.rotAcc),
						m.Advice(side.acc.Mult, side.rotAcc),
						cells...))
			})
			return cb.Polys()
		})

		c.keccakLookup("account "+side.name+" in parent", func(m *plonkish.Meta) (sel, in, out *plonkish.Expression) {
			sel = m.Fixed(c.position.QNotFirst, 0).
				Mul(m.Advice(side.row, 0)).
				Mul(m.Advice(c.position.NotFirstLevel, 0)).
				Mul(not(m.Advice(side.sel, side.rotPar)))
			in = m.Advice(side.acc.RLC, 0)
			out = m.Advice(side.mod, side.rotPar)
			return sel, in, out
		})

		c.keccakLookup("account "+side.name+" in first level", func(m *plonkish.Meta) (sel, in, out *plonkish.Expression) {
			sel = m.Fixed(c.position.QNotFirst, 0).
				Mul(m.Advice(side.row, 0)).
				Mul(not(m.Advice(c.position.NotFirstLevel, 0)))
			in = m.Advice(side.acc.RLC, 0)
			out = m.Advice(side.root, 0)
			return sel, in, out
		})
	}

	c.sys.CreateGate("account modification scope", func(m *plonkish.Meta) []plonkish.Poly {
		cb := plonkish.NewBuilder(maxGateDegree)
		q := m.Fixed(c.position.QEnable, 0)
		isC := m.Advice(c.accountLeaf.IsStorageCodehashC, 0)

		cb.If(q.Mul(isC), func() {
			cb.If(m.Advice(c.proofType.IsStorageMod, 0), func() {
				cb.RequireEqual("storage mod keeps code hash",
					c.rlcOf(bytesExprs(m, &c.cMain, 0)),
					c.rlcOf(bytesExprs(m, &c.cMain, -1)))
				cb.RequireEqual("storage mod keeps nonce",
					c.rlcOf(bytesExprs(m, &c.sMain, rotCodehashCToNonceBalS)),
					c.rlcOf(bytesExprs(m, &c.sMain, rotCodehashCToNonceBalC)))
				cb.RequireEqual("storage mod keeps balance",
					c.rlcOf(bytesExprs(m, &c.cMain, rotCodehashCToNonceBalS)),
					c.rlcOf(bytesExprs(m, &c.cMain, rotCodehashCToNonceBalC)))
			})
			cb.If(m.Advice(c.proofType.IsCodeHashMod, 0), func() {
				cb.RequireEqual("code hash mod keeps storage root",
					c.rlcOf(bytesExprs(m, &c.sMain, 0)),
					c.rlcOf(bytesExprs(m, &c.sMain, -1)))
			})
		})
		return cb.Polys()
	})

	schSel := func(m *plonkish.Meta) *plonkish.Expression {
		return m.Fixed(c.position.QEnable, 0).Mul(plonkish.Sum(
			m.Advice(c.accountLeaf.IsStorageCodehashS, 0),
			m.Advice(c.accountLeaf.IsStorageCodehashC, 0)))
	}
	c.rangeLookups("account storage codehash byte", schSel,
		append(c.sMain.payload(), c.cMain.payload()...), TagRange256)
}
