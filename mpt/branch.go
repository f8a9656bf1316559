package mpt

import (
	"github.com/zkevm/circuits/plonkish"
)

// configureBranch constrains branch block structure: the init row's packed
// flags, the sixteen child rows (node index chain, nil/hash slot shape,
// modified-child bookkeeping) and the S/C accumulator folding of the branch
// encodings.
//
// A branch encoding is header || 17 slots, where a slot is either the single
// byte 128 (nil) or 160 || hash. The child rows fold header and the sixteen
// child slots; the final 128 value slot is appended by the hash lookups.
func (c *Config) configureBranch() {
	c.sys.CreateGate("branch init", func(m *plonkish.Meta) []plonkish.Poly {
		cb := plonkish.NewBuilder(maxGateDegree)
		q := m.Fixed(c.position.QEnable, 0)
		isInit := m.Advice(c.branch.IsInit, 0)
		bi := c.branchInfo(m, 0)

		cb.If(q.Mul(isInit), func() {
			initFlags := []struct {
				pos  int
				name string
			}{
				{isBranchSPlaceholderPos, "is_branch_s_placeholder"},
				{isBranchCPlaceholderPos, "is_branch_c_placeholder"},
				{extShortC16Pos, "ext_short_c16"},
				{extShortC1Pos, "ext_short_c1"},
				{extLongEvenC16Pos, "ext_long_even_c16"},
				{extLongEvenC1Pos, "ext_long_even_c1"},
				{extLongOddC16Pos, "ext_long_odd_c16"},
				{extLongOddC1Pos, "ext_long_odd_c1"},
				{isBranchC16Pos, "is_c16"},
				{isBranchC1Pos, "is_c1"},
				{isSTwoRLPBytesPos, "s_two_rlp_bytes"},
				{isSThreeRLPBytesPos, "s_three_rlp_bytes"},
				{isCTwoRLPBytesPos, "c_two_rlp_bytes"},
				{isCThreeRLPBytesPos, "c_three_rlp_bytes"},
				{extOneRLPBytePos, "ext_one_rlp_byte"},
				{extLongerThan55Pos, "ext_longer_than_55"},
			}
			for _, f := range initFlags {
				cb.RequireBoolean("bool check "+f.name, bi.flag(f.pos))
			}

			cb.RequireEqual("one key parity per block", bi.isC16().Add(bi.isC1()), one)
			cb.RequireBoolean("at most one extension form", bi.isExtension())

			for _, isS := range []bool{true, false} {
				side := "s"
				acc := c.accs.AccS
				if !isS {
					side = "c"
					acc = c.accs.AccC
				}
				hdr := bi.hdr(isS)
				accRLC := m.Advice(acc.RLC, 0)
				accMult := m.Advice(acc.Mult, 0)

				cb.RequireEqual("one header length per side "+side,
					bi.twoRLPBytes(isS).Add(bi.threeRLPBytes(isS)), one)

				cb.If(bi.twoRLPBytes(isS), func() {
					cb.RequireEqual("branch init acc "+side,
						accRLC, hdr[0].Add(hdr[1].Scale(c.rPow(1))))
					cb.RequireEqual("branch init acc mult "+side,
						accMult, plonkish.ConstantFr(c.rPow(2)))
				})
				cb.If(bi.threeRLPBytes(isS), func() {
					cb.RequireEqual("branch init acc "+side,
						accRLC, plonkish.Sum(hdr[0], hdr[1].Scale(c.rPow(1)), hdr[2].Scale(c.rPow(2))))
					cb.RequireEqual("branch init acc mult "+side,
						accMult, plonkish.ConstantFr(c.rPow(3)))
				})
			}
		})
		return cb.Polys()
	})

	c.sys.CreateGate("branch children", func(m *plonkish.Meta) []plonkish.Poly {
		cb := plonkish.NewBuilder(maxGateDegree)
		q := m.Fixed(c.position.QEnable, 0)
		isChild := m.Advice(c.branch.IsChild, 0)
		nodeIndex := m.Advice(c.branch.NodeIndex, 0)

		cb.If(q.Mul(isChild), func() {
			cb.If(m.Advice(c.branch.IsInit, -1), func() {
				cb.Require("first child has node index 0", nodeIndex)
			})
			cb.If(m.Advice(c.branch.IsChild, -1), func() {
				cb.RequireEqual("node index increments",
					nodeIndex, m.Advice(c.branch.NodeIndex, -1).Add(one))
				for _, col := range []struct {
					name string
					c    plonkish.Column
				}{
					{"modified_node", c.branch.ModifiedNode},
					{"sel1", c.denote.Sel1},
					{"sel2", c.denote.Sel2},
					{"s_mod_node_hash_rlc", c.denote.SModNodeHashRLC},
					{"c_mod_node_hash_rlc", c.denote.CModNodeHashRLC},
				} {
					cb.RequireEqual(col.name+" constant across children",
						m.Advice(col.c, 0), m.Advice(col.c, -1))
				}
			})
			// a child row not followed by another child closes the block
			cb.If(not(m.Advice(c.branch.IsChild, 1)), func() {
				cb.RequireEqual("last child has node index 15", nodeIndex, plonkish.Constant(15))
				cb.RequireEqual("last child is flagged", m.Advice(c.branch.IsLastChild, 0), one)
				mods := make([]*plonkish.Expression, branchChildren)
				for i := range mods {
					mods[i] = m.Advice(c.branch.IsModified, -i)
				}
				cb.RequireEqual("one modified child per block", plonkish.Sum(mods...), one)
			})
			cb.Require("is_modified only at modified node",
				m.Advice(c.branch.IsModified, 0).Mul(nodeIndex.Sub(m.Advice(c.branch.ModifiedNode, 0))))
		})

		cb.If(q, func() {
			isLast := m.Advice(c.branch.IsLastChild, 0)
			cb.Require("is_last_child only on children", isLast.Mul(not(isChild)))
			cb.Require("is_last_child only at node index 15",
				isLast.Mul(nodeIndex.Sub(plonkish.Constant(15))))
		})
		return cb.Polys()
	})

	c.sys.CreateGate("branch child slots", func(m *plonkish.Meta) []plonkish.Poly {
		cb := plonkish.NewBuilder(maxGateDegree)
		q := m.Fixed(c.position.QEnable, 0)
		isChild := m.Advice(c.branch.IsChild, 0)
		isModified := m.Advice(c.branch.IsModified, 0)

		cb.If(q.Mul(isChild), func() {
			for _, isS := range []bool{true, false} {
				side := "s"
				main := &c.sMain
				acc := c.accs.AccS
				sel := m.Advice(c.denote.Sel1, 0)
				modHash := m.Advice(c.denote.SModNodeHashRLC, 0)
				if !isS {
					side = "c"
					main = &c.cMain
					acc = c.accs.AccC
					sel = m.Advice(c.denote.Sel2, 0)
					modHash = m.Advice(c.denote.CModNodeHashRLC, 0)
				}
				rlp2 := m.Advice(main.RLP2, 0)
				bytes := bytesExprs(m, main, 0)
				isNil := not(rlp2.Scale(c.inv160))

				cb.Require("slot is nil or a hash "+side,
					rlp2.Mul(rlp2.Sub(plonkish.Constant(rlpHashPrefix))))

				accRLC := m.Advice(acc.RLC, 0)
				accMult := m.Advice(acc.Mult, 0)
				prevRLC := m.Advice(acc.RLC, -1)
				prevMult := m.Advice(acc.Mult, -1)

				cb.If(isNil, func() {
					cb.RequireEqual("nil slot marker "+side, bytes[0], plonkish.Constant(rlpNil))
					cb.Require("nil slot padding "+side, c.rlcOf(bytes[1:]))
					cb.RequireEqual("nil slot acc "+side,
						accRLC, prevRLC.Add(prevMult.ScaleUint(rlpNil)))
					cb.RequireEqual("nil slot acc mult "+side,
						accMult, prevMult.Scale(c.rPow(1)))
				})
				cb.If(not(isNil), func() {
					cb.RequireEqual("hash slot acc "+side,
						accRLC,
						c.foldFrom(prevRLC, prevMult,
							append([]*plonkish.Expression{plonkish.Constant(rlpHashPrefix)}, bytes...)...))
					cb.RequireEqual("hash slot acc mult "+side,
						accMult, prevMult.Scale(c.rPow(hashWidth+1)))
				})

				cb.If(isModified, func() {
					cb.RequireEqual("nil selector at modified node "+side, sel, isNil)
					cb.If(not(sel), func() {
						cb.RequireEqual("modified child hash rlc "+side, modHash, c.rlcOf(bytes))
					})
				})
			}

			// only the modified child differs between S and C
			cb.If(not(isModified), func() {
				cb.RequireEqual("untouched slot rlp equal",
					m.Advice(c.sMain.RLP2, 0), m.Advice(c.cMain.RLP2, 0))
				cb.RequireEqual("untouched slot bytes equal",
					c.rlcOf(bytesExprs(m, &c.sMain, 0)), c.rlcOf(bytesExprs(m, &c.cMain, 0)))
			})
		})
		return cb.Polys()
	})

	childSel := func(m *plonkish.Meta) *plonkish.Expression {
		return m.Fixed(c.position.QEnable, 0).Mul(m.Advice(c.branch.IsChild, 0))
	}
	initSel := func(m *plonkish.Meta) *plonkish.Expression {
		return m.Fixed(c.position.QEnable, 0).Mul(m.Advice(c.branch.IsInit, 0))
	}
	c.rangeLookups("branch child byte", childSel,
		append(c.sMain.payload(), c.cMain.payload()...), TagRange256)
	c.rangeLookups("branch node index", childSel,
		[]plonkish.Column{c.branch.NodeIndex, c.branch.ModifiedNode}, TagRange16)
	c.rangeLookups("branch init header byte", initSel,
		[]plonkish.Column{c.sMain.RLP1, c.sMain.RLP2, c.sMain.Bytes[0], c.sMain.Bytes[1], c.sMain.Bytes[2], c.sMain.Bytes[3]},
		TagRange256)
}
