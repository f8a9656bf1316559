package mpt

import (
	"github.com/zkevm/circuits/plonkish"
)

// configureBranchHashInParent ties a branch node to its parent. At the last
// child row the accumulated branch RLC, completed with the 128 of the empty
// 17th value slot, must appear in the keccak table next to the parent slot
// digest. At the first level the parent slot is the trie root column instead.
// Placeholder branches and extension blocks are excluded: a placeholder never
// existed in its trie, and an extension block hashes into its extension node
// which carries the parent link itself.
func (c *Config) configureBranchHashInParent() {
	for _, side := range [2]struct {
		name string
		isS  bool
		acc  AccumulatorPair
		mod  plonkish.Column
		root plonkish.Column
	}{
		{"s", true, c.accs.AccS, c.denote.SModNodeHashRLC, c.interStartRoot},
		{"c", false, c.accs.AccC, c.denote.CModNodeHashRLC, c.interFinalRoot},
	} {
		side := side
		c.keccakLookup("branch "+side.name+" in parent", func(m *plonkish.Meta) (sel, in, out *plonkish.Expression) {
			bi := c.branchInfo(m, rotLastChildToInit)
			sel = m.Fixed(c.position.QNotFirst, 0).
				Mul(m.Advice(c.branch.IsLastChild, 0)).
				Mul(m.Advice(c.position.NotFirstLevel, 0)).
				Mul(not(c.accountMarker(m, rotLastChildToRowAbove))).
				Mul(not(bi.isPlaceholder(side.isS))).
				Mul(not(bi.isExtension()))
			in = m.Advice(side.acc.RLC, 0).
				Add(m.Advice(side.acc.Mult, 0).ScaleUint(rlpNil))
			out = m.Advice(side.mod, rotLastChildToParentChild)
			return sel, in, out
		})

		c.keccakLookup("branch "+side.name+" in first level", func(m *plonkish.Meta) (sel, in, out *plonkish.Expression) {
			bi := c.branchInfo(m, rotLastChildToInit)
			sel = m.Fixed(c.position.QNotFirst, 0).
				Mul(m.Advice(c.branch.IsLastChild, 0)).
				Mul(not(m.Advice(c.position.NotFirstLevel, 0))).
				Mul(not(bi.isPlaceholder(side.isS))).
				Mul(not(bi.isExtension()))
			in = m.Advice(side.acc.RLC, 0).
				Add(m.Advice(side.acc.Mult, 0).ScaleUint(rlpNil))
			out = m.Advice(side.root, 0)
			return sel, in, out
		})
	}
}
