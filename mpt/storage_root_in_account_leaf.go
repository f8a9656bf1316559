package mpt

import (
	"github.com/zkevm/circuits/plonkish"
)

// configureStorageRootInAccountLeaf binds the top of a storage trie to the
// storage root held in the account leaf above it. The account marker one row
// above the storage block selects these lookups in place of the usual
// parent-slot binding. Whatever node form sits at the top, branch, extension
// node or lone leaf, its completed accumulator must hash to the 32 root
// bytes on the account's storage-codehash row of the matching side.
func (c *Config) configureStorageRootInAccountLeaf() {
	rootRLC := func(m *plonkish.Meta, rot int) *plonkish.Expression {
		return c.rlcOf(bytesExprs(m, &c.sMain, rot))
	}

	for _, side := range [2]struct {
		name string
		isS  bool
	}{{"s", true}, {"c", false}} {
		side := side
		acc := c.accs.AccS
		rotBranch, rotExt, rotLeaf := rotStorageBranchToCodehashS, rotStorageExtSToCodehashS, rotLeafValueSToCodehashS
		extRow, leafRow := c.branch.IsExtS, c.storageLeaf.IsValueS
		rotExtInit, rotExtAbove, rotLeafAbove := rotExtSToInit, rotExtSToRowAbove, rotLeafValueSToRowAbove
		if !side.isS {
			acc = c.accs.AccC
			rotBranch, rotExt, rotLeaf = rotStorageBranchToCodehashC, rotStorageExtCToCodehashC, rotLeafValueCToCodehashC
			extRow, leafRow = c.branch.IsExtC, c.storageLeaf.IsValueC
			rotExtInit, rotExtAbove, rotLeafAbove = rotExtCToInit, rotExtCToRowAbove, rotLeafValueCToRowAbove
		}

		c.keccakLookup("branch "+side.name+" in storage root", func(m *plonkish.Meta) (sel, in, out *plonkish.Expression) {
			bi := c.branchInfo(m, rotLastChildToInit)
			sel = m.Fixed(c.position.QNotFirst, 0).
				Mul(m.Advice(c.branch.IsLastChild, 0)).
				Mul(c.accountMarker(m, rotLastChildToRowAbove)).
				Mul(not(bi.isPlaceholder(side.isS))).
				Mul(not(bi.isExtension()))
			in = m.Advice(acc.RLC, 0).
				Add(m.Advice(acc.Mult, 0).ScaleUint(rlpNil))
			out = rootRLC(m, rotBranch)
			return sel, in, out
		})

		c.keccakLookup("extension "+side.name+" in storage root", func(m *plonkish.Meta) (sel, in, out *plonkish.Expression) {
			bi := c.branchInfo(m, rotExtInit)
			sel = m.Fixed(c.position.QNotFirst, 0).
				Mul(m.Advice(extRow, 0)).
				Mul(bi.isExtension()).
				Mul(c.accountMarker(m, rotExtAbove)).
				Mul(not(bi.isPlaceholder(side.isS)))
			in = m.Advice(acc.RLC, 0)
			out = rootRLC(m, rotExt)
			return sel, in, out
		})

		c.keccakLookup("leaf "+side.name+" in storage root", func(m *plonkish.Meta) (sel, in, out *plonkish.Expression) {
			sel = m.Fixed(c.position.QNotFirst, 0).
				Mul(m.Advice(leafRow, 0)).
				Mul(c.accountMarker(m, rotLeafAbove))
			in = m.Advice(c.accs.AccS.RLC, 0)
			out = rootRLC(m, rotLeaf)
			return sel, in, out
		})
	}
}
