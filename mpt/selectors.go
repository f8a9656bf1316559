package mpt

import (
	"github.com/zkevm/circuits/plonkish"
)

// configureSelectors constrains the row-role flags: every flag is boolean,
// each enabled row carries exactly one role, extension rows sit where the
// block shape puts them, and the proof-type discriminant matches its flags.
func (c *Config) configureSelectors() {
	c.sys.CreateGate("selectors", func(m *plonkish.Meta) []plonkish.Poly {
		cb := plonkish.NewBuilder(maxGateDegree)
		q := m.Fixed(c.position.QEnable, 0)

		roles := []struct {
			name string
			col  plonkish.Column
		}{
			{"is_branch_init", c.branch.IsInit},
			{"is_branch_child", c.branch.IsChild},
			{"is_ext_s", c.branch.IsExtS},
			{"is_ext_c", c.branch.IsExtC},
			{"is_leaf_key_s", c.storageLeaf.IsKeyS},
			{"is_leaf_value_s", c.storageLeaf.IsValueS},
			{"is_leaf_key_c", c.storageLeaf.IsKeyC},
			{"is_leaf_value_c", c.storageLeaf.IsValueC},
			{"is_leaf_in_added_branch", c.storageLeaf.IsInAddedBranch},
			{"is_account_key_s", c.accountLeaf.IsKeyS},
			{"is_account_key_c", c.accountLeaf.IsKeyC},
			{"is_account_non_existing", c.accountLeaf.IsNonExisting},
			{"is_account_nonce_balance_s", c.accountLeaf.IsNonceBalanceS},
			{"is_account_nonce_balance_c", c.accountLeaf.IsNonceBalanceC},
			{"is_account_storage_codehash_s", c.accountLeaf.IsStorageCodehashS},
			{"is_account_storage_codehash_c", c.accountLeaf.IsStorageCodehashC},
			{"is_account_in_added_branch", c.accountLeaf.IsInAddedBranch},
		}

		cb.If(q, func() {
			var roleSum *plonkish.Expression
			for _, role := range roles {
				e := m.Advice(role.col, 0)
				cb.RequireBoolean("bool check "+role.name, e)
				if roleSum == nil {
					roleSum = e
				} else {
					roleSum = roleSum.Add(e)
				}
			}
			cb.RequireEqual("each row has one role", roleSum, one)

			for _, b := range []struct {
				name string
				col  plonkish.Column
			}{
				{"not_first_level", c.position.NotFirstLevel},
				{"is_last_branch_child", c.branch.IsLastChild},
				{"is_modified", c.branch.IsModified},
				{"sel1", c.denote.Sel1},
				{"sel2", c.denote.Sel2},
				{"is_long_leaf", c.storageLeaf.IsLong},
			} {
				cb.RequireBoolean("bool check "+b.name, m.Advice(b.col, 0))
			}

			// the numeric proof type is bound to exactly its flag
			var flagSum, weighted *plonkish.Expression
			for i, col := range c.proofType.flags() {
				f := m.Advice(col, 0)
				cb.RequireBoolean("bool check proof type flag", f)
				w := f.ScaleUint(uint64(i + 1))
				if flagSum == nil {
					flagSum, weighted = f, w
				} else {
					flagSum = flagSum.Add(f)
					weighted = weighted.Add(w)
				}
			}
			cb.RequireBoolean("at most one proof type", flagSum)
			cb.RequireEqual("proof type value", m.Advice(c.proofType.ProofType, 0), weighted)

			// every branch block closes with its two extension rows,
			// zero-filled when the block is not an extension
			cb.If(m.Advice(c.branch.IsExtS, 0), func() {
				cb.RequireEqual("ext s follows the last child",
					m.Advice(c.branch.IsLastChild, -1), one)
			})
			cb.If(m.Advice(c.branch.IsExtC, 0), func() {
				cb.RequireEqual("ext c follows ext s",
					m.Advice(c.branch.IsExtS, -1), one)
			})
			cb.If(m.Advice(c.branch.IsLastChild, 0), func() {
				cb.RequireEqual("last child precedes ext s",
					m.Advice(c.branch.IsExtS, 1), one)
				cb.RequireEqual("last child precedes ext c",
					m.Advice(c.branch.IsExtC, 2), one)
			})
		})
		return cb.Polys()
	})

	// per-proof values hold steady down the rows, and a path never climbs
	// back to the first level
	c.sys.CreateGate("proof chain", func(m *plonkish.Meta) []plonkish.Poly {
		cb := plonkish.NewBuilder(maxGateDegree)
		q := m.Fixed(c.position.QNotFirst, 0)

		cb.If(q, func() {
			for _, col := range []struct {
				name string
				c    plonkish.Column
			}{
				{"start root", c.interStartRoot},
				{"final root", c.interFinalRoot},
				{"address rlc", c.addressRLC},
				{"proof type", c.proofType.ProofType},
			} {
				cb.RequireEqual(col.name+" constant down the proof",
					m.Advice(col.c, 0), m.Advice(col.c, -1))
			}
			cb.Require("not_first_level never resets",
				m.Advice(c.position.NotFirstLevel, -1).
					Mul(not(m.Advice(c.position.NotFirstLevel, 0))))
		})
		return cb.Polys()
	})
}
