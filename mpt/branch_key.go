package mpt

import (
	"github.com/zkevm/circuits/plonkish"
)

// configureBranchKey constrains the running key RLC carried on branch child
// rows. Each block extends the parent's (rlc, mult) with the modified-node
// nibble: under c16 parity the nibble lands in the high half of the next key
// byte (factor 16, multiplier unchanged), under c1 in the low half (the byte
// completes, multiplier advances by r). The chain restarts at the proof's
// first level and at the account/storage trie boundary. Extension blocks
// absorb their own nibbles through witness values checked in the extension
// chip's multiplier bookkeeping.
func (c *Config) configureBranchKey() {
	c.sys.CreateGate("branch key rlc", func(m *plonkish.Meta) []plonkish.Poly {
		cb := plonkish.NewBuilder(maxGateDegree)
		q := m.Fixed(c.position.QNotFirst, 0)
		isChild := m.Advice(c.branch.IsChild, 0)
		firstChild := isChild.Mul(m.Advice(c.branch.IsInit, rotFirstChildToInit))

		bi := c.branchInfo(m, rotFirstChildToInit)
		keyRLC := m.Advice(c.accs.Key.RLC, 0)
		keyMult := m.Advice(c.accs.Key.Mult, 0)
		nibble := m.Advice(c.branch.ModifiedNode, 0)
		nfl := m.Advice(c.position.NotFirstLevel, 0)
		marker := c.accountMarker(m, rotFirstChildToRowAbove)

		extend := func(prevRLC, prevMult *plonkish.Expression) {
			cb.If(bi.isC16(), func() {
				cb.RequireEqual("key rlc extends with high nibble",
					keyRLC, prevRLC.Add(nibble.ScaleUint(16).Mul(prevMult)))
				cb.RequireEqual("key mult unchanged on high nibble", keyMult, prevMult)
			})
			cb.If(bi.isC1(), func() {
				cb.RequireEqual("key rlc extends with low nibble",
					keyRLC, prevRLC.Add(nibble.Mul(prevMult)))
				cb.RequireEqual("key mult advances on low nibble",
					keyMult, prevMult.Scale(c.rPow(1)))
			})
		}

		cb.If(q.Mul(firstChild).Mul(not(bi.isExtension())), func() {
			cb.If(not(nfl), func() {
				extend(plonkish.Constant(0), one)
			})
			cb.If(nfl.Mul(marker), func() {
				extend(plonkish.Constant(0), one)
			})
			cb.If(nfl.Mul(not(marker)), func() {
				extend(m.Advice(c.accs.Key.RLC, rotFirstChildToParent),
					m.Advice(c.accs.Key.Mult, rotFirstChildToParent))
			})
		})

		cb.If(q.Mul(isChild).Mul(m.Advice(c.branch.IsChild, -1)), func() {
			cb.RequireEqual("key rlc constant across children",
				keyRLC, m.Advice(c.accs.Key.RLC, -1))
			cb.RequireEqual("key mult constant across children",
				keyMult, m.Advice(c.accs.Key.Mult, -1))
		})
		return cb.Polys()
	})
}
