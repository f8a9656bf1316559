package mpt

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/zkevm/circuits/plonkish"
)

// solve assigns a proof that must be well formed and reports whether the
// resulting tables satisfy the system.
func solve(tb testing.TB, c *Config, p *Proof) error {
	tb.Helper()
	a, err := c.Assign(p)
	require.NoError(tb, err)
	return c.IsSolved(a)
}

func TestProofsSolve(t *testing.T) {
	cases := []struct {
		name  string
		build func(testing.TB) *Proof
	}{
		{"nonce first level", nonceFirstLevelProof},
		{"balance under branch", balanceProof},
		{"balance under extension", balanceExtensionProof},
		{"storage slot", storageProof},
		{"non existing wrong leaf", func(tb testing.TB) *Proof { return nonExistingProof(tb, true) }},
		{"non existing nil slot", func(tb testing.TB) *Proof { return nonExistingProof(tb, false) }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert := require.New(t)
			c := mustConfig(t)
			assert.NoError(solve(t, c, tc.build(t)))
		})
	}
}

func TestSolvesUnderAlternateRandomness(t *testing.T) {
	assert := require.New(t)
	var r fr.Element
	r.SetUint64(0x1f2e3d4c5b6a7988)
	c := mustConfig(t, WithRandomness(r))
	assert.NoError(solve(t, c, storageProof(t)))
	assert.NoError(solve(t, c, nonExistingProof(t, true)))
}

func TestWrongFinalRootDetected(t *testing.T) {
	assert := require.New(t)
	c := mustConfig(t)
	p := balanceProof(t)
	p.FinalRoot[0] ^= 1

	err := solve(t, c, p)
	assert.Error(err)
	var nse *plonkish.NotSatisfiedError
	assert.ErrorAs(err, &nse)
	assert.Equal("branch c in first level", nse.Gate)
	assert.Equal(branchChildren, nse.Row) // last child row
}

func TestTamperedBalanceDetected(t *testing.T) {
	assert := require.New(t)
	c := mustConfig(t)
	p := balanceProof(t)
	// flip the low byte of the new balance on the nonce-balance C row; the
	// row stays well formed but the leaf no longer hashes into its parent
	p.Rows[branchRowsNum+accountNonceBalanceCInd][rowLen/2+rlpNum+1] ^= 1

	err := solve(t, c, p)
	assert.Error(err)
	var nse *plonkish.NotSatisfiedError
	assert.ErrorAs(err, &nse)
	assert.Equal("account c in parent", nse.Gate)
	assert.Equal(branchRowsNum+accountStorageCodehashCInd, nse.Row)
}

func TestMisdeclaredProofTypeDetected(t *testing.T) {
	assert := require.New(t)
	c := mustConfig(t)
	p := balanceProof(t)
	p.Type = ProofNonceChanged

	err := solve(t, c, p)
	assert.Error(err)
	var nse *plonkish.NotSatisfiedError
	assert.ErrorAs(err, &nse)
	assert.Equal("account nonce balance cross", nse.Gate)
	assert.Equal("nonce mod keeps balance", nse.Poly)
	assert.Equal(branchRowsNum+accountNonceBalanceCInd, nse.Row)
}

func TestNonExistingProofNeedsDistinctKeys(t *testing.T) {
	assert := require.New(t)
	c := mustConfig(t)
	p := nonExistingProof(t, true)

	// query the very account the path ends on; the wrong-leaf shape then has
	// nothing to separate and the nonzero key gadget cannot be satisfied
	path := crypto.Keccak256(fixtureAddress[:])
	neighbour := neighbourAddress(t, pathNibble(path, 0), fixtureAddress)
	p.Address = neighbour
	p.Rows[branchRowsNum+accountNonExistingInd] = nonExistingRow(crypto.Keccak256(neighbour[:]), true)

	err := solve(t, c, p)
	assert.Error(err)
	var nse *plonkish.NotSatisfiedError
	assert.ErrorAs(err, &nse)
	assert.Equal("account non existing", nse.Gate)
	assert.Equal("keys differ", nse.Poly)
}

func TestPlaceholderBranchSkipsParentBinding(t *testing.T) {
	assert := require.New(t)
	c := mustConfig(t)

	// a bogus start root is normally caught where the S branch hashes into
	// the trie root
	p := balanceProof(t)
	p.StartRoot[0] ^= 1
	err := solve(t, c, p)
	assert.Error(err)
	var nse *plonkish.NotSatisfiedError
	assert.ErrorAs(err, &nse)
	assert.Equal("branch s in first level", nse.Gate)
	assert.Equal(branchChildren, nse.Row)

	// flagging the S branch as a placeholder lifts that binding, so the
	// same corruption goes through
	p = balanceProof(t)
	p.StartRoot[0] ^= 1
	p.Rows[branchInitOffset][isBranchSPlaceholderPos] = 1
	assert.NoError(solve(t, c, p))
}

func TestNonExistingProofNeedsNilSlot(t *testing.T) {
	assert := require.New(t)
	c := mustConfig(t)
	p := nonExistingProof(t, true)
	// claim the nil-slot absence shape while the path ends in a leaf
	p.Rows[branchRowsNum+accountNonExistingInd][0] = 0

	err := solve(t, c, p)
	assert.Error(err)
	var nse *plonkish.NotSatisfiedError
	assert.ErrorAs(err, &nse)
	assert.Equal("account non existing", nse.Gate)
	assert.Equal("path ends in a nil slot", nse.Poly)
	assert.Equal(branchRowsNum+accountNonExistingInd, nse.Row)
}

func TestByteRangeLookupCatchesWraparound(t *testing.T) {
	assert := require.New(t)
	c := mustConfig(t)

	// lay out a single enabled row flagged as a drifted leaf and claim a
	// key cell of 300, which any byte-sized reading would truncate to 44
	a := plonkish.NewAssignment(c.sys, fixedTableRows())
	c.loadFixedTable(a)

	const row = 200
	a.AssignFixed(c.position.QEnable, row, fr.One())
	a.AssignAdvice(c.storageLeaf.IsInAddedBranch, row, fr.One())
	var wrapped fr.Element
	wrapped.SetUint64(300)
	a.AssignAdvice(c.sMain.Bytes[0], row, wrapped)
	a.Complete()

	err := c.IsSolved(a)
	assert.Error(err)
	var nse *plonkish.NotSatisfiedError
	assert.ErrorAs(err, &nse)
	assert.Equal("leaf key byte", nse.Gate)
	assert.Equal(row, nse.Row)
}

func TestAssignRejectsMalformedProofs(t *testing.T) {
	cases := []struct {
		name   string
		mangle func(*Proof)
	}{
		{"unknown proof type", func(p *Proof) { p.Type = 9 }},
		{"no rows", func(p *Proof) { p.Rows = nil }},
		{"short row", func(p *Proof) { p.Rows[0] = p.Rows[0][:rowLen] }},
		{"truncated branch block", func(p *Proof) { p.Rows = p.Rows[:5] }},
		{"unknown row type", func(p *Proof) { p.Rows[0][rowLen] = 42 }},
		{"misordered account block", func(p *Proof) {
			a := p.Rows[branchRowsNum+accountNonExistingInd]
			b := p.Rows[branchRowsNum+accountNonceBalanceSInd]
			a[rowLen], b[rowLen] = b[rowLen], a[rowLen]
		}},
	}
	c := mustConfig(t)
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert := require.New(t)
			p := balanceProof(t)
			tc.mangle(p)
			_, err := c.Assign(p)
			assert.ErrorIs(err, ErrWitness)
		})
	}
}
