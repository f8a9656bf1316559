package mpt

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	assert := require.New(t)

	c := mustConfig(t)
	r := c.Randomness()
	want := frUint(defaultRandomness)
	assert.True(r.Equal(&want))

	assert.Positive(c.sys.NbFixed())
	assert.Positive(c.sys.NbAdvice())
	assert.Positive(c.sys.NbGates())
	assert.Positive(c.sys.NbLookups())
}

func TestWithRandomness(t *testing.T) {
	assert := require.New(t)

	var r fr.Element
	r.SetUint64(0x1f2e3d4c5b6a7988)
	c := mustConfig(t, WithRandomness(r))
	got := c.Randomness()
	assert.True(got.Equal(&r))

	// the power table follows the replaced randomness
	var want fr.Element
	want.Mul(&r, &r)
	p := c.rPow(2)
	assert.True(p.Equal(&want))

	_, err := NewConfig(WithRandomness(fr.Element{}))
	assert.Error(err)
}

func TestWithMinRows(t *testing.T) {
	assert := require.New(t)

	_, err := NewConfig(WithMinRows(-1))
	assert.Error(err)

	c := mustConfig(t, WithMinRows(2048))
	p := nonceFirstLevelProof(t)
	a, err := c.Assign(p)
	assert.NoError(err)
	assert.Equal(2048, a.NbRows())
}

func TestAssignRowCapacity(t *testing.T) {
	assert := require.New(t)

	// a short proof still gets enough rows for the fixed table
	c := mustConfig(t)
	p := nonceFirstLevelProof(t)
	a, err := c.Assign(p)
	assert.NoError(err)
	assert.Equal(fixedTableRows(), a.NbRows())
}
