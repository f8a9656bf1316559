package plonkish

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func u64(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

// probe registers a gate with no constraints just to capture query
// expressions for direct evaluation.
func probe(sys *System, build func(m *Meta)) {
	sys.CreateGate("probe", func(m *Meta) []Poly {
		build(m)
		return nil
	})
}

func TestExpressionEval(t *testing.T) {
	assert := require.New(t)

	sys := NewSystem()
	a := sys.AddAdvice("a")
	b := sys.AddAdvice("b")
	var qa, qb *Expression
	probe(sys, func(m *Meta) {
		qa = m.Advice(a, 0)
		qb = m.Advice(b, 0)
	})

	asg := NewAssignment(sys, 4)
	for row := 0; row < 4; row++ {
		asg.AssignAdvice(a, row, u64(uint64(10+row)))
	}
	asg.AssignAdvice(b, 2, u64(7))

	check := func(e *Expression, row int, want fr.Element) {
		t.Helper()
		got := e.Eval(asg, row)
		assert.True(got.Equal(&want), "%s on row %d: got %s, want %s", e, row, got.String(), want.String())
	}

	check(qa, 2, u64(12))
	check(qa.Add(qb), 2, u64(19))
	check(qa.Sub(qb), 2, u64(5))
	check(qa.Mul(qb), 2, u64(84))
	check(qa.Scale(u64(3)), 1, u64(33))
	check(qa.ScaleUint(5), 1, u64(55))
	check(Sum(qa, qb, Constant(1)), 2, u64(20))
	check(Constant(9).Sub(Constant(9)), 0, fr.Element{})

	var negTen fr.Element
	negTen.SetUint64(10)
	negTen.Neg(&negTen)
	check(qa.Neg(), 0, negTen)

	// unassigned cells read as zero
	check(qb, 0, fr.Element{})
}

func TestExpressionRotationWraps(t *testing.T) {
	assert := require.New(t)

	sys := NewSystem()
	a := sys.AddAdvice("a")
	var prev, next, farBack *Expression
	probe(sys, func(m *Meta) {
		prev = m.Advice(a, -1)
		next = m.Advice(a, 1)
		farBack = m.Advice(a, -9)
	})

	asg := NewAssignment(sys, 4)
	for row := 0; row < 4; row++ {
		asg.AssignAdvice(a, row, u64(uint64(100+row)))
	}

	got := prev.Eval(asg, 0) // wraps to row 3
	want := u64(103)
	assert.True(got.Equal(&want))

	got = next.Eval(asg, 3) // wraps to row 0
	want = u64(100)
	assert.True(got.Equal(&want))

	got = farBack.Eval(asg, 1) // -8 == 0 mod 4
	want = u64(100)
	assert.True(got.Equal(&want))
}

func TestExpressionDegree(t *testing.T) {
	assert := require.New(t)

	sys := NewSystem()
	a := sys.AddAdvice("a")
	b := sys.AddAdvice("b")
	var qa, qb *Expression
	probe(sys, func(m *Meta) {
		qa = m.Advice(a, 0)
		qb = m.Advice(b, 0)
	})

	assert.Equal(0, Constant(3).Degree())
	assert.Equal(1, qa.Degree())
	assert.Equal(1, qa.Add(qb).Degree())
	assert.Equal(2, qa.Mul(qb).Degree())
	assert.Equal(2, qa.Mul(qb).Add(qa).Degree()) // sums keep the max
	assert.Equal(3, qa.Mul(qb).Mul(qa).Degree())
	assert.Equal(2, qa.Mul(qb).Scale(u64(5)).Degree())
	assert.Equal(1, qa.Neg().Degree())
	assert.Equal(1, qa.Sub(Constant(1)).Degree())
}

func TestSumRejectsEmptyList(t *testing.T) {
	require.Panics(t, func() { Sum() })
}
