package plonkish

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderGatesConstraints(t *testing.T) {
	assert := require.New(t)

	sys := NewSystem()
	sel := sys.AddAdvice("sel")
	a := sys.AddAdvice("a")
	b := sys.AddAdvice("b")

	var polys []Poly
	sys.CreateGate("gated equality", func(m *Meta) []Poly {
		cb := NewBuilder(0)
		cb.If(m.Advice(sel, 0), func() {
			cb.RequireEqual("a matches b", m.Advice(a, 0), m.Advice(b, 0))
		})
		polys = cb.Polys()
		return polys
	})
	assert.Len(polys, 1)

	asg := NewAssignment(sys, 3)
	// row 0: condition off, values differ
	asg.AssignAdvice(a, 0, u64(3))
	asg.AssignAdvice(b, 0, u64(9))
	// row 1: condition on, values agree
	asg.AssignAdvice(sel, 1, u64(1))
	asg.AssignAdvice(a, 1, u64(5))
	asg.AssignAdvice(b, 1, u64(5))
	// row 2: condition on, values differ
	asg.AssignAdvice(sel, 2, u64(1))
	asg.AssignAdvice(a, 2, u64(5))
	asg.AssignAdvice(b, 2, u64(6))

	v := polys[0].E.Eval(asg, 0)
	assert.True(v.IsZero())
	v = polys[0].E.Eval(asg, 1)
	assert.True(v.IsZero())
	v = polys[0].E.Eval(asg, 2)
	assert.False(v.IsZero())
}

func TestBuilderNestedConditionsMultiply(t *testing.T) {
	assert := require.New(t)

	sys := NewSystem()
	f1 := sys.AddAdvice("f1")
	f2 := sys.AddAdvice("f2")
	a := sys.AddAdvice("a")

	var polys []Poly
	sys.CreateGate("doubly gated", func(m *Meta) []Poly {
		cb := NewBuilder(0)
		cb.If(m.Advice(f1, 0), func() {
			cb.If(m.Advice(f2, 0), func() {
				cb.RequireEqual("a is one", m.Advice(a, 0), Constant(1))
			})
		})
		polys = cb.Polys()
		return polys
	})

	asg := NewAssignment(sys, 3)
	// row 0: only the outer flag, a violates
	asg.AssignAdvice(f1, 0, u64(1))
	asg.AssignAdvice(a, 0, u64(7))
	// row 1: both flags, a violates
	asg.AssignAdvice(f1, 1, u64(1))
	asg.AssignAdvice(f2, 1, u64(1))
	asg.AssignAdvice(a, 1, u64(7))

	v := polys[0].E.Eval(asg, 0)
	assert.True(v.IsZero())
	v = polys[0].E.Eval(asg, 1)
	assert.False(v.IsZero())
}

func TestBuilderIfElse(t *testing.T) {
	assert := require.New(t)

	sys := NewSystem()
	cond := sys.AddAdvice("cond")
	a := sys.AddAdvice("a")

	var polys []Poly
	sys.CreateGate("two sided", func(m *Meta) []Poly {
		cb := NewBuilder(0)
		cb.IfElse(m.Advice(cond, 0),
			func() { cb.RequireEqual("a is one", m.Advice(a, 0), Constant(1)) },
			func() { cb.RequireEqual("a is two", m.Advice(a, 0), Constant(2)) })
		polys = cb.Polys()
		return polys
	})
	assert.Len(polys, 2)

	asg := NewAssignment(sys, 2)
	asg.AssignAdvice(cond, 0, u64(1))
	asg.AssignAdvice(a, 0, u64(1))
	asg.AssignAdvice(a, 1, u64(2)) // cond stays zero

	for row := 0; row < 2; row++ {
		for _, p := range polys {
			v := p.E.Eval(asg, row)
			assert.True(v.IsZero(), "%s on row %d", p.Name, row)
		}
	}

	// flipping the branch values violates exactly the active side
	bad := NewAssignment(sys, 2)
	bad.AssignAdvice(cond, 0, u64(1))
	bad.AssignAdvice(a, 0, u64(2))
	v := polys[0].E.Eval(bad, 0)
	assert.False(v.IsZero())
	v = polys[1].E.Eval(bad, 0)
	assert.True(v.IsZero())
}

func TestRequireBoolean(t *testing.T) {
	assert := require.New(t)

	sys := NewSystem()
	a := sys.AddAdvice("a")

	var polys []Poly
	sys.CreateGate("boolean", func(m *Meta) []Poly {
		cb := NewBuilder(0)
		cb.RequireBoolean("a is a bit", m.Advice(a, 0))
		polys = cb.Polys()
		return polys
	})

	asg := NewAssignment(sys, 3)
	asg.AssignAdvice(a, 1, u64(1))
	asg.AssignAdvice(a, 2, u64(2))

	v := polys[0].E.Eval(asg, 0)
	assert.True(v.IsZero())
	v = polys[0].E.Eval(asg, 1)
	assert.True(v.IsZero())
	v = polys[0].E.Eval(asg, 2)
	assert.False(v.IsZero())
}

func TestBuilderDegreeCap(t *testing.T) {
	assert := require.New(t)

	sys := NewSystem()
	a := sys.AddAdvice("a")

	assert.Panics(func() {
		sys.CreateGate("too wide", func(m *Meta) []Poly {
			cb := NewBuilder(2)
			q := m.Advice(a, 0)
			cb.Require("cube", q.Mul(q).Mul(q))
			return cb.Polys()
		})
	})

	// an unlimited builder takes the same constraint
	sys2 := NewSystem()
	b := sys2.AddAdvice("b")
	sys2.CreateGate("wide", func(m *Meta) []Poly {
		cb := NewBuilder(0)
		q := m.Advice(b, 0)
		cb.Require("cube", q.Mul(q).Mul(q))
		return cb.Polys()
	})
}

func TestBuilderConditionOutsideIf(t *testing.T) {
	require.Nil(t, NewBuilder(0).Condition())
}
