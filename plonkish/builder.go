package plonkish

import "fmt"

// Builder accumulates the constraint polynomials of one gate under a stack of
// conditions. Every Require* is multiplied by the product of the conditions
// active at that point, which turns chip if/else structure into polynomial
// gating. Conditions are expected to evaluate to 0 or 1.
type Builder struct {
	conditions []*Expression
	polys      []Poly
	maxDegree  int
}

// NewBuilder returns a Builder validating every emitted polynomial against
// maxDegree. A maxDegree of 0 disables the check.
func NewBuilder(maxDegree int) *Builder {
	return &Builder{maxDegree: maxDegree}
}

// Condition returns the product of the active conditions, or nil when none
// are active.
func (b *Builder) Condition() *Expression {
	var acc *Expression
	for _, c := range b.conditions {
		if acc == nil {
			acc = c
		} else {
			acc = acc.Mul(c)
		}
	}
	return acc
}

// If runs body with cond pushed on the condition stack.
func (b *Builder) If(cond *Expression, body func()) {
	b.conditions = append(b.conditions, cond)
	body()
	b.conditions = b.conditions[:len(b.conditions)-1]
}

// IfElse runs then under cond and els under (1 - cond).
func (b *Builder) IfElse(cond *Expression, then, els func()) {
	b.If(cond, then)
	b.If(Constant(1).Sub(cond), els)
}

// Require appends the constraint e == 0 under the active conditions.
func (b *Builder) Require(name string, e *Expression) {
	if c := b.Condition(); c != nil {
		e = c.Mul(e)
	}
	if b.maxDegree > 0 {
		if d := e.Degree(); d > b.maxDegree {
			panic(fmt.Sprintf("plonkish: constraint %q has degree %d, max is %d", name, d, b.maxDegree))
		}
	}
	b.polys = append(b.polys, Poly{Name: name, E: e})
}

// RequireEqual appends the constraint a == b under the active conditions.
func (b *Builder) RequireEqual(name string, a, e *Expression) {
	b.Require(name, a.Sub(e))
}

// RequireBoolean appends the constraint e * (1 - e) == 0 under the active
// conditions.
func (b *Builder) RequireBoolean(name string, e *Expression) {
	b.Require(name, e.Mul(Constant(1).Sub(e)))
}

// Polys returns the accumulated constraint polynomials.
func (b *Builder) Polys() []Poly {
	return b.polys
}
