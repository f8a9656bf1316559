package plonkish

import (
	"strconv"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

type exprOp uint8

const (
	opConst exprOp = iota
	opQuery
	opSum
	opProd
	opScaled
	opNeg
)

// Expression is an immutable polynomial over table cells. Leaves are field
// constants and (column, rotation) queries; combinators never mutate their
// operands, so sub-expressions can be shared freely between gates.
type Expression struct {
	op    exprOp
	value fr.Element // constant, or the factor of a scaled node
	col   Column
	rot   int
	a, b  *Expression
}

// Constant returns the expression with the constant value c.
func Constant(c uint64) *Expression {
	var v fr.Element
	v.SetUint64(c)
	return &Expression{op: opConst, value: v}
}

// ConstantFr returns the expression with the constant field value c.
func ConstantFr(c fr.Element) *Expression {
	return &Expression{op: opConst, value: c}
}

func (e *Expression) Add(o *Expression) *Expression {
	return &Expression{op: opSum, a: e, b: o}
}

func (e *Expression) Sub(o *Expression) *Expression {
	return &Expression{op: opSum, a: e, b: o.Neg()}
}

func (e *Expression) Mul(o *Expression) *Expression {
	return &Expression{op: opProd, a: e, b: o}
}

func (e *Expression) Neg() *Expression {
	return &Expression{op: opNeg, a: e}
}

// Scale returns c * e.
func (e *Expression) Scale(c fr.Element) *Expression {
	return &Expression{op: opScaled, value: c, a: e}
}

// ScaleUint returns c * e.
func (e *Expression) ScaleUint(c uint64) *Expression {
	var v fr.Element
	v.SetUint64(c)
	return e.Scale(v)
}

// Sum folds the expressions into a single sum. It panics on an empty list.
func Sum(es ...*Expression) *Expression {
	if len(es) == 0 {
		panic("plonkish: sum of no expressions")
	}
	acc := es[0]
	for _, e := range es[1:] {
		acc = acc.Add(e)
	}
	return acc
}

// Degree returns the multiplicative degree of the expression, with queries
// counting as degree one.
func (e *Expression) Degree() int {
	switch e.op {
	case opConst:
		return 0
	case opQuery:
		return 1
	case opSum:
		return max(e.a.Degree(), e.b.Degree())
	case opProd:
		return e.a.Degree() + e.b.Degree()
	case opScaled, opNeg:
		return e.a.Degree()
	default:
		panic("plonkish: unknown expression op")
	}
}

// Eval evaluates the expression on row of t. Rotations wrap around the table
// height.
func (e *Expression) Eval(t *Assignment, row int) fr.Element {
	var res fr.Element
	switch e.op {
	case opConst:
		res = e.value
	case opQuery:
		res = t.cell(e.col, row+e.rot)
	case opSum:
		a := e.a.Eval(t, row)
		b := e.b.Eval(t, row)
		res.Add(&a, &b)
	case opProd:
		a := e.a.Eval(t, row)
		b := e.b.Eval(t, row)
		res.Mul(&a, &b)
	case opScaled:
		a := e.a.Eval(t, row)
		res.Mul(&a, &e.value)
	case opNeg:
		a := e.a.Eval(t, row)
		res.Neg(&a)
	default:
		panic("plonkish: unknown expression op")
	}
	return res
}

func (e *Expression) String() string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func (e *Expression) write(sb *strings.Builder) {
	switch e.op {
	case opConst:
		sb.WriteString(e.value.String())
	case opQuery:
		sb.WriteString(e.col.String())
		sb.WriteByte('@')
		sb.WriteString(strconv.Itoa(e.rot))
	case opSum:
		sb.WriteByte('(')
		e.a.write(sb)
		sb.WriteString(" + ")
		e.b.write(sb)
		sb.WriteByte(')')
	case opProd:
		sb.WriteByte('(')
		e.a.write(sb)
		sb.WriteString(" * ")
		e.b.write(sb)
		sb.WriteByte(')')
	case opScaled:
		sb.WriteString(e.value.String())
		sb.WriteString(" * ")
		e.a.write(sb)
	case opNeg:
		sb.WriteString("-(")
		e.a.write(sb)
		sb.WriteByte(')')
	}
}
