package plonkish

import (
	"fmt"

	"github.com/zkevm/circuits/debug"
	"github.com/zkevm/circuits/logger"
)

// Poly is one named constraint polynomial of a gate; a satisfied assignment
// evaluates it to zero on every row.
type Poly struct {
	Name string
	E    *Expression
}

// Gate is a named set of constraint polynomials registered together.
type Gate struct {
	Name  string
	Loc   string // registration site
	Polys []Poly
}

// LookupPair is one (input, table) column pair of a lookup argument.
type LookupPair struct {
	Input *Expression
	Table *Expression
}

// Lookup is a lookup argument: on every row, the tuple of evaluated inputs
// must appear among the tuples the table expressions take over all rows.
type Lookup struct {
	Name  string
	Loc   string
	Pairs []LookupPair
}

// Meta is the query interface handed to gate and lookup builders.
type Meta struct {
	sys *System
}

// Advice returns the query of advice column c at the given rotation.
func (m *Meta) Advice(c Column, rot int) *Expression {
	if c.Kind != Advice {
		panic(fmt.Sprintf("plonkish: Advice query on %s column", c.Kind))
	}
	return &Expression{op: opQuery, col: c, rot: rot}
}

// Fixed returns the query of fixed column c at the given rotation.
func (m *Meta) Fixed(c Column, rot int) *Expression {
	if c.Kind != Fixed {
		panic(fmt.Sprintf("plonkish: Fixed query on %s column", c.Kind))
	}
	return &Expression{op: opQuery, col: c, rot: rot}
}

// System is the circuit layout: columns, gates and lookup arguments. It is
// mutable during configuration and freezes when the first Assignment is
// created; any mutation after that panics.
type System struct {
	fixedNames  []string
	adviceNames []string

	gates   []Gate
	lookups []Lookup

	frozen bool
}

func NewSystem() *System {
	return &System{}
}

// AddFixed allocates a fixed column.
func (s *System) AddFixed(name string) Column {
	s.mustBeOpen("add fixed column")
	s.fixedNames = append(s.fixedNames, name)
	return Column{Kind: Fixed, Index: len(s.fixedNames) - 1}
}

// AddAdvice allocates an advice column.
func (s *System) AddAdvice(name string) Column {
	s.mustBeOpen("add advice column")
	s.adviceNames = append(s.adviceNames, name)
	return Column{Kind: Advice, Index: len(s.adviceNames) - 1}
}

// ColumnName returns the name the column was allocated with.
func (s *System) ColumnName(c Column) string {
	switch c.Kind {
	case Fixed:
		return s.fixedNames[c.Index]
	default:
		return s.adviceNames[c.Index]
	}
}

// CreateGate registers the constraint polynomials build returns. The gate is
// active on every row; constraints gate themselves through selector factors.
func (s *System) CreateGate(name string, build func(*Meta) []Poly) {
	s.mustBeOpen("create gate")
	polys := build(&Meta{sys: s})
	s.gates = append(s.gates, Gate{Name: name, Loc: debug.Caller(1), Polys: polys})
}

// LookupAny registers a lookup argument with the pairs build returns.
func (s *System) LookupAny(name string, build func(*Meta) []LookupPair) {
	s.mustBeOpen("register lookup")
	pairs := build(&Meta{sys: s})
	s.lookups = append(s.lookups, Lookup{Name: name, Loc: debug.Caller(1), Pairs: pairs})
}

func (s *System) NbFixed() int   { return len(s.fixedNames) }
func (s *System) NbAdvice() int  { return len(s.adviceNames) }
func (s *System) NbGates() int   { return len(s.gates) }
func (s *System) NbLookups() int { return len(s.lookups) }

func (s *System) mustBeOpen(op string) {
	if s.frozen {
		panic("plonkish: cannot " + op + ", system is frozen (an assignment exists)")
	}
}

func (s *System) freeze() {
	if s.frozen {
		return
	}
	s.frozen = true

	nbPolys := 0
	for _, g := range s.gates {
		nbPolys += len(g.Polys)
	}
	log := logger.Logger()
	log.Debug().
		Int("fixed", len(s.fixedNames)).
		Int("advice", len(s.adviceNames)).
		Int("gates", len(s.gates)).
		Int("polys", nbPolys).
		Int("lookups", len(s.lookups)).
		Msg("constraint system frozen")
}
