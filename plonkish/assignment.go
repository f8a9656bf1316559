package plonkish

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/zkevm/circuits/logger"
)

// Assignment is the value table of one proof instance: a dense matrix per
// column kind, with per-cell bookkeeping to catch conflicting writes.
// Unwritten cells read as zero.
type Assignment struct {
	sys    *System
	nbRows int

	fixed  [][]fr.Element
	advice [][]fr.Element

	fixedSet  []*bitset.BitSet
	adviceSet []*bitset.BitSet
}

// NewAssignment creates a zeroed table of nbRows rows and freezes the system.
func NewAssignment(sys *System, nbRows int) *Assignment {
	if nbRows <= 0 {
		panic("plonkish: assignment needs at least one row")
	}
	sys.freeze()

	a := &Assignment{
		sys:       sys,
		nbRows:    nbRows,
		fixed:     make([][]fr.Element, sys.NbFixed()),
		advice:    make([][]fr.Element, sys.NbAdvice()),
		fixedSet:  make([]*bitset.BitSet, sys.NbFixed()),
		adviceSet: make([]*bitset.BitSet, sys.NbAdvice()),
	}
	for i := range a.fixed {
		a.fixed[i] = make([]fr.Element, nbRows)
		a.fixedSet[i] = bitset.New(uint(nbRows))
	}
	for i := range a.advice {
		a.advice[i] = make([]fr.Element, nbRows)
		a.adviceSet[i] = bitset.New(uint(nbRows))
	}
	return a
}

func (a *Assignment) NbRows() int { return a.nbRows }

// AssignFixed writes v into fixed column c at row. Rewriting a cell with a
// different value panics; witness passes may overlap as long as they agree.
func (a *Assignment) AssignFixed(c Column, row int, v fr.Element) {
	if c.Kind != Fixed {
		panic("plonkish: AssignFixed on " + c.String())
	}
	a.set(a.fixed[c.Index], a.fixedSet[c.Index], c, row, v)
}

// AssignAdvice writes v into advice column c at row.
func (a *Assignment) AssignAdvice(c Column, row int, v fr.Element) {
	if c.Kind != Advice {
		panic("plonkish: AssignAdvice on " + c.String())
	}
	a.set(a.advice[c.Index], a.adviceSet[c.Index], c, row, v)
}

func (a *Assignment) set(col []fr.Element, set *bitset.BitSet, c Column, row int, v fr.Element) {
	if row < 0 || row >= a.nbRows {
		panic(fmt.Sprintf("plonkish: row %d out of range [0, %d)", row, a.nbRows))
	}
	if set.Test(uint(row)) && !col[row].Equal(&v) {
		panic(fmt.Sprintf("plonkish: cell %s[%d] (%s) assigned twice with different values",
			c, row, a.sys.ColumnName(c)))
	}
	col[row] = v
	set.Set(uint(row))
}

// Fixed reads fixed column c at row, wrapping the row around the table.
func (a *Assignment) Fixed(c Column, row int) fr.Element {
	if c.Kind != Fixed {
		panic("plonkish: Fixed read on " + c.String())
	}
	return a.cell(c, row)
}

// Advice reads advice column c at row, wrapping the row around the table.
func (a *Assignment) Advice(c Column, row int) fr.Element {
	if c.Kind != Advice {
		panic("plonkish: Advice read on " + c.String())
	}
	return a.cell(c, row)
}

func (a *Assignment) cell(c Column, row int) fr.Element {
	row = ((row % a.nbRows) + a.nbRows) % a.nbRows
	if c.Kind == Fixed {
		return a.fixed[c.Index][row]
	}
	return a.advice[c.Index][row]
}

// Complete reports how much of the table witness generation left untouched.
// Untouched cells are valid zeroes; the count is a debugging aid.
func (a *Assignment) Complete() {
	var nbFixed, nbAdvice uint
	for _, s := range a.fixedSet {
		nbFixed += s.Count()
	}
	for _, s := range a.adviceSet {
		nbAdvice += s.Count()
	}
	totalFixed := uint(len(a.fixed)) * uint(a.nbRows)
	totalAdvice := uint(len(a.advice)) * uint(a.nbRows)

	log := logger.Logger()
	log.Debug().
		Uint("fixed_unset", totalFixed-nbFixed).
		Uint("advice_unset", totalAdvice-nbAdvice).
		Int("rows", a.nbRows).
		Msg("assignment complete")
}
