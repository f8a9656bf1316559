package plonkish

import (
	"fmt"
	"runtime"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/sync/errgroup"
)

// NotSatisfiedError reports a gate polynomial or lookup the assignment fails,
// with the row it fails on.
type NotSatisfiedError struct {
	Gate string // gate or lookup name
	Poly string // polynomial name within the gate; empty for lookups
	Row  int
	Loc  string // registration site
}

func (e *NotSatisfiedError) Error() string {
	if e.Poly == "" {
		return fmt.Sprintf("lookup %q not satisfied on row %d (registered at %s)", e.Gate, e.Row, e.Loc)
	}
	return fmt.Sprintf("gate %q constraint %q not satisfied on row %d (registered at %s)", e.Gate, e.Poly, e.Row, e.Loc)
}

// IsSolved checks the assignment against every gate and lookup of the system.
// It returns nil when all constraints hold and a *NotSatisfiedError
// otherwise. Gates and lookups are checked in parallel, so when several fail
// the reported one is not deterministic.
func (s *System) IsSolved(a *Assignment) error {
	if a.sys != s {
		panic("plonkish: assignment belongs to a different system")
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for i := range s.gates {
		gate := &s.gates[i]
		g.Go(func() error { return checkGate(gate, a) })
	}
	for i := range s.lookups {
		lk := &s.lookups[i]
		g.Go(func() error { return checkLookup(lk, a) })
	}
	return g.Wait()
}

func checkGate(gate *Gate, a *Assignment) error {
	for row := 0; row < a.nbRows; row++ {
		for j := range gate.Polys {
			if v := gate.Polys[j].E.Eval(a, row); !v.IsZero() {
				return &NotSatisfiedError{
					Gate: gate.Name,
					Poly: gate.Polys[j].Name,
					Row:  row,
					Loc:  gate.Loc,
				}
			}
		}
	}
	return nil
}

func checkLookup(lk *Lookup, a *Assignment) error {
	// collect the table side first, tuples keyed by their concatenated
	// big-endian byte representation
	table := make(map[string]struct{}, a.nbRows)
	buf := make([]byte, 0, len(lk.Pairs)*fr.Bytes)
	for row := 0; row < a.nbRows; row++ {
		buf = buf[:0]
		for _, p := range lk.Pairs {
			v := p.Table.Eval(a, row)
			b := v.Bytes()
			buf = append(buf, b[:]...)
		}
		table[string(buf)] = struct{}{}
	}

	for row := 0; row < a.nbRows; row++ {
		buf = buf[:0]
		for _, p := range lk.Pairs {
			v := p.Input.Eval(a, row)
			b := v.Bytes()
			buf = append(buf, b[:]...)
		}
		if _, ok := table[string(buf)]; !ok {
			return &NotSatisfiedError{Gate: lk.Name, Row: row, Loc: lk.Loc}
		}
	}
	return nil
}
