// Package plonkish implements a minimal PLONKish constraint system in the
// halo2 style: a rectangular table of fixed and advice columns, polynomial
// gates over cells addressed by (column, relative rotation), and lookup
// arguments checking input tuples for membership in table tuples.
//
// A System is built once during a configuration phase (column allocation,
// gate and lookup registration) and freezes when the first Assignment is
// created. Assignments are per-instance value tables; IsSolved checks one
// against every registered gate and lookup and stands in for the proving
// system during development and tests.
//
// The package is concrete over the BN254 scalar field.
package plonkish
