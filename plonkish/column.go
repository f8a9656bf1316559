package plonkish

import "strconv"

// ColumnKind distinguishes fixed columns, whose values are part of the
// circuit definition, from advice columns assigned per proof instance.
type ColumnKind uint8

const (
	Fixed ColumnKind = iota
	Advice
)

func (k ColumnKind) String() string {
	switch k {
	case Fixed:
		return "fixed"
	case Advice:
		return "advice"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Column identifies one column of the table. Columns are allocated by a
// System during configuration and are only meaningful for that System.
type Column struct {
	Kind  ColumnKind
	Index int
}

func (c Column) String() string {
	return c.Kind.String() + "[" + strconv.Itoa(c.Index) + "]"
}
