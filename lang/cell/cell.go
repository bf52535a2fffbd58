// Package cell implements the signed integer cell type and the 2D/3D
// integer vector that funge-space addresses and arithmetic instructions are
// built on.
package cell

import (
	"strconv"

	"golang.org/x/exp/constraints"
)

// Width selects the bit width of a Cell, chosen once at interpreter
// construction.
type Width int

const (
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

// Space is the logical "empty" cell value, shared by every cell width.
const Space Cell = 32

// Cell is a signed integer of the interpreter's configured width. Arithmetic
// on a Cell wraps around at that width regardless of the Go type (int64)
// used to store it; Wrap must be called after any operation that could
// overflow the configured width.
type Cell int64

// Wrap truncates c to the given width's wraparound semantics.
func (c Cell) Wrap(w Width) Cell {
	switch w {
	case Width16:
		return Cell(int16(c))
	case Width32:
		return Cell(int32(c))
	default:
		return c
	}
}

func (c Cell) String() string { return strconv.FormatInt(int64(c), 10) }

// Truth reports whether c is non-zero, the canonical boolean test used by
// `_`, `|` and `!`.
func (c Cell) Truth() bool { return c != 0 }

// Vector is a (x, y, z) triple of cell-typed integers. In 2D mode z is
// always 0.
type Vector struct {
	X, Y, Z Cell
}

func V2(x, y Cell) Vector       { return Vector{X: x, Y: y} }
func V3(x, y, z Cell) Vector    { return Vector{X: x, Y: y, Z: z} }
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}
func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}
func (v Vector) Mul(o Vector) Vector {
	return Vector{X: v.X * o.X, Y: v.Y * o.Y, Z: v.Z * o.Z}
}
func (v Vector) Scale(k Cell) Vector {
	return Vector{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}
func (v Vector) Negate() Vector { return Vector{X: -v.X, Y: -v.Y, Z: -v.Z} }
func (v Vector) IsZero() bool   { return v.X == 0 && v.Y == 0 && v.Z == 0 }
func (v Vector) Equal(o Vector) bool {
	return v.X == o.X && v.Y == o.Y && v.Z == o.Z
}

// Shr performs a component-wise arithmetic right-shift by n bits, used to
// turn a cell-address into a page-address.
func (v Vector) Shr(n uint) Vector {
	return Vector{X: v.X >> n, Y: v.Y >> n, Z: v.Z >> n}
}

// Mask applies a component-wise bitmask, used to extract a cell's
// in-page index from its address.
func (v Vector) Mask(m Cell) Vector {
	return Vector{X: v.X & m, Y: v.Y & m, Z: v.Z & m}
}

// Min returns the component-wise minimum of two vectors.
func Min(a, b Vector) Vector {
	return Vector{X: minC(a.X, b.X), Y: minC(a.Y, b.Y), Z: minC(a.Z, b.Z)}
}

// Max returns the component-wise maximum of two vectors.
func Max(a, b Vector) Vector {
	return Vector{X: maxC(a.X, b.X), Y: maxC(a.Y, b.Y), Z: maxC(a.Z, b.Z)}
}

func minC[T constraints.Integer](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func maxC[T constraints.Integer](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func (v Vector) String() string {
	return "(" + v.X.String() + "," + v.Y.String() + "," + v.Z.String() + ")"
}
