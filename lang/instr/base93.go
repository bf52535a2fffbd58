package instr

import (
	"bufio"
	"fmt"
	"math/rand"

	"github.com/mna/funge98/lang/cell"
	"github.com/mna/funge98/lang/fingerprint"
)

// base93ID identifies Base93. RegisterCore registers Base93 under this ID
// like any other fingerprint, so `(`/`)` can load and unload it by ID.
var base93ID = fingerprint.ParseID("B93")

// Base93 implements the Befunge-93 subset of the instruction set: digits,
// arithmetic, logic, cardinal/random movement, conditional branches,
// stack primitives, get/put and program termination. The `"` string-mode
// toggle is not handled here; the thread step intercepts it.
type Base93 struct {
	rng *rand.Rand
}

// NewBase93 returns the always-installed Befunge-93 instruction set.
func NewBase93(rng *rand.Rand) *Base93 { return &Base93{rng: rng} }

var _ fingerprint.Fingerprint = (*Base93)(nil)

func (b *Base93) ID() fingerprint.ID { return base93ID }
func (b *Base93) OnlySemantics() bool { return false }
func (b *Base93) Handles() (h [26]bool) { return h } // base set claims none of the letters A-Z

func (b *Base93) Handle(instr byte, ctx fingerprint.Context) (bool, error) {
	ec, ok := ctx.(Context)
	if !ok {
		return false, nil
	}

	switch {
	case instr >= '0' && instr <= '9':
		ec.Push(cell.Cell(instr - '0'))
		return true, nil
	}

	switch instr {
	case '+':
		y, x := ec.Pop(), ec.Pop()
		ec.Push((x + y).Wrap(ec.CellWidth()))
	case '-':
		y, x := ec.Pop(), ec.Pop()
		ec.Push((x - y).Wrap(ec.CellWidth()))
	case '*':
		y, x := ec.Pop(), ec.Pop()
		ec.Push((x * y).Wrap(ec.CellWidth()))
	case '/':
		y, x := ec.Pop(), ec.Pop()
		ec.Push(b.divide(ec, x, y))
	case '%':
		y, x := ec.Pop(), ec.Pop()
		ec.Push(b.modulo(ec, x, y))
	case '!':
		v := ec.Pop()
		if v.Truth() {
			ec.Push(0)
		} else {
			ec.Push(1)
		}
	case '`':
		y, x := ec.Pop(), ec.Pop()
		if x > y {
			ec.Push(1)
		} else {
			ec.Push(0)
		}
	case '>':
		ec.SetDirection(cell.V3(1, 0, 0))
	case '<':
		ec.SetDirection(cell.V3(-1, 0, 0))
	case '^':
		ec.SetDirection(cell.V3(0, -1, 0))
	case 'v':
		ec.SetDirection(cell.V3(0, 1, 0))
	case '?':
		dirs := []cell.Vector{{X: 1}, {X: -1}, {Y: -1}, {Y: 1}}
		ec.SetDirection(dirs[b.rng.Intn(len(dirs))])
	case '_':
		if ec.Pop().Truth() {
			ec.SetDirection(cell.V3(-1, 0, 0))
		} else {
			ec.SetDirection(cell.V3(1, 0, 0))
		}
	case '|':
		if ec.Pop().Truth() {
			ec.SetDirection(cell.V3(0, -1, 0))
		} else {
			ec.SetDirection(cell.V3(0, 1, 0))
		}
	case ':':
		v := ec.Pop()
		ec.Push(v)
		ec.Push(v)
	case '\\':
		y, x := ec.Pop(), ec.Pop()
		ec.Push(y)
		ec.Push(x)
	case '$':
		ec.Pop()
	case '.':
		fmt.Fprintf(ec.Stdout(), "%d ", int64(ec.Pop()))
	case ',':
		fmt.Fprintf(ec.Stdout(), "%c", byte(ec.Pop()))
	case '&':
		var v int64
		fmt.Fscan(bufio.NewReader(ec.Stdin()), &v)
		ec.Push(cell.Cell(v))
	case '~':
		var buf [1]byte
		if _, err := ec.Stdin().Read(buf[:]); err != nil {
			ec.Push(-1)
		} else {
			ec.Push(cell.Cell(buf[0]))
		}
	case '#':
		// trampoline: skip the next cell by stepping once raw (no space-skip),
		// the thread's normal per-tick Advance then moves past it onto the
		// instruction after that.
		ec.SetPosition(ec.Position().Add(ec.Direction()))
	case 'g':
		y, x := ec.Pop(), ec.Pop()
		off := ec.StorageOffset()
		ec.Push(ec.Get(cell.V3(x, y, 0).Add(off)))
	case 'p':
		y, x, v := ec.Pop(), ec.Pop(), ec.Pop()
		off := ec.StorageOffset()
		ec.Put(cell.V3(x, y, 0).Add(off), v)
	case '@':
		ec.Terminate()
	default:
		return false, nil
	}
	return true, nil
}

func (b *Base93) divide(ec Context, x, y cell.Cell) cell.Cell {
	if y != 0 {
		return (x / y).Wrap(ec.CellWidth())
	}
	return b.askUser(ec, "divide")
}

func (b *Base93) modulo(ec Context, x, y cell.Cell) cell.Cell {
	if y != 0 {
		return x % y
	}
	return b.askUser(ec, "modulo")
}

// askUser implements the classic Befunge-93 behavior for division/modulo by
// zero: prompt on stdout and read a replacement value from stdin, rather
// than silently substituting zero (that is Funge-98's Base98 behavior,
// which shadows this one when loaded).
func (b *Base93) askUser(ec Context, op string) cell.Cell {
	fmt.Fprintf(ec.Stdout(), "%s by zero, please supply a replacement value: ", op)
	var v int64
	fmt.Fscan(bufio.NewReader(ec.Stdin()), &v)
	return cell.Cell(v)
}
