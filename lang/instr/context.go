// Package instr implements the built-in Funge-98 instruction set as three
// chained fingerprints — Base93, Base98 and Trefunge98 — installed into
// every IP's overlay stack at creation, per spec.md #4.5.
//
// Grounded on the teacher's lang/machine/opcode.go switch-dispatch table:
// the same "decode an op byte, switch on it, mutate an explicit operand
// stack" shape, generalized from a fixed bytecode instruction set to the
// open set of Funge-98 letters and the fingerprint dispatch contract.
package instr

import (
	"io"

	"github.com/mna/funge98/lang/cell"
	"github.com/mna/funge98/lang/fingerprint"
)

// Context is the engine-level access the core instruction set needs beyond
// the generic fingerprint.Context: spawning/quitting IPs, system info for
// `y`, and file I/O for `i`/`o`. Third-party fingerprints (TIMER, SOCK,
// REFC, TOYS, STRN, ORTH, MODU, BOOL, ROMA, NULL) are out of scope per
// spec.md #1 and only need the narrower fingerprint.Context.
type Context interface {
	fingerprint.Context

	// Split implements `t`: duplicate the current IP, reverse the copy's
	// direction, advance it one step, and insert it before the parent in the
	// scheduler's IP list.
	Split()
	// SetQuit implements `q`: raise a program-exit with the given code.
	SetQuit(code int)
	// Terminate implements `@`: mark this IP as done.
	Terminate()

	Bounds() (min, max cell.Vector)
	Args() []string
	Env() []string
	CellWidth() cell.Width
	Dim() int
	NoConcurrent() bool

	Stdin() io.Reader
	Stdout() io.Writer

	// LoadFile implements the read side of `i`, searching include
	// directories the way the interpreter was configured with -I.
	LoadFile(path string, origin cell.Vector, binary bool) (cell.Vector, error)
	// StoreFile implements the write side of `o`: it writes the box
	// [from, to) of funge-space to path.
	StoreFile(path string, from, to cell.Vector, linear bool) error

	// Warnf reports a diagnostic in --warnings mode; a nil-safe no-op
	// otherwise.
	Warnf(format string, args ...any)
}
