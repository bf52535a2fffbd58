// Package machine implements an instruction pointer's live state (C6), the
// per-tick step that drives it (C7), and the round-robin scheduler that owns
// funge-space and the set of live IPs (C8).
//
// Grounded on the teacher's lang/machine/thread.go and frame.go: the same
// shape (a reusable execution context carrying stdio, a call stack, and
// options resolved once at init()) generalized from one recursive-call-frame
// VM thread to one cooperatively-scheduled Funge-98 instruction pointer.
package machine

import (
	"io"

	"github.com/mna/funge98/lang/cell"
	"github.com/mna/funge98/lang/cursor"
	"github.com/mna/funge98/lang/fingerprint"
	"github.com/mna/funge98/lang/stack"
)

// IP is one instruction pointer's state (spec.md #4.4's Context): a cursor,
// a stack-stack, a storage offset, the string-mode latches, and a per-IP
// fingerprint dispatch stack. It is exclusively owned by the Interpreter
// that spawned it.
type IP struct {
	id    int
	owner *Interpreter

	cur           *cursor.Cursor
	stk           *stack.Stack
	storageOffset cell.Vector
	fp            *fingerprint.Dispatch

	stringMode   bool
	justSawSpace bool

	quit     bool
	quitCode int
	done     bool
}

// ID returns the IP's monotonic spawn-order identifier.
func (ip *IP) ID() int { return ip.id }

// Done reports whether this IP has terminated (via `@`, `q`, or being
// trapped with no reachable instruction).
func (ip *IP) Done() bool { return ip.done }

// QuitRequested reports whether this IP executed `q`, and if so the exit
// code it raised.
func (ip *IP) QuitRequested() (bool, int) { return ip.quit, ip.quitCode }

// fingerprint.Context and instr.Context implementation. IP borrows from its
// owning Interpreter for anything not part of its own per-IP state (spec.md
// #9: "break the cyclic fingerprint<->context reference with a borrow" --
// applied symmetrically here, the IP itself is only ever handed out by
// ephemeral reference during a single Handle call).

func (ip *IP) Push(v cell.Cell)           { ip.stk.Push(v) }
func (ip *IP) Pop() cell.Cell             { return ip.stk.Pop() }
func (ip *IP) Position() cell.Vector      { return ip.cur.Position() }
func (ip *IP) SetPosition(p cell.Vector)  { ip.cur.SetPosition(p) }
func (ip *IP) Direction() cell.Vector     { return ip.cur.Direction() }
func (ip *IP) SetDirection(d cell.Vector) { ip.cur.SetDirection(d) }
func (ip *IP) RotateLeft()                { ip.cur.RotateLeftZ() }
func (ip *IP) RotateRight()               { ip.cur.RotateRightZ() }
func (ip *IP) Get(addr cell.Vector) cell.Cell        { return ip.cur.Get(addr) }
func (ip *IP) Put(addr cell.Vector, v cell.Cell)     { ip.cur.Put(addr, v) }
func (ip *IP) StorageOffset() cell.Vector            { return ip.storageOffset }
func (ip *IP) SetStorageOffset(v cell.Vector)        { ip.storageOffset = v }
func (ip *IP) Reflect()                              { ip.cur.Reflect() }
func (ip *IP) Stack() fingerprint.Stack              { return ip.stk }
func (ip *IP) Fingerprints() *fingerprint.Dispatch    { return ip.fp }

func (ip *IP) Split() { ip.owner.split(ip) }

func (ip *IP) SetQuit(code int) {
	ip.quit = true
	ip.quitCode = code
	ip.done = true
}

func (ip *IP) Terminate() { ip.done = true }

func (ip *IP) Bounds() (min, max cell.Vector) { return ip.owner.space.Bounds() }
func (ip *IP) Args() []string                 { return ip.owner.opts.Args }
func (ip *IP) Env() []string                  { return ip.owner.opts.Env }
func (ip *IP) CellWidth() cell.Width          { return ip.owner.opts.CellWidth }
func (ip *IP) Dim() int                       { return ip.owner.opts.Dim }
func (ip *IP) NoConcurrent() bool             { return ip.owner.opts.NoConcurrent }

func (ip *IP) Stdin() io.Reader  { return ip.owner.stdin }
func (ip *IP) Stdout() io.Writer { return ip.owner.stdout }

func (ip *IP) LoadFile(path string, origin cell.Vector, binary bool) (cell.Vector, error) {
	return ip.owner.loadFile(path, origin, binary)
}

func (ip *IP) StoreFile(path string, from, to cell.Vector, linear bool) error {
	return ip.owner.storeFile(path, from, to, linear)
}

func (ip *IP) Warnf(format string, args ...any) { ip.owner.warnf(format, args...) }

// clone deep-copies this IP's state for `t` (split): a fresh cursor at the
// same position/direction, a copy of the stack-stack buffer, the same
// storage offset, and an independent fingerprint dispatch state (each
// fingerprint the parent has loaded is re-pushed, bumping its refcount,
// mirroring load-by-id semantics rather than sharing the parent's entries).
func (ip *IP) clone(newID int) *IP {
	child := &IP{
		id:            newID,
		owner:         ip.owner,
		cur:           cursor.New(ip.owner.space, ip.cur.Position(), ip.cur.Direction()),
		stk:           ip.stk.Clone(),
		storageOffset: ip.storageOffset,
		fp:            fingerprint.NewDispatch(ip.owner.registry),
	}
	ip.fp.CloneInto(child.fp)
	return child
}
