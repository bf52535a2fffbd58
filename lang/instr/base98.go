package instr

import (
	"runtime"
	"time"

	"github.com/mna/funge98/lang/cell"
	"github.com/mna/funge98/lang/fingerprint"
)

var base98ID = fingerprint.ParseID("B98")

// Base98 layers the Funge-98-only instructions over Base93: the
// fetch-char/store-char pair, stack-stack block
// transfer, fingerprint load/unload, system info, file I/O, concurrency,
// and zero-safe division/modulo (which shadows Base93's ask-the-user
// behavior by virtue of being consulted first in the overlay stack).
type Base98 struct{}

func NewBase98() *Base98 { return &Base98{} }

var _ fingerprint.Fingerprint = (*Base98)(nil)

func (b *Base98) ID() fingerprint.ID   { return base98ID }
func (b *Base98) OnlySemantics() bool  { return false }
func (b *Base98) Handles() (h [26]bool) { return h }

func (b *Base98) Handle(instr byte, ctx fingerprint.Context) (bool, error) {
	ec, ok := ctx.(Context)
	if !ok {
		return false, nil
	}

	switch instr {
	case '/':
		y, x := ec.Pop(), ec.Pop()
		if y == 0 {
			ec.Push(0)
		} else {
			ec.Push((x / y).Wrap(ec.CellWidth()))
		}
	case '%':
		y, x := ec.Pop(), ec.Pop()
		if y == 0 {
			ec.Push(0)
		} else {
			ec.Push(x % y)
		}
	case 'z':
		// no-op
	case 'r':
		ec.SetDirection(ec.Direction().Negate())
	case '[':
		ec.RotateLeft()
	case ']':
		ec.RotateRight()
	case 'w':
		y, x := ec.Pop(), ec.Pop()
		switch {
		case x < y:
			ec.RotateLeft()
		case x > y:
			ec.RotateRight()
		}
	case 'x':
		y, x := ec.Pop(), ec.Pop()
		ec.SetDirection(cell.V3(x, y, ec.Direction().Z))
	case 'j':
		n := ec.Pop()
		jumpBy(ec, n)
	case 'k':
		b.iterate(ec)
	case '\'':
		p := ec.Position().Add(ec.Direction())
		ec.Push(ec.Get(p))
		ec.SetPosition(p)
	case 's':
		v := ec.Pop()
		p := ec.Position().Add(ec.Direction())
		ec.Put(p, v)
		ec.SetPosition(p)
	case 'q':
		ec.SetQuit(int(int64(ec.Pop())))
	case 'n':
		ec.Stack().ClearTop()
	case 'u':
		n := ec.Pop()
		if !ec.Stack().Transfer(int(n)) {
			ec.Reflect()
		}
	case '{':
		n := ec.Pop()
		newOff := ec.Position().Add(ec.Direction())
		ec.Stack().PushStack(int(n), newOff, ec.Dim())
		ec.SetStorageOffset(newOff)
	case '}':
		n := ec.Pop()
		off, ok := ec.Stack().PopStack(int(n), ec.Dim())
		if !ok {
			ec.Reflect()
		} else {
			ec.SetStorageOffset(off)
		}
	case '(':
		id := readFingerprintID(ec)
		ok, err := ec.Fingerprints().Push(id)
		if err != nil {
			return true, err
		}
		if !ok {
			ec.Reflect()
		} else {
			ec.Push(cell.Cell(id))
		}
	case ')':
		id := readFingerprintID(ec)
		ec.Fingerprints().Pop(id)
	case 'y':
		b.sysInfo(ec)
	case 'i':
		b.loadFile(ec)
	case 'o':
		b.storeFile(ec)
	case 't':
		if ec.NoConcurrent() {
			ec.Reflect()
		} else {
			ec.Split()
		}
	case 'l', 'm', 'h':
		// Trefunge-only; in 2D mode these are simply unhandled (reflect).
		return false, nil
	default:
		return false, nil
	}
	return true, nil
}

func jumpBy(ec Context, n cell.Cell) {
	d := ec.Direction()
	ec.SetPosition(ec.Position().Add(d.Scale(n)))
}

// iterate implements `k`: run the next instruction n times (0 means skip
// it without running). The skipped/repeated instruction is read once, at
// the position immediately following `k`; its own movement/dispatch
// effects, if it changes direction, apply to each repetition in turn,
// matching the common (if spec-ambiguous, see spec.md #9) Mycology-passing
// behavior of re-reading the cell content fresh on each iteration rather
// than caching the original opcode.
func (b *Base98) iterate(ec Context) {
	n := ec.Pop()
	if n == 0 {
		// skip one cell without executing it
		ec.SetPosition(ec.Position().Add(ec.Direction()))
		return
	}
	for i := cell.Cell(0); i < n; i++ {
		p := ec.Position().Add(ec.Direction())
		instrByte := byte(ec.Get(p))
		ec.SetPosition(p)
		if instrByte >= '0' && instrByte <= '9' {
			ec.Push(cell.Cell(instrByte - '0'))
			continue
		}
		if _, err := ec.Fingerprints().Execute(instrByte, ec); err != nil {
			return
		}
	}
}

func readFingerprintID(ec Context) fingerprint.ID {
	count := ec.Pop()
	var id fingerprint.ID
	for i := cell.Cell(0); i < count; i++ {
		id = id<<8 | fingerprint.ID(byte(ec.Pop()))
	}
	return id
}

func (b *Base98) sysInfo(ec Context) {
	min, max := ec.Bounds()
	args := ec.Args()
	env := ec.Env()

	// push environment strings (reverse order so popping yields them in
	// order), each 0-terminated, followed by a final 0.
	ec.Push(0)
	for i := len(env) - 1; i >= 0; i-- {
		pushString0(ec, env[i])
	}
	ec.Push(0)
	for i := len(args) - 1; i >= 0; i-- {
		pushString0(ec, args[i])
	}

	now := time.Now()
	ec.Push(cell.Cell(now.Year()-1900)*65536 + cell.Cell(int(now.Month()))*256 + cell.Cell(now.Day()))
	ec.Push(cell.Cell(now.Hour())*256*256 + cell.Cell(now.Minute())*256 + cell.Cell(now.Second()))

	sizes := ec.Stack().Sizes()
	ec.Push(cell.Cell(len(sizes)))
	for i := len(sizes) - 1; i >= 0; i-- {
		ec.Push(cell.Cell(sizes[i]))
	}

	ec.Push(min.X)
	ec.Push(min.Y)
	if ec.Dim() == 3 {
		ec.Push(min.Z)
	}
	ec.Push(max.X - min.X)
	ec.Push(max.Y - min.Y)
	if ec.Dim() == 3 {
		ec.Push(max.Z - min.Z)
	}

	off := ec.StorageOffset()
	ec.Push(off.X)
	ec.Push(off.Y)
	if ec.Dim() == 3 {
		ec.Push(off.Z)
	}
	d := ec.Direction()
	ec.Push(d.X)
	ec.Push(d.Y)
	if ec.Dim() == 3 {
		ec.Push(d.Z)
	}
	p := ec.Position()
	ec.Push(p.X)
	ec.Push(p.Y)
	if ec.Dim() == 3 {
		ec.Push(p.Z)
	}

	ec.Push(cell.Cell(len(args)))
	ec.Push(cell.Cell(1)) // team number, unused
	ec.Push(cell.Cell(runtime.NumCPU()))

	var width cell.Cell
	switch ec.CellWidth() {
	case cell.Width16:
		width = 2
	case cell.Width64:
		width = 8
	default:
		width = 4
	}
	ec.Push(width)
	ec.Push(cell.Cell('0'))      // behavior: always LF
	ec.Push(0)                   // id of this IP's fingerprint (unused placeholder)
	ec.Push(cell.Cell(ec.Dim()))
	var flags cell.Cell
	if !ec.NoConcurrent() {
		flags = 1
	}
	ec.Push(flags) // version/implementation flags: 1 when concurrent `t` is available
}

func pushString0(ec Context, s string) {
	ec.Push(0)
	for i := len(s) - 1; i >= 0; i-- {
		ec.Push(cell.Cell(s[i]))
	}
}

func (b *Base98) loadFile(ec Context) {
	va := ec.Pop()
	vo := ec.Pop()
	pathBytes := readCString(ec)

	origin := cell.V3(vo, 0, 0)
	binary := va&1 != 0
	size, err := ec.LoadFile(string(pathBytes), origin, binary)
	if err != nil {
		ec.Warnf("i: %s", err)
		ec.Reflect()
		return
	}
	ec.Push(size.X)
	ec.Push(size.Y)
	ec.Push(0)
}

func (b *Base98) storeFile(ec Context) {
	vb := ec.Pop()
	va := ec.Pop()
	pathBytes := readCString(ec)

	from := cell.V3(va, 0, 0)
	to := from.Add(cell.V3(vb, 1, 1))
	linear := true
	if err := ec.StoreFile(string(pathBytes), from, to, linear); err != nil {
		ec.Warnf("o: %s", err)
		ec.Reflect()
	}
}

func readCString(ec Context) []byte {
	var buf []byte
	for {
		v := ec.Pop()
		if v == 0 {
			break
		}
		buf = append(buf, byte(v))
	}
	return buf
}
