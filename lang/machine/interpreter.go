package machine

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/mna/funge98/lang/cell"
	"github.com/mna/funge98/lang/cursor"
	"github.com/mna/funge98/lang/fingerprint"
	"github.com/mna/funge98/lang/instr"
	"github.com/mna/funge98/lang/space"
	"github.com/mna/funge98/lang/stack"
)

// Options configures an Interpreter, resolved once by New (mirroring the
// teacher's Thread.init() pattern of resolving public zero-value-or-default
// fields into private working state before executing).
type Options struct {
	// Dim is 2 or 3; 3 enables Trefunge98 and FF-as-z-advance during Load.
	Dim int
	// CellWidth selects 16/32/64-bit wraparound arithmetic.
	CellWidth cell.Width
	// Befunge93Only restricts the overlay to Base93 (no Base98/Trefunge98).
	Befunge93Only bool
	// NoConcurrent disables `t` (it reflects instead of splitting).
	NoConcurrent bool
	// Warnings enables diagnostics to Stderr for unknown instructions and
	// other undefined-edge conditions.
	Warnings bool
	// IncludeDirs is the search path for files read by `i`. `o` writes to the
	// path it is given and does not search IncludeDirs.
	IncludeDirs []string
	// Args and Env are surfaced to running programs via `y`.
	Args []string
	Env  []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// QuitError is returned by Run when the program executed `q`; Code is the
// exit code it raised.
type QuitError struct{ Code int }

func (e *QuitError) Error() string { return fmt.Sprintf("program quit with code %d", e.Code) }

// Interpreter owns funge-space, the fingerprint registry, the resolved
// options, and the live, ordered list of instruction pointers (spec.md
// #4.6's C8). One Interpreter is constructed per run.
type Interpreter struct {
	opts     Options
	space    *space.Space
	registry *fingerprint.Registry
	rng      *rand.Rand

	ips    []*IP
	nextID int

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// New returns an Interpreter ready to load and run a program under opts.
func New(opts Options) *Interpreter {
	if opts.Dim == 0 {
		opts.Dim = 2
	}
	if opts.CellWidth == 0 {
		opts.CellWidth = cell.Width32
	}
	interp := &Interpreter{
		opts:     opts,
		space:    space.New(opts.Dim),
		registry: fingerprint.NewRegistry(),
		rng:      rand.New(rand.NewSource(1)),
	}
	if opts.Stdin != nil {
		interp.stdin = opts.Stdin
	} else {
		interp.stdin = os.Stdin
	}
	if opts.Stdout != nil {
		interp.stdout = opts.Stdout
	} else {
		interp.stdout = os.Stdout
	}
	if opts.Stderr != nil {
		interp.stderr = opts.Stderr
	} else {
		interp.stderr = os.Stderr
	}
	instr.RegisterCore(interp.registry, interp.rng)
	return interp
}

// Space exposes the interpreter's funge-space, chiefly for tests.
func (in *Interpreter) Space() *space.Space { return in.space }

// Run loads src into funge-space at the origin and drives every IP to
// completion, returning the process exit code: 0 on a clean run with no `q`,
// or the operand of `q` if one was executed.
func (in *Interpreter) Run(src []byte) (int, error) {
	flags := space.LoadFlags{Binary: false}
	if _, err := in.space.Load(cell.Vector{}, newByteReader(src), flags); err != nil {
		return 1, fmt.Errorf("load source: %w", err)
	}

	root := in.spawn(cell.Vector{}, cell.V3(1, 0, 0))
	if err := instr.InstallCore(root.fp, in.opts.Befunge93Only, in.opts.Dim == 3); err != nil {
		return 1, fmt.Errorf("install core instruction set: %w", err)
	}

	code, err := in.drive()
	var qerr *QuitError
	if errors.As(err, &qerr) {
		return qerr.Code, nil
	}
	return code, err
}

func newByteReader(b []byte) io.Reader { return &byteReader{b: b} }

type byteReader struct {
	b   []byte
	pos int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}

func (in *Interpreter) spawn(pos, dir cell.Vector) *IP {
	in.nextID++
	ip := &IP{
		id:    in.nextID,
		owner: in,
		cur:   cursor.New(in.space, pos, dir),
		stk:   stack.New(),
		fp:    fingerprint.NewDispatch(in.registry),
	}
	in.ips = append(in.ips, ip)
	return ip
}

// split implements `t`: insert a reversed, one-step-advanced clone of ip
// immediately before ip in the live IP list, per spec.md #4.6.
func (in *Interpreter) split(ip *IP) {
	in.nextID++
	child := ip.clone(in.nextID)
	child.cur.Reflect()
	child.cur.Advance(false, true)

	idx := -1
	for i, v := range in.ips {
		if v == ip {
			idx = i
			break
		}
	}
	if idx < 0 {
		in.ips = append(in.ips, child)
		return
	}
	in.ips = append(in.ips, nil)
	copy(in.ips[idx+1:], in.ips[idx:])
	in.ips[idx] = child
}

// drive runs every live IP to completion in round-robin order (spec.md
// #4.6). Each full pass over the current IP list is one tick; a `t` inserts
// the child before the parent, and that child also runs during the same
// tick pass that spawned it (spec.md #4.6's "Order").
func (in *Interpreter) drive() (int, error) {
	for len(in.ips) > 0 {
		i := 0
		for i < len(in.ips) {
			before := len(in.ips)
			alive, err := in.runOne(i)
			if err != nil {
				return 1, err
			}
			if !alive {
				in.ips = append(in.ips[:i], in.ips[i+1:]...)
				continue
			}
			if len(in.ips) > before {
				// `t` inserted a child at i, pushing this IP to i+1; the child
				// still owes its one execution for the current tick.
				calive, cerr := in.runOne(i)
				if cerr != nil {
					return 1, cerr
				}
				if !calive {
					in.ips = append(in.ips[:i], in.ips[i+1:]...)
					continue
				}
				i += 2
				continue
			}
			i++
		}
	}
	return 0, nil
}

// runOne steps the IP at index i and translates a `q` quit request into a
// QuitError so drive can unwind immediately.
func (in *Interpreter) runOne(i int) (alive bool, err error) {
	ip := in.ips[i]
	alive, err = stepIP(ip)
	if err != nil {
		return false, err
	}
	if q, code := ip.QuitRequested(); q {
		return false, &QuitError{Code: code}
	}
	return alive, nil
}

func (in *Interpreter) loadFile(path string, origin cell.Vector, binary bool) (cell.Vector, error) {
	f, err := in.openInclude(path)
	if err != nil {
		return cell.Vector{}, err
	}
	defer f.Close()
	return in.space.Load(origin, f, space.LoadFlags{Binary: binary})
}

func (in *Interpreter) storeFile(path string, from, to cell.Vector, linear bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return in.space.Store(from, to, f, space.StoreFlags{Linear: linear})
}

func (in *Interpreter) openInclude(path string) (*os.File, error) {
	if f, err := os.Open(path); err == nil {
		return f, nil
	} else if !os.IsNotExist(err) && !filepath.IsAbs(path) {
		return nil, err
	}
	for _, dir := range in.opts.IncludeDirs {
		f, err := os.Open(filepath.Join(dir, path))
		if err == nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%s: not found in include path", path)
}

func (in *Interpreter) warnf(format string, args ...any) {
	if !in.opts.Warnings {
		return
	}
	fmt.Fprintf(in.stderr, format+"\n", args...)
}
