package instr_test

import (
	"bytes"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/funge98/lang/cell"
	"github.com/mna/funge98/lang/fingerprint"
	"github.com/mna/funge98/lang/instr"
	"github.com/mna/funge98/lang/space"
	"github.com/mna/funge98/lang/stack"
)

// testIP is a minimal, deliberately simple instr.Context used to exercise
// the Base93/Base98/Trefunge98 fingerprints without going through the
// machine package's scheduler.
type testIP struct {
	sp  *space.Space
	stk *stack.Stack
	fp  *fingerprint.Dispatch

	pos, dir, off cell.Vector
	reflected     bool

	dim          int
	cellWidth    cell.Width
	noConcurrent bool
	args, env    []string

	stdin  *strings.Reader
	stdout *bytes.Buffer

	split      bool
	quitCode   int
	quitCalled bool
	terminated bool
}

func newTestIP(dim int) *testIP {
	return &testIP{
		sp:        space.New(dim),
		stk:       stack.New(),
		dim:       dim,
		cellWidth: cell.Width32,
		stdin:     strings.NewReader(""),
		stdout:    &bytes.Buffer{},
	}
}

func (t *testIP) Push(v cell.Cell)     { t.stk.Push(v) }
func (t *testIP) Pop() cell.Cell       { return t.stk.Pop() }
func (t *testIP) Position() cell.Vector       { return t.pos }
func (t *testIP) SetPosition(p cell.Vector)   { t.pos = p }
func (t *testIP) Direction() cell.Vector       { return t.dir }
func (t *testIP) SetDirection(d cell.Vector)   { t.dir = d }
func (t *testIP) RotateLeft()  { t.dir = cell.V3(t.dir.Y, -t.dir.X, t.dir.Z) }
func (t *testIP) RotateRight() { t.dir = cell.V3(-t.dir.Y, t.dir.X, t.dir.Z) }
func (t *testIP) Get(p cell.Vector) cell.Cell        { return t.sp.Get(p) }
func (t *testIP) Put(p cell.Vector, v cell.Cell)     { t.sp.Put(p, v) }
func (t *testIP) StorageOffset() cell.Vector         { return t.off }
func (t *testIP) SetStorageOffset(o cell.Vector)     { t.off = o }
func (t *testIP) Reflect()                           { t.reflected = true }
func (t *testIP) Stack() fingerprint.Stack            { return t.stk }
func (t *testIP) Fingerprints() *fingerprint.Dispatch { return t.fp }

func (t *testIP) Split()          { t.split = true }
func (t *testIP) SetQuit(code int) { t.quitCalled = true; t.quitCode = code }
func (t *testIP) Terminate()       { t.terminated = true }

func (t *testIP) Bounds() (min, max cell.Vector) { return t.sp.Bounds() }
func (t *testIP) Args() []string                 { return t.args }
func (t *testIP) Env() []string                  { return t.env }
func (t *testIP) CellWidth() cell.Width          { return t.cellWidth }
func (t *testIP) Dim() int                       { return t.dim }
func (t *testIP) NoConcurrent() bool             { return t.noConcurrent }

func (t *testIP) Stdin() io.Reader  { return t.stdin }
func (t *testIP) Stdout() io.Writer { return t.stdout }

func (t *testIP) LoadFile(path string, origin cell.Vector, binary bool) (cell.Vector, error) {
	return cell.Vector{}, nil
}
func (t *testIP) StoreFile(path string, from, to cell.Vector, linear bool) error { return nil }
func (t *testIP) Warnf(format string, args ...any)                              {}

var _ instr.Context = (*testIP)(nil)

func newCore(t *testing.T, dim int, befunge93Only bool) (*testIP, *fingerprint.Registry) {
	t.Helper()
	ip := newTestIP(dim)
	reg := fingerprint.NewRegistry()
	instr.RegisterCore(reg, rand.New(rand.NewSource(1)))
	ip.fp = fingerprint.NewDispatch(reg)
	require.NoError(t, instr.InstallCore(ip.fp, befunge93Only, dim == 3))
	return ip, reg
}

func exec(t *testing.T, ip *testIP, instrByte byte) bool {
	t.Helper()
	ok, err := ip.fp.Execute(instrByte, ip)
	require.NoError(t, err)
	return ok
}

func TestDigitsAndArithmetic(t *testing.T) {
	ip, _ := newCore(t, 2, false)

	require.True(t, exec(t, ip, '7'))
	require.True(t, exec(t, ip, '3'))
	require.True(t, exec(t, ip, '+'))
	assert.Equal(t, cell.Cell(10), ip.Pop())

	require.True(t, exec(t, ip, '9'))
	require.True(t, exec(t, ip, '4'))
	require.True(t, exec(t, ip, '-'))
	assert.Equal(t, cell.Cell(5), ip.Pop())
}

func TestDupSwapPop(t *testing.T) {
	ip, _ := newCore(t, 2, false)
	ip.Push(1)
	ip.Push(2)

	require.True(t, exec(t, ip, '\\'))
	assert.Equal(t, cell.Cell(1), ip.Pop())
	assert.Equal(t, cell.Cell(2), ip.Pop())

	ip.Push(9)
	require.True(t, exec(t, ip, ':'))
	assert.Equal(t, cell.Cell(9), ip.Pop())
	assert.Equal(t, cell.Cell(9), ip.Pop())

	ip.Push(1)
	ip.Push(2)
	require.True(t, exec(t, ip, '$'))
	assert.Equal(t, cell.Cell(1), ip.Pop())
}

func TestBase98DivisionByZeroPushesZero(t *testing.T) {
	ip, _ := newCore(t, 2, false)
	ip.Push(5)
	ip.Push(0)
	require.True(t, exec(t, ip, '/'))
	assert.Equal(t, cell.Cell(0), ip.Pop())
}

func TestBase93DivisionByZeroAsksUser(t *testing.T) {
	// Befunge-93-only mode: Base98 (which shadows `/` with the zero-safe
	// version) is not installed, so the classic ask-the-user behavior runs.
	ip, _ := newCore(t, 2, true)
	ip.stdin = strings.NewReader("42\n")
	ip.Push(5)
	ip.Push(0)
	require.True(t, exec(t, ip, '/'))
	assert.Equal(t, cell.Cell(42), ip.Pop())
	assert.Contains(t, ip.stdout.String(), "divide by zero")
}

func TestCardinalDirections(t *testing.T) {
	ip, _ := newCore(t, 2, false)
	require.True(t, exec(t, ip, '>'))
	assert.Equal(t, cell.V3(1, 0, 0), ip.Direction())
	require.True(t, exec(t, ip, 'v'))
	assert.Equal(t, cell.V3(0, 1, 0), ip.Direction())
	require.True(t, exec(t, ip, '<'))
	assert.Equal(t, cell.V3(-1, 0, 0), ip.Direction())
	require.True(t, exec(t, ip, '^'))
	assert.Equal(t, cell.V3(0, -1, 0), ip.Direction())
}

func TestHorizontalIfTakesDirectionFromPoppedTruth(t *testing.T) {
	ip, _ := newCore(t, 2, false)
	ip.Push(0)
	require.True(t, exec(t, ip, '_'))
	assert.Equal(t, cell.V3(1, 0, 0), ip.Direction(), "false goes right")

	ip.Push(1)
	require.True(t, exec(t, ip, '_'))
	assert.Equal(t, cell.V3(-1, 0, 0), ip.Direction(), "true goes left")
}

func TestGetPutRespectsStorageOffset(t *testing.T) {
	ip, _ := newCore(t, 2, false)
	ip.SetStorageOffset(cell.V2(100, 100))

	ip.Push('Z') // value (bottom)
	ip.Push(2)   // x
	ip.Push(1)   // y (top, popped first)
	require.True(t, exec(t, ip, 'p'))
	assert.Equal(t, cell.Cell('Z'), ip.Get(cell.V2(102, 101)))

	ip.Push(2) // x
	ip.Push(1) // y (top, popped first)
	require.True(t, exec(t, ip, 'g'))
	assert.Equal(t, cell.Cell('Z'), ip.Pop())
}

func TestTerminateAndQuit(t *testing.T) {
	ip, _ := newCore(t, 2, false)
	require.True(t, exec(t, ip, '@'))
	assert.True(t, ip.terminated)

	ip2, _ := newCore(t, 2, false)
	ip2.Push(7)
	require.True(t, exec(t, ip2, 'q'))
	assert.True(t, ip2.quitCalled)
	assert.Equal(t, 7, ip2.quitCode)
}

func TestRotateLeftAndRight(t *testing.T) {
	ip, _ := newCore(t, 2, false)
	ip.SetDirection(cell.V3(1, 0, 0))
	require.True(t, exec(t, ip, '['))
	assert.Equal(t, cell.V3(0, -1, 0), ip.Direction())

	require.True(t, exec(t, ip, ']'))
	assert.Equal(t, cell.V3(1, 0, 0), ip.Direction(), "right undoes left")

	require.True(t, exec(t, ip, ']'))
	assert.Equal(t, cell.V3(0, 1, 0), ip.Direction())
}

func TestReverseDirection(t *testing.T) {
	ip, _ := newCore(t, 2, false)
	ip.SetDirection(cell.V3(1, 0, 0))
	require.True(t, exec(t, ip, 'r'))
	assert.Equal(t, cell.V3(-1, 0, 0), ip.Direction())
}

func TestStackStackPushPop(t *testing.T) {
	ip, _ := newCore(t, 2, false)
	ip.Push(1)
	ip.Push(2)
	ip.Push(3)

	ip.Push(2) // n
	require.True(t, exec(t, ip, '{'))
	assert.Equal(t, 2, ip.stk.StackCount())

	require.True(t, exec(t, ip, '}'))
	assert.Equal(t, 1, ip.stk.StackCount())
}

func TestStackStackPopWithoutSOSSReflects(t *testing.T) {
	ip, _ := newCore(t, 2, false)
	ip.Push(0)
	require.True(t, exec(t, ip, '}'))
	assert.True(t, ip.reflected)
}

func TestConcurrentSplitInvokesSplit(t *testing.T) {
	ip, _ := newCore(t, 2, false)
	require.True(t, exec(t, ip, 't'))
	assert.True(t, ip.split)
}

func TestNoConcurrentReflectsSplit(t *testing.T) {
	ip, _ := newCore(t, 2, false)
	ip.noConcurrent = true
	require.True(t, exec(t, ip, 't'))
	assert.False(t, ip.split)
	assert.True(t, ip.reflected)
}

// noopFingerprint claims no letters and handles nothing; it exists only so
// `(` has something real to load.
type noopFingerprint struct{ id fingerprint.ID }

func (f *noopFingerprint) ID() fingerprint.ID               { return f.id }
func (f *noopFingerprint) OnlySemantics() bool               { return false }
func (f *noopFingerprint) Handles() (h [26]bool)             { return h }
func (f *noopFingerprint) Handle(byte, fingerprint.Context) (bool, error) { return false, nil }

func TestFingerprintLoadUnloadRoundTrip(t *testing.T) {
	ip, reg := newCore(t, 2, false)
	id := fingerprint.ParseID("XYZA")
	reg.Register(id, func(*fingerprint.Registry) (fingerprint.Fingerprint, error) {
		return &noopFingerprint{id: id}, nil
	})

	// ( expects the count then the bytes, popped in that order by
	// readFingerprintID; push bytes in reverse so they come off in order.
	for i := len(id.String()) - 1; i >= 0; i-- {
		ip.Push(cell.Cell(id.String()[i]))
	}
	ip.Push(4)
	require.True(t, exec(t, ip, '('))
	assert.False(t, ip.reflected)
}

func TestTrefungeAxisInstructionsOnlyIn3D(t *testing.T) {
	ip2D, _ := newCore(t, 2, false)
	assert.False(t, exec(t, ip2D, 'h'), "h is unhandled in 2D")

	ip3D, _ := newCore(t, 3, false)
	require.True(t, exec(t, ip3D, 'h'))
	assert.Equal(t, cell.V3(0, 0, 1), ip3D.Direction())

	require.True(t, exec(t, ip3D, 'l'))
	assert.Equal(t, cell.V3(0, 0, -1), ip3D.Direction())

	ip3D.Push(0)
	require.True(t, exec(t, ip3D, 'm'))
	assert.Equal(t, cell.V3(0, 0, 1), ip3D.Direction())
}

func TestIterateRunsNextInstructionNTimes(t *testing.T) {
	// iterate re-reads the cell at Position+Direction fresh on each pass, so
	// as the position advances each iteration sees the next cell along the
	// line rather than repeating a single fixed cell.
	ip, _ := newCore(t, 2, false)
	ip.sp.Put(cell.V2(1, 0), '1')
	ip.sp.Put(cell.V2(2, 0), '2')
	ip.sp.Put(cell.V2(3, 0), '3')
	ip.SetPosition(cell.V2(0, 0))
	ip.SetDirection(cell.V3(1, 0, 0))

	ip.Push(3) // n
	require.True(t, exec(t, ip, 'k'))

	assert.Equal(t, cell.Cell(3), ip.Pop())
	assert.Equal(t, cell.Cell(2), ip.Pop())
	assert.Equal(t, cell.Cell(1), ip.Pop())
	assert.Equal(t, cell.V2(3, 0), ip.Position())
}

func TestIterateZeroSkipsCell(t *testing.T) {
	ip, _ := newCore(t, 2, false)
	ip.sp.Put(cell.V2(1, 0), '9')
	ip.SetPosition(cell.V2(0, 0))
	ip.SetDirection(cell.V3(1, 0, 0))

	ip.Push(0)
	require.True(t, exec(t, ip, 'k'))
	assert.Equal(t, cell.V2(1, 0), ip.Position())
	assert.Equal(t, 0, ip.stk.TopSize())
}
