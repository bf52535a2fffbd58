package machine_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/funge98/lang/machine"
)

func run(t *testing.T, src string, opts machine.Options) (string, int, error) {
	t.Helper()
	var out bytes.Buffer
	opts.Stdout = &out
	if opts.Stdin == nil {
		opts.Stdin = strings.NewReader("")
	}
	interp := machine.New(opts)
	code, err := interp.Run([]byte(src))
	return out.String(), code, err
}

func TestHelloWorld(t *testing.T) {
	// the classic trick: the literal string is written backwards so that
	// popping top-to-bottom after the closing quote prints it forwards.
	src := `"!dlroW ,olleH",,,,,,,,,,,,,@`
	out, code, err := run(t, src, machine.Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "Hello, World!", out)
}

func TestStringModeCollapsesSpaceRunToOnePush(t *testing.T) {
	// "a   b" has three literal spaces between a and b; string mode must
	// collapse that run to a single pushed space, so three prints drain the
	// stack exactly (b, then the one collapsed space, then a).
	src := `"a   b",,,@`
	out, code, err := run(t, src, machine.Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "b a", out)
}

func TestQuitInstructionSetsExitCode(t *testing.T) {
	src := "5q@"
	_, code, err := run(t, src, machine.Options{})
	require.NoError(t, err)
	assert.Equal(t, 5, code)
}

func TestBase98DivisionByZeroDefaultsToZero(t *testing.T) {
	src := "5 0/.@"
	out, _, err := run(t, src, machine.Options{})
	require.NoError(t, err)
	assert.Equal(t, "0 ", out)
}

func TestArithmeticAndPrint(t *testing.T) {
	src := "23+.@"
	out, _, err := run(t, src, machine.Options{})
	require.NoError(t, err)
	assert.Equal(t, "5 ", out)
}

func TestTrefungeAxisMovementAcrossLayers(t *testing.T) {
	// layer z=0: "1h" (push 1, turn into the third dimension);
	// layer z=1: " >2.@" (landing cell turns back into the x axis, then
	// pushes 2, prints it, and terminates).
	src := "1h\f >2.@"
	out, code, err := run(t, src, machine.Options{Dim: 3})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "2 ", out)
}

func TestNoConcurrentReflectsSplitInstruction(t *testing.T) {
	// without NoConcurrent, `t` would spawn a second IP; with it, `t` simply
	// reflects, and the single IP moves left, wraps around and reaches `@`.
	src := "t@"
	_, code, err := run(t, src, machine.Options{NoConcurrent: true})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestBefunge93OnlyRejectsBase98Instructions(t *testing.T) {
	// `z` is a Base98 no-op; under strict Befunge-93 it is unhandled and
	// reflects instead, so the program never executes an instruction that
	// prints anything before terminating.
	src := "z@"
	out, _, err := run(t, src, machine.Options{Befunge93Only: true})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReadInputNumber(t *testing.T) {
	src := "&.@"
	out, _, err := run(t, src, machine.Options{Stdin: strings.NewReader("17")})
	require.NoError(t, err)
	assert.Equal(t, "17 ", out)
}
