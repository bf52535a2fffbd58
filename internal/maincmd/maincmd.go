// Package maincmd implements the funge98 command-line front-end: argument
// parsing (via the teacher's mna/mainer flag-tag parser), source loading,
// and dispatch into the interpreter.
package maincmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mna/mainer"

	"github.com/mna/funge98/lang/cell"
	"github.com/mna/funge98/lang/machine"
)

const binName = "funge98"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

A Funge-98 (Befunge-93/98, Trefunge-98) interpreter.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       -d --debug                Accepted; no debugger is built in, no effect.
       -w --warnings             Print warnings for unknown instructions.
       -93 --befunge-93          Use Befunge-93 semantics only.
       -3 --trefunge             Use Trefunge-98 (3D) semantics.
       -N --no-concurrent        Disable the 't' split instruction.
       -B --cell-size <bits>     Cell width: 16, 32 or 64 (default 32).
       -S --source-line <line>  Inline source line, repeatable.
       --show-source-lines       Echo the source before running.
       -I --include-directory <dir>  Search path for files read by 'i', repeatable.
       -b --bench                Repeat until 2 seconds elapse, print avg time.
       --benchn <n>              Repeat exactly n times, print avg time.

More information on the funge98 repository:
       https://github.com/mna/funge98
`, binName)
)

// Cmd is the funge98 command, parsed and run by Main.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help            bool     `flag:"h,help"`
	Version         bool     `flag:"v,version"`
	Debug           bool     `flag:"d,debug"`
	Warnings        bool     `flag:"w,warnings"`
	Befunge93       bool     `flag:"93,befunge-93"`
	Trefunge        bool     `flag:"3,trefunge"`
	NoConcurrent    bool     `flag:"N,no-concurrent"`
	CellSize        int      `flag:"B,cell-size"`
	SourceLines     []string `flag:"S,source-line"`
	ShowSourceLines bool     `flag:"show-source-lines"`
	IncludeDirs     []string `flag:"I,include-directory"`
	Bench           bool     `flag:"b,bench"`
	BenchN          int      `flag:"benchn"`

	args []string
}

func (c *Cmd) SetArgs(args []string)            { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool)   {}

// Validate checks the resolved flags for the mutual-exclusion and
// cardinality rules spec.md #6 describes for the positional source path.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.SourceLines) > 0 && len(c.args) > 0 {
		return errors.New("cannot specify both a source file and -S/--source-line")
	}
	if len(c.SourceLines) == 0 && len(c.args) == 0 {
		return errors.New("no source file specified (use a path or -S)")
	}
	if len(c.args) > 1 {
		return errors.New("only one source file may be specified")
	}
	switch c.CellSize {
	case 0, 16, 32, 64:
	default:
		return fmt.Errorf("invalid --cell-size: %d", c.CellSize)
	}
	return nil
}

// Main parses args and runs the interpreter, returning the process exit
// code per spec.md #6: 0 on success, 1 on argument or runtime error, 2 on
// unknown internal failure, or the operand of a program's `q`.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: strings.ToUpper(binName) + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.ExitCode(1)
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.ExitCode(0)
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.ExitCode(0)
	}

	src, err := c.readSource()
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return mainer.ExitCode(1)
	}
	if c.ShowSourceLines {
		stdio.Stdout.Write(src)
	}

	opts := c.interpreterOptions(stdio)

	if c.Bench || c.BenchN > 0 {
		return c.runBench(src, opts, stdio)
	}

	interp := machine.New(opts)
	code, err := interp.Run(src)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return mainer.ExitCode(1)
	}
	return mainer.ExitCode(code)
}

func (c *Cmd) readSource() ([]byte, error) {
	if len(c.SourceLines) > 0 {
		return []byte(strings.Join(c.SourceLines, "\n") + "\n"), nil
	}
	return os.ReadFile(c.args[0])
}

func (c *Cmd) interpreterOptions(stdio mainer.Stdio) machine.Options {
	dim := 2
	if c.Trefunge {
		dim = 3
	}
	width := cell.Width32
	switch c.CellSize {
	case 16:
		width = cell.Width16
	case 64:
		width = cell.Width64
	}
	return machine.Options{
		Dim:           dim,
		CellWidth:     width,
		Befunge93Only: c.Befunge93,
		NoConcurrent:  c.NoConcurrent,
		Warnings:      c.Warnings,
		IncludeDirs:   c.IncludeDirs,
		Args:          c.args,
		Env:           os.Environ(),
		Stdin:         stdio.Stdin,
		Stdout:        stdio.Stdout,
		Stderr:        stdio.Stderr,
	}
}

// runBench implements --bench (repeat until 2s elapse) and --benchn
// (repeat exactly n times), printing the average time per run.
func (c *Cmd) runBench(src []byte, opts machine.Options, stdio mainer.Stdio) mainer.ExitCode {
	var out io.Writer = io.Discard
	benchOpts := opts
	benchOpts.Stdout = out

	n := c.BenchN
	deadline := time.Now().Add(2 * time.Second)
	var runs int
	var total time.Duration
	var lastErr error
	var lastCode int

	for {
		if n > 0 && runs >= n {
			break
		}
		if n == 0 && time.Now().After(deadline) {
			break
		}
		start := time.Now()
		interp := machine.New(benchOpts)
		lastCode, lastErr = interp.Run(src)
		total += time.Since(start)
		runs++
		if n == 0 && runs == 1 && time.Since(start) > 2*time.Second {
			break
		}
	}

	if lastErr != nil {
		fmt.Fprintln(stdio.Stderr, lastErr)
		return mainer.ExitCode(1)
	}
	avg := total / time.Duration(runs)
	fmt.Fprintf(stdio.Stdout, "%d run(s), average %s\n", runs, avg)
	return mainer.ExitCode(lastCode)
}
