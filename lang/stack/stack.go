// Package stack implements the Funge-98 stack-stack: an ordered sequence of
// value stacks (TOSS is the topmost) with block/transfer semantics and the
// invert/queue mode flags.
//
// Grounded directly on the teacher's lang/machine.go run() slicing trick:
// space := make([]Value, nspace); locals := space[:nlocals]; stack :=
// space[nlocals:] — here the stack-stack is one flat []cell.Cell buffer
// plus a slice of split indices, and the TOSS is buf[splits[last]:].
package stack

import "github.com/mna/funge98/lang/cell"

// Stack is the stack-stack: a flat buffer of cells partitioned into one or
// more individual stacks by strictly increasing split indices. The last
// split marks the start of TOSS (the topmost stack).
type Stack struct {
	buf    []cell.Cell
	splits []int // splits[i] is the start offset of stack i; len(splits) == stack count

	invert bool // push inserts at the bottom of TOSS
	queue  bool // pop takes from the bottom of TOSS
}

// New returns a stack-stack with a single empty stack and both mode flags
// false.
func New() *Stack {
	return &Stack{splits: []int{0}}
}

func (s *Stack) tossStart() int { return s.splits[len(s.splits)-1] }

// Clone returns a deep copy of s, for `t` (split): the child IP's
// stack-stack starts as an independent copy of the parent's.
func (s *Stack) Clone() *Stack {
	c := &Stack{
		buf:    append([]cell.Cell(nil), s.buf...),
		splits: append([]int(nil), s.splits...),
		invert: s.invert,
		queue:  s.queue,
	}
	return c
}

// StackCount returns the number of stacks in the stack-stack.
func (s *Stack) StackCount() int { return len(s.splits) }

// Sizes returns the size of each stack, from bottom (SOSS-most) to TOSS.
func (s *Stack) Sizes() []int {
	sizes := make([]int, len(s.splits))
	for i, start := range s.splits {
		end := len(s.buf)
		if i+1 < len(s.splits) {
			end = s.splits[i+1]
		}
		sizes[i] = end - start
	}
	return sizes
}

// Invert reports whether push-mode is inverted (pushes go to the bottom).
func (s *Stack) Invert() bool { return s.invert }

// Queue reports whether pop-mode is queue-like (pops come from the bottom).
func (s *Stack) Queue() bool { return s.queue }

// SetInvert sets push-mode.
func (s *Stack) SetInvert(v bool) { s.invert = v }

// SetQueue sets pop-mode.
func (s *Stack) SetQueue(v bool) { s.queue = v }

// TopSize returns the number of cells in TOSS.
func (s *Stack) TopSize() int { return len(s.buf) - s.tossStart() }

// Push pushes v onto TOSS, honoring Invert mode.
func (s *Stack) Push(v cell.Cell) {
	if !s.invert {
		s.buf = append(s.buf, v)
		return
	}
	start := s.tossStart()
	s.buf = append(s.buf, 0)
	copy(s.buf[start+1:], s.buf[start:len(s.buf)-1])
	s.buf[start] = v
}

// Pop removes and returns the top (or, in Queue mode, the bottom) value of
// TOSS. Popping below empty returns 0 and never fails.
func (s *Stack) Pop() cell.Cell {
	start := s.tossStart()
	if len(s.buf) <= start {
		return 0
	}
	if !s.queue {
		v := s.buf[len(s.buf)-1]
		s.buf = s.buf[:len(s.buf)-1]
		return v
	}
	v := s.buf[start]
	s.buf = append(s.buf[:start], s.buf[start+1:]...)
	return v
}

// Nth returns the i'th cell from the top of TOSS (0 is the top) without
// popping it, or 0 if i is out of range.
func (s *Stack) Nth(i int) cell.Cell {
	idx := len(s.buf) - 1 - i
	if idx < s.tossStart() {
		return 0
	}
	return s.buf[idx]
}

// ClearTop empties TOSS without lowering any split index.
func (s *Stack) ClearTop() {
	s.buf = s.buf[:s.tossStart()]
}

// ResizeTop grows or shrinks TOSS to exactly n cells, padding with zeros at
// the bottom when growing and dropping from the top when shrinking.
func (s *Stack) ResizeTop(n int) {
	start := s.tossStart()
	cur := len(s.buf) - start
	switch {
	case n < cur:
		s.buf = s.buf[:start+n]
	case n > cur:
		pad := n - cur
		s.buf = append(s.buf, make([]cell.Cell, pad)...)
		copy(s.buf[start+pad:], s.buf[start:start+cur])
		for i := 0; i < pad; i++ {
			s.buf[start+i] = 0
		}
	}
}

// PushStack implements `{`: pop n, then push a new empty TOSS, moving up to
// min(n, k) elements from the old TOSS top into it (k = old TOSS size), and
// pushing the given storage offset onto the new SOSS.
func (s *Stack) PushStack(n int, storageOffset cell.Vector, dim int) {
	k := s.TopSize()
	start := s.tossStart()

	var block []cell.Cell
	if n >= 0 {
		take := n
		if take > k {
			take = k
		}
		block = append([]cell.Cell(nil), s.buf[len(s.buf)-take:]...)
		s.buf = s.buf[:len(s.buf)-take]
	}

	// new SOSS boundary is the current end of buf; push storage offset onto it
	s.pushOffset(storageOffset, dim)

	// new TOSS begins here
	s.splits = append(s.splits, len(s.buf))

	if n >= 0 {
		zeros := n - len(block)
		for i := 0; i < zeros; i++ {
			s.buf = append(s.buf, 0)
		}
		s.buf = append(s.buf, block...)
	} else {
		for i := 0; i < -n; i++ {
			s.buf = append(s.buf, 0)
		}
	}
}

// PopStack implements `}`: pop n, then discard TOSS (transferring up to n
// of its top elements to SOSS, padded with zero), and return the storage
// offset that was saved by the matching PushStack. ok is false if there is
// no SOSS (the caller should reflect instead).
func (s *Stack) PopStack(n int, dim int) (offset cell.Vector, ok bool) {
	if len(s.splits) < 2 {
		return cell.Vector{}, false
	}

	tossStart := s.tossStart()
	toss := append([]cell.Cell(nil), s.buf[tossStart:]...)
	s.buf = s.buf[:tossStart]
	s.splits = s.splits[:len(s.splits)-1]

	offset, s.buf = s.popOffset(dim, s.buf)

	if n >= 0 {
		take := n
		if take > len(toss) {
			take = len(toss)
		}
		keep := toss[len(toss)-take:]
		pad := n - take
		for i := 0; i < pad; i++ {
			s.buf = append(s.buf, 0)
		}
		s.buf = append(s.buf, keep...)
	} else {
		for i := 0; i < -n; i++ {
			s.buf = s.buf[:len(s.buf)-1]
			if len(s.buf) < s.tossStart() {
				s.buf = s.buf[:s.tossStart()]
				break
			}
		}
	}
	return offset, true
}

// Transfer implements `u`: with n>0, pop-push loop from SOSS to TOSS
// (reversing order), padding with zero if SOSS is shorter; with n<0,
// pop-push loop from TOSS to SOSS; n==0 is a no-op. ok is false if there is
// no SOSS.
func (s *Stack) Transfer(n int) (ok bool) {
	if len(s.splits) < 2 {
		return false
	}
	last := len(s.splits) - 1
	sossStart := s.splits[last-1]
	tossStart := s.splits[last]

	switch {
	case n > 0:
		for i := 0; i < n; i++ {
			var v cell.Cell
			if tossStart > sossStart {
				tossStart--
				v = s.buf[tossStart]
				s.buf = append(s.buf[:tossStart], s.buf[tossStart+1:]...)
			}
			s.buf = append(s.buf, v)
		}
	case n < 0:
		for i := 0; i < -n; i++ {
			if len(s.buf) <= tossStart {
				break
			}
			v := s.buf[len(s.buf)-1]
			s.buf = s.buf[:len(s.buf)-1]
			s.buf = append(s.buf[:tossStart], append([]cell.Cell{v}, s.buf[tossStart:]...)...)
			tossStart++
		}
	}
	s.splits[last] = tossStart
	return true
}

func (s *Stack) pushOffset(offset cell.Vector, dim int) {
	s.buf = append(s.buf, offset.X, offset.Y)
	if dim == 3 {
		s.buf = append(s.buf, offset.Z)
	}
}

func (s *Stack) popOffset(dim int, buf []cell.Cell) (cell.Vector, []cell.Cell) {
	n := 2
	if dim == 3 {
		n = 3
	}
	if len(buf) < n {
		// malformed, pad with zeros; should not happen given PushStack always
		// writes exactly n cells
		for len(buf) < n {
			buf = append(buf, 0)
		}
	}
	var v cell.Vector
	if dim == 3 {
		v.Z = buf[len(buf)-1]
		v.Y = buf[len(buf)-2]
		v.X = buf[len(buf)-3]
	} else {
		v.Y = buf[len(buf)-1]
		v.X = buf[len(buf)-2]
	}
	return v, buf[:len(buf)-n]
}

// ReadStringTerminated pops cells from TOSS until a 0 cell or underflow,
// returning the popped cells as bytes (cells outside byte range are
// truncated).
func (s *Stack) ReadStringTerminated() []byte {
	var out []byte
	for {
		start := s.tossStart()
		if len(s.buf) <= start {
			break
		}
		v := s.Pop()
		if v == 0 {
			break
		}
		out = append(out, byte(v))
	}
	return out
}

// PushStringTerminated pushes a terminating 0 then the bytes of str in
// reverse, so that reading the string back out (e.g. via `'`-style fetches)
// yields it in original order.
func (s *Stack) PushStringTerminated(str []byte) {
	s.Push(0)
	for i := len(str) - 1; i >= 0; i-- {
		s.Push(cell.Cell(str[i]))
	}
}
