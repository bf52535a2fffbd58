// Package cursor implements the stateful cursor that an instruction pointer
// uses to read and write funge-space and to step through it with
// Lahey-space wraparound.
package cursor

import (
	"github.com/mna/funge98/lang/cell"
	"github.com/mna/funge98/lang/space"
)

// Cursor pairs a position and a direction (delta) with a reference to the
// funge-space it reads and writes.
//
// The teacher's hot-path justification for a stateful page pointer
// (lang/machine.go's sp-indexed flat stack, avoiding a lookup per step)
// applies here too: advancing across many contiguous same-page cells should
// not repeat a tree/hash lookup every step. Space.Get/Put already cache
// through the eden array for the common case, so the cursor does not keep
// its own duplicate page pointer; it borrows the space directly.
type Cursor struct {
	sp  *space.Space
	pos cell.Vector
	dir cell.Vector
}

// New returns a cursor positioned at pos with the given initial direction,
// borrowing sp for reads and writes.
func New(sp *space.Space, pos, dir cell.Vector) *Cursor {
	return &Cursor{sp: sp, pos: pos, dir: dir}
}

func (c *Cursor) Position() cell.Vector  { return c.pos }
func (c *Cursor) Direction() cell.Vector { return c.dir }
func (c *Cursor) SetPosition(p cell.Vector) { c.pos = p }
func (c *Cursor) SetDirection(d cell.Vector) { c.dir = d }

// Reflect reverses the direction (D <- -D), used on unknown instructions and
// error conditions.
func (c *Cursor) Reflect() { c.dir = c.dir.Negate() }

// RotateLeftZ rotates the direction 90 degrees left in the XY plane.
func (c *Cursor) RotateLeftZ() {
	c.dir = cell.V3(c.dir.Y, -c.dir.X, c.dir.Z)
}

// RotateRightZ rotates the direction 90 degrees right in the XY plane.
func (c *Cursor) RotateRightZ() {
	c.dir = cell.V3(-c.dir.Y, c.dir.X, c.dir.Z)
}

// CurrentCell returns the cell at the cursor's current position.
func (c *Cursor) CurrentCell() cell.Cell { return c.sp.Get(c.pos) }

func (c *Cursor) Get(addr cell.Vector) cell.Cell { return c.sp.Get(addr) }
func (c *Cursor) Put(addr cell.Vector, v cell.Cell) { c.sp.Put(addr, v) }

// PutHere writes v at the cursor's current position.
func (c *Cursor) PutHere(v cell.Cell) { c.sp.Put(c.pos, v) }

// Advance steps the cursor by its direction, repeatedly stepping over
// space, and optionally skipping ;...; teleport regions, using Lahey-space
// wraparound when the scan would otherwise run off the written region. It
// reports whether a reachable instruction was found.
func (c *Cursor) Advance(followTeleports, allowWrap bool) bool {
	kind := space.Normal
	p, res := c.sp.AdvanceCursor(c.pos, c.dir, kind, allowWrap)
	if res != space.Found {
		return false
	}

	if followTeleports && c.sp.Get(p) == ';' {
		// skip to the matching closing semicolon, then resume the search for a
		// real instruction from there.
		p2, res2 := c.sp.AdvanceCursor(p, c.dir, space.Teleport, allowWrap)
		if res2 != space.Found {
			return false
		}
		c.pos = p2
		return c.Advance(followTeleports, allowWrap)
	}

	c.pos = p
	return true
}

// AdvanceRaw steps the cursor by exactly one cell in its direction, without
// skipping space: string mode must visit every cell, space or not, so it
// cannot use Advance's instruction-search semantics. Lahey-space wraparound
// still applies when the single step would leave the written region.
func (c *Cursor) AdvanceRaw(allowWrap bool) bool {
	p, res := c.sp.AdvanceCursor(c.pos, c.dir, space.Raw, allowWrap)
	if res != space.Found {
		return false
	}
	c.pos = p
	return true
}
