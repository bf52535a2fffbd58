package machine

import "github.com/mna/funge98/lang/cell"

// stepIP advances ip by exactly one tick (spec.md #4.4): read the current
// cell, apply string-mode accumulation or fingerprint dispatch, then move
// the cursor with Lahey-space wraparound. It reports whether ip is still
// alive (false if it quit, terminated via `@`, or was trapped with no
// reachable instruction).
func stepIP(ip *IP) (alive bool, err error) {
	c := ip.cur.CurrentCell()

	if ip.stringMode {
		switch {
		case c == '"':
			ip.stringMode = false
		case c == cell.Space:
			// a run of spaces collapses to a single pushed space, committed
			// only when the next non-space cell is pushed; a run that ends at
			// the closing `"` pushes nothing.
			ip.justSawSpace = true
		default:
			if ip.justSawSpace {
				ip.stk.Push(cell.Space)
				ip.justSawSpace = false
			}
			ip.stk.Push(c)
		}
	} else if c == '"' {
		ip.stringMode = true
		ip.justSawSpace = false
	} else {
		ok, herr := ip.fp.Execute(byte(c), ip)
		if herr != nil {
			return false, herr
		}
		if !ok {
			ip.Warnf("unknown instruction %q at %s, reflecting", rune(c), ip.cur.Position())
			ip.Reflect()
		}
	}

	if ip.done {
		return false, nil
	}

	// String mode must visit every cell one at a time (so the space-run
	// compression above actually sees space cells); outside it, the cursor
	// skips straight to the next non-space instruction and may follow a
	// ;...; teleport comment.
	var ok bool
	if ip.stringMode {
		ok = ip.cur.AdvanceRaw(true)
	} else {
		ok = ip.cur.Advance(true, true)
	}
	if !ok {
		// trapped: no reachable instruction anywhere on this line
		ip.done = true
		return false, nil
	}

	return !ip.done, nil
}
