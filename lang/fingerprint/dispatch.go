package fingerprint

import "sort"

// entry wraps a Fingerprint with its strong-reference count: every slot
// that holds it (the overlay stack, or a per-letter semantic stack) owns
// one strong reference, and the fingerprint is destroyed when the count
// reaches zero.
type entry struct {
	fp   Fingerprint
	refs int
}

// Dispatch is one IP's fingerprint state: the overlay stack (fingerprints
// that participate in non-letter dispatch, in load order) and 26 per-letter
// semantic stacks for A-Z.
type Dispatch struct {
	reg *Registry

	overlay []*entry
	letters [26][]*entry
	all     map[ID]*entry
}

// NewDispatch returns an empty per-IP dispatch state bound to reg.
func NewDispatch(reg *Registry) *Dispatch {
	return &Dispatch{reg: reg, all: make(map[ID]*entry)}
}

// Push implements `(`: load fingerprint id, creating it via the registry if
// it is not already referenced by this IP. Returns ok=false if no factory
// is registered for id.
func (d *Dispatch) Push(id ID) (ok bool, err error) {
	e, existing := d.all[id]
	if !existing {
		fp, found, err := d.reg.Create(id)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
		e = &entry{fp: fp}
		d.all[id] = e
	}

	if !e.fp.OnlySemantics() {
		d.overlay = append(d.overlay, e)
		e.refs++
	}
	handles := e.fp.Handles()
	for l := 0; l < 26; l++ {
		if handles[l] {
			d.letters[l] = append(d.letters[l], e)
			e.refs++
		}
	}
	return true, nil
}

// Pop implements `)`: unload fingerprint id. Unloading a fingerprint that
// was never loaded is reported as success, per the Funge-98 spec.
func (d *Dispatch) Pop(id ID) {
	e, ok := d.all[id]
	if !ok {
		return
	}

	handles := e.fp.Handles()
	for l := 0; l < 26; l++ {
		if !handles[l] {
			continue
		}
		stk := d.letters[l]
		if len(stk) == 0 {
			continue
		}
		// pop whatever is on top, even if it is not e
		d.letters[l] = stk[:len(stk)-1]
		d.release(stk[len(stk)-1])
	}

	if !e.fp.OnlySemantics() {
		for i := len(d.overlay) - 1; i >= 0; i-- {
			if d.overlay[i] == e {
				d.overlay = append(d.overlay[:i], d.overlay[i+1:]...)
				d.release(e)
				break
			}
		}
	}
}

func (d *Dispatch) release(e *entry) {
	e.refs--
	if e.refs <= 0 {
		delete(d.all, e.fp.ID())
	}
}

// LoadedIDs returns the distinct fingerprint IDs currently referenced by
// this dispatch (by the overlay stack, any letter stack, or both), sorted
// for determinism.
func (d *Dispatch) LoadedIDs() []ID {
	ids := make([]ID, 0, len(d.all))
	for id := range d.all {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CloneInto loads, onto dst, one instance of every fingerprint currently
// loaded in d, in ascending ID order (the order of LoadedIDs). Used by `t`
// (split) to give the child IP an independent fingerprint dispatch state
// without sharing entries (and therefore refcounts) with the parent. The
// parent's load order and repeated loads of one ID are not reproduced:
// where two loaded fingerprints claim the same letter, the one with the
// higher ID is on top of that letter's stack in dst, whichever is on top
// in d.
func (d *Dispatch) CloneInto(dst *Dispatch) {
	for _, id := range d.LoadedIDs() {
		dst.Push(id)
	}
}

// Execute dispatches instr to the appropriate fingerprint: the top of its
// per-letter stack if instr is A-Z and that stack is non-empty, falling
// back to the overlay stack top-to-bottom. It reports whether any
// fingerprint accepted the instruction.
func (d *Dispatch) Execute(instr byte, ctx Context) (bool, error) {
	if instr >= 'A' && instr <= 'Z' {
		l := int(instr - 'A')
		if stk := d.letters[l]; len(stk) > 0 {
			ok, err := stk[len(stk)-1].fp.Handle(instr, ctx)
			if err != nil || ok {
				return ok, err
			}
		}
	}
	for i := len(d.overlay) - 1; i >= 0; i-- {
		ok, err := d.overlay[i].fp.Handle(instr, ctx)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}
