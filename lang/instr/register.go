package instr

import (
	"math/rand"

	"github.com/mna/funge98/lang/fingerprint"
)

// Base93ID, Base98ID and Trefunge98ID are exported so a machine package can
// install the core overlay by pushing these through a Dispatch, the same
// path a program's own `(` instruction uses.
var (
	Base93ID     = base93ID
	Base98ID     = base98ID
	Trefunge98ID = trefunge98ID
)

// RegisterCore adds factories for the three built-in fingerprints to reg, so
// the engine's own instruction set can be addressed by `(`/`)` the same way
// a third-party fingerprint would be (Mycology exercises this for some of
// the core letters under alternate names).
func RegisterCore(reg *fingerprint.Registry, rng *rand.Rand) {
	reg.Register(base93ID, func(*fingerprint.Registry) (fingerprint.Fingerprint, error) {
		return NewBase93(rng), nil
	})
	reg.Register(base98ID, func(*fingerprint.Registry) (fingerprint.Fingerprint, error) {
		return NewBase98(), nil
	})
	reg.Register(trefunge98ID, func(*fingerprint.Registry) (fingerprint.Fingerprint, error) {
		return NewTrefunge98(), nil
	})
}

// InstallCore pushes the core instruction set onto a fresh IP's dispatch,
// per spec.md #4.5 ("three chained fingerprints ... installed into each
// IP's overlay stack at creation"): Base93 is always installed; Base98 is
// skipped in strict Befunge-93 mode; Trefunge98 is installed only for 3D
// interpreters. reg must have been populated by RegisterCore first.
func InstallCore(d *fingerprint.Dispatch, befunge93Only, trefunge bool) error {
	if _, err := pushCore(d, base93ID); err != nil {
		return err
	}
	if befunge93Only {
		return nil
	}
	if _, err := pushCore(d, base98ID); err != nil {
		return err
	}
	if trefunge {
		if _, err := pushCore(d, trefunge98ID); err != nil {
			return err
		}
	}
	return nil
}

func pushCore(d *fingerprint.Dispatch, id fingerprint.ID) (bool, error) {
	return d.Push(id)
}
