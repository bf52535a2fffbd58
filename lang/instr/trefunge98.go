package instr

import (
	"github.com/mna/funge98/lang/cell"
	"github.com/mna/funge98/lang/fingerprint"
)

var trefunge98ID = fingerprint.ParseID("TR98")

// Trefunge98 layers the third-dimension-only instructions over Base98: the
// low/high z-delta setters and the z-axis ternary branch. In a 2D
// interpreter these three letters are simply never reached (Base98 already
// reflects them), so this fingerprint only needs to be installed when the
// interpreter is running in 3D.
type Trefunge98 struct{}

func NewTrefunge98() *Trefunge98 { return &Trefunge98{} }

var _ fingerprint.Fingerprint = (*Trefunge98)(nil)

func (t *Trefunge98) ID() fingerprint.ID    { return trefunge98ID }
func (t *Trefunge98) OnlySemantics() bool   { return false }
func (t *Trefunge98) Handles() (h [26]bool) { return h }

func (t *Trefunge98) Handle(instr byte, ctx fingerprint.Context) (bool, error) {
	ec, ok := ctx.(Context)
	if !ok {
		return false, nil
	}
	if ec.Dim() != 3 {
		return false, nil
	}

	switch instr {
	case 'h':
		ec.SetDirection(cell.V3(0, 0, 1))
	case 'l':
		ec.SetDirection(cell.V3(0, 0, -1))
	case 'm':
		if ec.Pop().Truth() {
			ec.SetDirection(cell.V3(0, 0, -1))
		} else {
			ec.SetDirection(cell.V3(0, 0, 1))
		}
	default:
		return false, nil
	}
	return true, nil
}
