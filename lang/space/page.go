package space

import "github.com/mna/funge98/lang/cell"

// page is a dense block of cells of side S (64 in 2D, 8 in 3D), storing
// S^dim cells initialised to space. A page is uniquely owned by exactly one
// arena slot; pages are never freed individually, only the whole arena is
// released with the tree.
type page struct {
	cells []cell.Cell
}

func newPage(side, dim int) *page {
	n := side * side
	if dim == 3 {
		n *= side
	}
	p := &page{cells: make([]cell.Cell, n)}
	for i := range p.cells {
		p.cells[i] = cell.Space
	}
	return p
}

// index folds an in-page coordinate into a flat slice index. 2D callers
// always pass z==0.
func index(side int, x, y, z cell.Cell) int {
	ix, iy, iz := int(x), int(y), int(z)
	return (iz*side+iy)*side + ix
}
