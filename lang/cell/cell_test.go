package cell_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/funge98/lang/cell"
)

func TestCellWrap(t *testing.T) {
	cases := []struct {
		name string
		in   cell.Cell
		w    cell.Width
		want cell.Cell
	}{
		{"16-bit overflow", 65536 + 5, cell.Width16, 5},
		{"16-bit negative", -1, cell.Width16, -1},
		{"32-bit overflow", 1<<32 + 7, cell.Width32, 7},
		{"64-bit passthrough", 1 << 40, cell.Width64, 1 << 40},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Wrap(tc.w))
		})
	}
}

func TestCellTruth(t *testing.T) {
	assert.False(t, cell.Cell(0).Truth())
	assert.True(t, cell.Cell(1).Truth())
	assert.True(t, cell.Cell(-1).Truth())
}

func TestVectorArithmetic(t *testing.T) {
	a := cell.V3(1, 2, 3)
	b := cell.V3(4, 5, 6)
	require.Equal(t, cell.V3(5, 7, 9), a.Add(b))
	require.Equal(t, cell.V3(-3, -3, -3), a.Sub(b))
	require.Equal(t, cell.V3(4, 10, 18), a.Mul(b))
	require.Equal(t, cell.V3(2, 4, 6), a.Scale(2))
	require.Equal(t, cell.V3(-1, -2, -3), a.Negate())
	require.True(t, cell.Vector{}.IsZero())
	require.False(t, a.IsZero())
}

func TestVectorShrMask(t *testing.T) {
	v := cell.V3(65, 129, 8)
	assert.Equal(t, cell.V3(1, 2, 0), v.Shr(6))
	assert.Equal(t, cell.V3(1, 1, 0), v.Mask(63))
}

func TestMinMax(t *testing.T) {
	a := cell.V3(1, 9, -3)
	b := cell.V3(5, 2, -1)
	assert.Equal(t, cell.V3(1, 2, -3), cell.Min(a, b))
	assert.Equal(t, cell.V3(5, 9, -1), cell.Max(a, b))
}
