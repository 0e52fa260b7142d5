package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	tests := []struct {
		name string
		rows [][]int
		err  error
	}{
		{"empty", [][]int{}, ErrEmptyGrid},
		{"ragged", [][]int{{1, 2}, {3}}, ErrNotSquare},
		{"wide", [][]int{{1, 2, 3}, {4, 5, 6}}, ErrNotSquare},
		{"square", [][]int{{1, 2}, {3, 4}}, nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g, err := FromRows(test.rows)
			if test.err != nil {
				assert.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.rows, g.Rows())
		})
	}
}

func TestAt(t *testing.T) {
	g, err := FromRows([][]int{{1, 2}, {3, 4}})
	require.NoError(t, err)

	v, err := g.At(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 3, g.Get(0, 1))

	for _, xy := range [][2]int{{-1, 0}, {2, 0}, {0, 2}, {0, -1}} {
		_, err := g.At(xy[0], xy[1])
		assert.ErrorIs(t, err, ErrOutOfRange, "At(%d, %d)", xy[0], xy[1])
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := New(3)
	g.Fill(7)
	c := g.Clone()
	c.Add(1, 1, 1)

	assert.Equal(t, 7, g.Get(1, 1))
	assert.Equal(t, 8, c.Get(1, 1))
	assert.False(t, g.Equal(c))
	c.Set(1, 1, 7)
	assert.True(t, g.Equal(c))
}

func TestString(t *testing.T) {
	g, err := FromRows([][]int{{1, -2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, "1 -2\n3 4\n", g.String())
}
