package terrain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmptyGrid  = errors.New("empty grid")
	ErrNotSquare  = errors.New("grid is not square")
	ErrOutOfRange = errors.New("cell out of range")
)

// Grid is a square N×N matrix of heights stored row-major.
type Grid struct {
	n     int
	cells []int
}

func New(n int) *Grid {
	return &Grid{n: n, cells: make([]int, n*n)}
}

// FromRows copies rows into a new grid. rows[y][x] is the height at (x, y).
func FromRows(rows [][]int) (*Grid, error) {
	n := len(rows)
	if n == 0 {
		return nil, ErrEmptyGrid
	}
	g := New(n)
	for y, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrNotSquare, y, len(row), n)
		}
		copy(g.cells[y*n:(y+1)*n], row)
	}
	return g, nil
}

func (g *Grid) N() int {
	return g.n
}

func (g *Grid) Inside(x, y int) bool {
	return 0 <= x && x < g.n && 0 <= y && y < g.n
}

// At is the bounds-checked accessor.
func (g *Grid) At(x, y int) (int, error) {
	if !g.Inside(x, y) {
		return 0, fmt.Errorf("%w: (%d, %d) in %dx%d", ErrOutOfRange, x, y, g.n, g.n)
	}
	return g.cells[y*g.n+x], nil
}

// Get, Set and Add do not check bounds.

func (g *Grid) Get(x, y int) int {
	return g.cells[y*g.n+x]
}

func (g *Grid) Set(x, y, v int) {
	g.cells[y*g.n+x] = v
}

func (g *Grid) Add(x, y, v int) {
	g.cells[y*g.n+x] += v
}

func (g *Grid) Fill(v int) {
	for i := range g.cells {
		g.cells[i] = v
	}
}

func (g *Grid) Clone() *Grid {
	c := &Grid{n: g.n, cells: make([]int, len(g.cells))}
	copy(c.cells, g.cells)
	return c
}

func (g *Grid) Equal(other *Grid) bool {
	if g.n != other.n {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Rows returns a copy of the grid as a slice of rows.
func (g *Grid) Rows() [][]int {
	rows := make([][]int, g.n)
	for y := range g.n {
		rows[y] = make([]int, g.n)
		copy(rows[y], g.cells[y*g.n:(y+1)*g.n])
	}
	return rows
}

func (g *Grid) String() string {
	var b strings.Builder
	for y := range g.n {
		for x := range g.n {
			if x > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.Itoa(g.cells[y*g.n+x]))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
