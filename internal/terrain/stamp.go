package terrain

import "fmt"

// Op is a flattening operation: a cone of slope 1 centered at (X, Y).
type Op struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Power int `json:"power"`
}

// Feasible reports whether op fits an n×n grid: 0 <= X, Y < n and
// 1 <= Power <= n.
func (op Op) Feasible(n int) bool {
	return 0 <= op.X && op.X < n && 0 <= op.Y && op.Y < n &&
		1 <= op.Power && op.Power <= n
}

func (op Op) String() string {
	return fmt.Sprintf("%d %d %d", op.X, op.Y, op.Power)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Contribution is the amount a stamp of the given power centered at (cx, cy)
// subtracts from cell (x, y).
func Contribution(cx, cy, power, x, y int) int {
	return max(0, power-abs(x-cx)-abs(y-cy))
}

// ApplyOp subtracts the stamp of op from g. Cells outside g are skipped.
func ApplyOp(g *Grid, op Op) {
	stamp(g, op, -1)
}

// RemoveOp adds the stamp of op back to g.
func RemoveOp(g *Grid, op Op) {
	stamp(g, op, 1)
}

func stamp(g *Grid, op Op, sign int) {
	r := op.Power - 1
	for y := max(op.Y-r, 0); y <= min(op.Y+r, g.n-1); y++ {
		w := r - abs(y-op.Y)
		row := g.cells[y*g.n : (y+1)*g.n]
		for x := max(op.X-w, 0); x <= min(op.X+w, g.n-1); x++ {
			row[x] += sign * Contribution(op.X, op.Y, op.Power, x, y)
		}
	}
}
