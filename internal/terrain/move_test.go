package terrain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bruteForce applies m by removing and re-stamping the whole op and rescoring
// the full grid.
func bruteForce(g *Grid, op Op, m Move) (int64, Op, bool) {
	next := op
	if dx, dy, ok := m.Direction(); ok {
		next.X += dx
		next.Y += dy
	} else if m == MoveGrow {
		next.Power++
	} else {
		next.Power--
	}
	if !next.Feasible(g.N()) {
		return 0, op, false
	}
	before := Score(g)
	after := g.Clone()
	RemoveOp(after, op)
	ApplyOp(after, next)
	return Score(after) - before, next, true
}

func checkMove(t *testing.T, g *Grid, op Op, m Move) {
	t.Helper()
	want, next, feasible := bruteForce(g, op, m)

	snapshot := g.Clone()
	got, ok := Delta(g, op, m)
	require.Equal(t, feasible, ok, "feasibility of %s on %v", m, op)
	require.True(t, snapshot.Equal(g), "Delta mutated the grid")
	if !ok {
		return
	}
	assert.Equal(t, want, got, "delta of %s on %v", m, op)

	applied := op
	realized, ok := ApplyMove(g, &applied, m)
	require.True(t, ok)
	assert.Equal(t, got, realized)
	assert.Equal(t, next, applied)

	expected := snapshot.Clone()
	RemoveOp(expected, op)
	ApplyOp(expected, next)
	assert.True(t, expected.Equal(g), "grid after %s on %v", m, op)
}

func TestDeltaMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for range 500 {
		n := 1 + r.IntN(10)
		g := randomGrid(r, n, 2*n)
		ops := make([]Op, 1+r.IntN(4))
		for i := range ops {
			ops[i] = randomOp(r, n)
			ApplyOp(g, ops[i])
		}
		for m := range Move(NumMoves) {
			checkMove(t, g.Clone(), ops[r.IntN(len(ops))], m)
		}
	}
}

func TestTranslateRightFromLeftEdge(t *testing.T) {
	g, err := FromRows([][]int{
		{1, 2, 3, 4, 5},
		{5, 4, 3, 2, 1},
		{0, 9, 0, 9, 0},
		{2, 2, 2, 2, 2},
		{7, 0, 0, 0, 7},
	})
	require.NoError(t, err)
	op := Op{X: 0, Y: 2, Power: 3}
	ApplyOp(g, op)

	checkMove(t, g, op, MoveRight)
}

func TestInfeasibleMoves(t *testing.T) {
	g := New(5)
	tests := []struct {
		op   Op
		move Move
	}{
		{Op{0, 2, 1}, MoveLeft},
		{Op{4, 2, 1}, MoveRight},
		{Op{2, 0, 1}, MoveUp},
		{Op{2, 4, 1}, MoveDown},
		{Op{4, 4, 5}, MoveGrow},
		{Op{0, 0, 1}, MoveShrink},
	}
	for _, test := range tests {
		t.Run(test.move.String(), func(t *testing.T) {
			_, ok := Delta(g, test.op, test.move)
			assert.False(t, ok)

			op := test.op
			_, ok = ApplyMove(g, &op, test.move)
			assert.False(t, ok)
			assert.Equal(t, test.op, op)
			assert.True(t, New(5).Equal(g))
		})
	}
}

func TestMoveDirection(t *testing.T) {
	dx, dy, ok := MoveUp.Direction()
	assert.True(t, ok)
	assert.Equal(t, [2]int{0, -1}, [2]int{dx, dy})
	_, _, ok = MoveGrow.Direction()
	assert.False(t, ok)
}

func FuzzDelta(f *testing.F) {
	f.Add(uint64(1), uint8(5), uint8(0))
	f.Add(uint64(2), uint8(1), uint8(4))
	f.Add(uint64(3), uint8(9), uint8(5))
	f.Fuzz(func(t *testing.T, seed uint64, size uint8, m uint8) {
		n := 1 + int(size%16)
		r := rand.New(rand.NewPCG(seed, uint64(n)))
		g := randomGrid(r, n, 3*n)
		op := randomOp(r, n)
		ApplyOp(g, op)
		checkMove(t, g, op, Move(m%NumMoves))
	})
}
