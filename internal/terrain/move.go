package terrain

// Move is one local edit of a single Op.
type Move uint8

const (
	MoveUp Move = iota
	MoveLeft
	MoveRight
	MoveDown
	MoveGrow
	MoveShrink

	NumMoves = 6
)

var directions = [4][2]int{
	MoveUp:    {0, -1},
	MoveLeft:  {-1, 0},
	MoveRight: {1, 0},
	MoveDown:  {0, 1},
}

func (m Move) String() string {
	switch m {
	case MoveUp:
		return "up"
	case MoveLeft:
		return "left"
	case MoveRight:
		return "right"
	case MoveDown:
		return "down"
	case MoveGrow:
		return "grow"
	case MoveShrink:
		return "shrink"
	default:
		return "unknown"
	}
}

// Direction returns the unit vector of a translate move.
func (m Move) Direction() (dx, dy int, ok bool) {
	if m > MoveDown {
		return 0, 0, false
	}
	d := directions[m]
	return d[0], d[1], true
}

// Delta returns the change in Score(g) that applying m to op would cause,
// without touching g. ok is false when the move is infeasible: the center
// would leave the grid or the power would leave [1, N].
func Delta(g *Grid, op Op, m Move) (delta int64, ok bool) {
	return move(g, &op, m, false)
}

// ApplyMove applies m to op and g in place and returns the realized score
// change. Infeasible moves leave both untouched and report ok == false.
func ApplyMove(g *Grid, op *Op, m Move) (delta int64, ok bool) {
	return move(g, op, m, true)
}

func move(g *Grid, op *Op, m Move, write bool) (int64, bool) {
	if dx, dy, ok := m.Direction(); ok {
		nx, ny := op.X+dx, op.Y+dy
		if !g.Inside(nx, ny) {
			return 0, false
		}
		r := op.Power - 1
		// The vacated half (offset <= 0 from the old center) loses one unit
		// of cover; the covered half (offset >= 0 from the new center) gains
		// one. The two halves are disjoint.
		delta := walk(g, op.X, op.Y, dx, dy, r, -r, 0, 1, write) +
			walk(g, nx, ny, dx, dy, r, 0, r, -1, write)
		if write {
			op.X, op.Y = nx, ny
		}
		return delta, true
	}

	var p, v int
	switch m {
	case MoveGrow:
		p, v = op.Power+1, -1
		if p > g.n {
			return 0, false
		}
	case MoveShrink:
		p, v = op.Power-1, 1
		if p < 1 {
			return 0, false
		}
	default:
		return 0, false
	}
	// Every cell within the larger of the two footprints changes by one.
	r := max(p, op.Power) - 1
	delta := walk(g, op.X, op.Y, 1, 0, r, -r, r, v, write)
	if write {
		op.Power = p
	}
	return delta, true
}

// walk visits the cells of the diamond of radius r centered at (cx, cy) whose
// offset along (dx, dy) lies in [lo, hi], and returns the score change of
// adding v to each of them. The residuals are written only when write is set.
// (cx, cy) must be inside g.
func walk(g *Grid, cx, cy, dx, dy, r, lo, hi, v int, write bool) int64 {
	px, py := abs(dy), abs(dx)
	step := px + py*g.n
	var delta int64
	for a := lo; a <= hi; a++ {
		bx, by := cx+a*dx, cy+a*dy
		if !g.Inside(bx, by) {
			continue
		}
		w := r - abs(a)
		p := bx*px + by*py
		b0, b1 := max(-w, -p), min(w, g.n-1-p)
		i := (by+b0*py)*g.n + bx + b0*px
		for b := b0; b <= b1; b++ {
			old := g.cells[i]
			delta += int64(abs(old) - abs(old+v))
			if write {
				g.cells[i] = old + v
			}
			i += step
		}
	}
	return delta
}
