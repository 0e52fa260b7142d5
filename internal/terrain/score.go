package terrain

// ScoreBase keeps scores positive. Only score differences matter to the search.
const ScoreBase int64 = 200_000_000

// Score is ScoreBase minus the total absolute residual height of g.
func Score(g *Grid) int64 {
	return ScoreBase - Residual(g)
}

// Residual is the sum of |h| over all cells of g.
func Residual(g *Grid) int64 {
	var sum int64
	for _, v := range g.cells {
		sum += int64(abs(v))
	}
	return sum
}

// Evaluate applies every op to a copy of input and returns the residual grid
// together with its score.
func Evaluate(input *Grid, ops []Op) (*Grid, int64) {
	g := input.Clone()
	for _, op := range ops {
		ApplyOp(g, op)
	}
	return g, Score(g)
}
