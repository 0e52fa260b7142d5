// Package textio reads height grids and writes operation lists.
package textio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/vancomm/flattener/internal/terrain"
)

var (
	ErrShortInput    = errors.New("not enough heights in input")
	ErrTrailingInput = errors.New("unexpected data after grid")
	ErrBadJSON       = errors.New("malformed grid json")
)

// ReadGrid reads n*n whitespace-separated integers in row-major order.
func ReadGrid(r io.Reader, n int) (*terrain.Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	g := terrain.New(n)
	for i := range n * n {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: got %d of %d", ErrShortInput, i, n*n)
		}
		v, err := strconv.Atoi(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("height %d: %w", i, err)
		}
		g.Set(i%n, i/n, v)
	}
	if sc.Scan() {
		return nil, fmt.Errorf("%w: %q", ErrTrailingInput, sc.Text())
	}
	return g, sc.Err()
}

// ReadGridJSON reads the "grid" field of a JSON document: an array of n rows
// of n integers each.
func ReadGridJSON(data []byte, n int) (*terrain.Grid, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrBadJSON
	}
	rows := gjson.GetBytes(data, "grid")
	if !rows.IsArray() {
		return nil, fmt.Errorf("%w: grid is not an array", ErrBadJSON)
	}

	g := terrain.New(n)
	y := 0
	var err error
	rows.ForEach(func(_, row gjson.Result) bool {
		if y >= n {
			err = fmt.Errorf("%w: more than %d rows", ErrTrailingInput, n)
			return false
		}
		cells := row.Array()
		if len(cells) != n {
			err = fmt.Errorf("%w: row %d has %d cells, want %d", ErrBadJSON, y, len(cells), n)
			return false
		}
		for x, c := range cells {
			if c.Type != gjson.Number {
				err = fmt.Errorf("%w: cell (%d, %d) is not a number", ErrBadJSON, x, y)
				return false
			}
			g.Set(x, y, int(c.Int()))
		}
		y++
		return true
	})
	if err != nil {
		return nil, err
	}
	if y < n {
		return nil, fmt.Errorf("%w: got %d of %d rows", ErrShortInput, y, n)
	}
	return g, nil
}

// WriteSolution writes the operation count followed by one "x y power" line
// per operation.
func WriteSolution(w io.Writer, ops []terrain.Op) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, len(ops))
	for _, op := range ops {
		fmt.Fprintln(bw, op.String())
	}
	return bw.Flush()
}
