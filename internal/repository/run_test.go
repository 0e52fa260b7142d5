package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/flattener/internal/terrain"
)

func TestOpsEncoding(t *testing.T) {
	ops := []terrain.Op{{X: 1, Y: 2, Power: 3}, {X: 99, Y: 0, Power: 100}}
	data, err := EncodeOps(ops)
	require.NoError(t, err)

	got, err := Run{Ops: data}.Solution()
	require.NoError(t, err)
	assert.Equal(t, ops, got)

	_, err = DecodeOps([]byte("garbage"))
	assert.Error(t, err)
}

func TestRunFilterWhereClause(t *testing.T) {
	clause, args := RunFilter{}.WhereClause()
	assert.Empty(t, clause)
	assert.Empty(t, args)

	digest, n := "abc", 100
	clause, args = RunFilter{Digest: &digest, N: &n}.WhereClause()
	assert.Equal(t, "digest = @digest AND n = @n", clause)
	assert.Equal(t, "abc", args["digest"])
	assert.Equal(t, 100, args["n"])
	assert.NotContains(t, args, "k")
}

func TestCreateRunParamsArgs(t *testing.T) {
	args, err := CreateRunParams{
		Digest:     "abc",
		N:          3,
		K:          1,
		Seed:       1 << 63,
		Score:      10,
		Iterations: 5,
		Elapsed:    1500 * time.Millisecond,
		Ops:        []terrain.Op{{X: 1, Y: 1, Power: 1}},
	}.Args()
	require.NoError(t, err)

	assert.Equal(t, int64(-1<<63), args["seed"])
	assert.Equal(t, int64(1500), args["elapsed_ms"])
	assert.NotEmpty(t, args["ops"])
}
