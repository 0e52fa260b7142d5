package repository

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vancomm/flattener/internal/terrain"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrDuplicateRun = errors.New("run already recorded")
)

type Run struct {
	RunId      int64     `db:"run_id" json:"run_id"`
	Digest     string    `db:"digest" json:"digest"`
	N          int32     `db:"n" json:"n"`
	K          int32     `db:"k" json:"k"`
	Seed       int64     `db:"seed" json:"seed"`
	Score      int64     `db:"score" json:"score"`
	Iterations int64     `db:"iterations" json:"iterations"`
	ElapsedMs  int64     `db:"elapsed_ms" json:"elapsed_ms"`
	Ops        []byte    `db:"ops" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RunSummary is a Run without its operations.
type RunSummary struct {
	RunId      int64     `db:"run_id" json:"run_id"`
	Digest     string    `db:"digest" json:"digest"`
	N          int32     `db:"n" json:"n"`
	K          int32     `db:"k" json:"k"`
	Seed       int64     `db:"seed" json:"seed"`
	Score      int64     `db:"score" json:"score"`
	Iterations int64     `db:"iterations" json:"iterations"`
	ElapsedMs  int64     `db:"elapsed_ms" json:"elapsed_ms"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

func EncodeOps(ops []terrain.Op) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ops); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeOps(data []byte) ([]terrain.Op, error) {
	var ops []terrain.Op
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&ops); err != nil {
		return nil, err
	}
	return ops, nil
}

func (r Run) Solution() ([]terrain.Op, error) {
	return DecodeOps(r.Ops)
}

type CreateRunParams struct {
	Digest     string
	N, K       int
	Seed       uint64
	Score      int64
	Iterations int
	Elapsed    time.Duration
	Ops        []terrain.Op
}

func (p CreateRunParams) Args() (pgx.NamedArgs, error) {
	ops, err := EncodeOps(p.Ops)
	if err != nil {
		return nil, fmt.Errorf("unable to encode ops: %w", err)
	}
	return pgx.NamedArgs{
		"digest":     p.Digest,
		"n":          p.N,
		"k":          p.K,
		"seed":       int64(p.Seed), // bit pattern kept; bigint is signed
		"score":      p.Score,
		"iterations": p.Iterations,
		"elapsed_ms": p.Elapsed.Milliseconds(),
		"ops":        ops,
	}, nil
}

func (q Queries) CreateRun(ctx context.Context, params CreateRunParams) (*Run, error) {
	args, err := params.Args()
	if err != nil {
		return nil, err
	}
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO run (
			digest, n, k, seed, score, iterations, elapsed_ms, ops
		)
		VALUES (
			@digest, @n, @k, @seed, @score, @iterations, @elapsed_ms, @ops
		)
		RETURNING *;`,
		args,
	)
	run, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Run])
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRun, pgErr.ConstraintName)
	}
	return run, err
}

func (q Queries) FetchRun(ctx context.Context, runId int64) (*Run, error) {
	rows, _ := q.db.Query(ctx, "SELECT * FROM run WHERE run_id = $1", runId)
	run, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Run])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// BestRun returns the highest scoring run recorded for digest.
func (q Queries) BestRun(ctx context.Context, digest string) (*Run, error) {
	rows, _ := q.db.Query(
		ctx,
		`SELECT * FROM run WHERE digest = $1 ORDER BY score DESC, run_id LIMIT 1`,
		digest,
	)
	run, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Run])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

type RunFilter struct {
	Digest *string
	N      *int
	K      *int
	Limit  int
}

func (f RunFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := make([]string, 0)
	args := pgx.NamedArgs{}
	if f.Digest != nil {
		clauses = append(clauses, "digest = @digest")
		args["digest"] = *f.Digest
	}
	if f.N != nil {
		clauses = append(clauses, "n = @n")
		args["n"] = *f.N
	}
	if f.K != nil {
		clauses = append(clauses, "k = @k")
		args["k"] = *f.K
	}
	return strings.Join(clauses, " AND "), args
}

const defaultRunLimit = 100

func (q Queries) ListRuns(ctx context.Context, filter RunFilter) ([]RunSummary, error) {
	query := `
	SELECT
		run_id,
		digest,
		n,
		k,
		seed,
		score,
		iterations,
		elapsed_ms,
		created_at
	FROM run
	`

	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		query += " WHERE " + whereClause
	}

	limit := filter.Limit
	if limit <= 0 || limit > defaultRunLimit {
		limit = defaultRunLimit
	}
	args["limit"] = limit
	query += " ORDER BY score DESC, run_id LIMIT @limit;"

	rows, err := q.db.Query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[RunSummary])
}
