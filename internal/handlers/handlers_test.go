package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/flattener/internal/config"
	"github.com/vancomm/flattener/internal/repository"
	"github.com/vancomm/flattener/internal/solve"
	"github.com/vancomm/flattener/internal/store"
	"github.com/vancomm/flattener/internal/terrain"
)

const peak = "0 0 0\n0 5 0\n0 0 0\n"

// fakeRuns keeps runs in memory and rejects duplicates the way the unique
// constraint does.
type fakeRuns struct {
	runs []repository.Run
}

func (f *fakeRuns) CreateRun(ctx context.Context, p repository.CreateRunParams) (*repository.Run, error) {
	for _, run := range f.runs {
		if run.Digest == p.Digest && run.Seed == int64(p.Seed) && run.Score == p.Score {
			return nil, repository.ErrDuplicateRun
		}
	}
	ops, err := repository.EncodeOps(p.Ops)
	if err != nil {
		return nil, err
	}
	run := repository.Run{
		RunId:     int64(len(f.runs) + 1),
		Digest:    p.Digest,
		N:         int32(p.N),
		K:         int32(p.K),
		Seed:      int64(p.Seed),
		Score:     p.Score,
		Ops:       ops,
		CreatedAt: time.Unix(0, 0).UTC(),
	}
	f.runs = append(f.runs, run)
	return &run, nil
}

func (f *fakeRuns) FetchRun(ctx context.Context, id int64) (*repository.Run, error) {
	if id < 1 || id > int64(len(f.runs)) {
		return nil, repository.ErrRunNotFound
	}
	run := f.runs[id-1]
	return &run, nil
}

func (f *fakeRuns) ListRuns(ctx context.Context, filter repository.RunFilter) ([]repository.RunSummary, error) {
	var out []repository.RunSummary
	for _, run := range f.runs {
		if filter.Digest != nil && *filter.Digest != run.Digest {
			continue
		}
		out = append(out, repository.RunSummary{RunId: run.RunId, Digest: run.Digest, Score: run.Score})
	}
	return out, nil
}

func (f *fakeRuns) BestRun(ctx context.Context, digest string) (*repository.Run, error) {
	var best *repository.Run
	for i, run := range f.runs {
		if run.Digest == digest && (best == nil || run.Score > best.Score) {
			best = &f.runs[i]
		}
	}
	if best == nil {
		return nil, repository.ErrRunNotFound
	}
	return best, nil
}

func newMux(t *testing.T, runs RunStore) *http.ServeMux {
	t.Helper()
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	ws, err := config.NewWebSocket()
	require.NoError(t, err)

	h, err := New(log, runs, ws, config.DefaultSolver(), solve.DefaultLimits())
	require.NoError(t, err)

	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func do(mux http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestSolveText(t *testing.T) {
	mux := newMux(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/solve?n=3&k=1&time_ms=0&seed=5", strings.NewReader(peak))
	rec := do(mux, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto SolveDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, uint64(5), dto.Seed)
	assert.Nil(t, dto.RunId)
	require.Len(t, dto.Ops, 1)

	input, err := terrain.FromRows([][]int{{0, 0, 0}, {0, 5, 0}, {0, 0, 0}})
	require.NoError(t, err)
	_, score := terrain.Evaluate(input, dto.Ops)
	assert.Equal(t, score, dto.Score)
}

func TestSolveJSONBody(t *testing.T) {
	mux := newMux(t, nil)
	body := `{"grid": [[0, 0, 0], [0, 5, 0], [0, 0, 0]]}`
	req := httptest.NewRequest(http.MethodPost, "/solve?n=3&k=2&time_ms=0&seed=1", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec := do(mux, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto SolveDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Len(t, dto.Ops, 2)
}

func TestSolveAcceptText(t *testing.T) {
	mux := newMux(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/solve?n=3&k=2&time_ms=0&seed=1", strings.NewReader(peak))
	req.Header.Set("Accept", "text/plain")
	rec := do(mux, req)
	require.Equal(t, http.StatusOK, rec.Code)

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2", lines[0])
}

func TestSolveBadRequests(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		contentType string
		body        string
	}{
		{"short grid", "n=3&k=1&time_ms=0", "", "1 2 3"},
		{"trailing data", "n=3&k=1&time_ms=0", "", peak + " 9"},
		{"not a number", "n=3&k=1&time_ms=0", "", "0 0 x 0 0 0 0 0 0"},
		{"bad param", "n=three", "", peak},
		{"zero k", "n=3&k=0", "", peak},
		{"too long", "n=3&k=1&time_ms=600000", "", peak},
		{"too large", "n=1000&k=1", "", peak},
		{"schema violation", "n=3&k=1&time_ms=0", "application/json", `{"grid": [["a"]]}`},
		{"missing grid", "n=3&k=1&time_ms=0", "application/json", `{"rows": []}`},
		{"wrong row count", "n=3&k=1&time_ms=0", "application/json", `{"grid": [[1, 2, 3]]}`},
	}
	mux := newMux(t, nil)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/solve?"+test.query, strings.NewReader(test.body))
			if test.contentType != "" {
				req.Header.Set("Content-Type", test.contentType)
			}
			rec := do(mux, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var msg map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
			assert.NotEmpty(t, msg["error"])
		})
	}
}

func TestSolveRecordsRun(t *testing.T) {
	runs := &fakeRuns{}
	mux := newMux(t, runs)

	post := func() SolveDTO {
		req := httptest.NewRequest(http.MethodPost, "/solve?n=3&k=1&time_ms=0&seed=9", strings.NewReader(peak))
		rec := do(mux, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var dto SolveDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		return dto
	}

	first := post()
	require.NotNil(t, first.RunId)
	assert.Equal(t, int64(1), *first.RunId)

	// same seed, same score: the duplicate is not recorded twice
	second := post()
	assert.Nil(t, second.RunId)
	assert.Len(t, runs.runs, 1)

	rec := do(mux, httptest.NewRequest(http.MethodGet, "/runs/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var run RunDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, first.Ops, run.Ops)
	assert.Equal(t, first.Score, run.Score)

	rec = do(mux, httptest.NewRequest(http.MethodGet, "/runs?digest="+first.Digest, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []repository.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(mux, httptest.NewRequest(http.MethodGet, "/runs?digest=nothing", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestBestRunAndWarmStart(t *testing.T) {
	runs := &fakeRuns{}
	mux := newMux(t, runs)

	// the only operation fully removes the peak
	input, err := terrain.FromRows([][]int{{0, 0, 0}, {0, 1, 0}, {0, 0, 0}})
	require.NoError(t, err)
	_, err = runs.CreateRun(context.Background(), repository.CreateRunParams{
		Digest: "d41d",
		N:      3,
		K:      1,
		Seed:   1,
		Score:  terrain.ScoreBase,
		Ops:    []terrain.Op{{X: 1, Y: 1, Power: 1}},
	})
	require.NoError(t, err)

	rec := do(mux, httptest.NewRequest(http.MethodGet, "/runs/best?digest=d41d", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var run RunDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, []terrain.Op{{X: 1, Y: 1, Power: 1}}, run.Ops)

	assert.Equal(t, http.StatusNotFound, do(mux, httptest.NewRequest(http.MethodGet, "/runs/best?digest=none", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, httptest.NewRequest(http.MethodGet, "/runs/best", nil)).Code)

	// record a run for the real digest, then warm-start from it
	runs.runs[0].Digest = store.Digest(input, 1)
	req := httptest.NewRequest(http.MethodPost, "/solve?n=3&k=1&time_ms=0&seed=2&warm=true",
		strings.NewReader("0 0 0\n0 1 0\n0 0 0\n"))
	rec = do(mux, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var dto SolveDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, []terrain.Op{{X: 1, Y: 1, Power: 1}}, dto.Ops)
	assert.Equal(t, terrain.ScoreBase, dto.Score)
}

func TestFetchRunErrors(t *testing.T) {
	mux := newMux(t, &fakeRuns{})
	assert.Equal(t, http.StatusNotFound, do(mux, httptest.NewRequest(http.MethodGet, "/runs/7", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, httptest.NewRequest(http.MethodGet, "/runs/seven", nil)).Code)
}

func TestRunsWithoutPersistence(t *testing.T) {
	mux := newMux(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(mux, httptest.NewRequest(http.MethodGet, "/runs", nil)).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(mux, httptest.NewRequest(http.MethodGet, "/runs/1", nil)).Code)
}

func TestStatus(t *testing.T) {
	rec := do(newMux(t, nil), httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status StatusDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.False(t, status.Persistence)
	assert.Equal(t, 100, status.Defaults.N)
}

func TestSolveWS(t *testing.T) {
	srv := httptest.NewServer(newMux(t, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/solve/ws?n=3&k=1&time_ms=20&seed=3"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(peak)))

	for {
		var msg map[string]any
		require.NoError(t, c.ReadJSON(&msg))
		if msg["type"] == "progress" {
			continue
		}
		require.Equal(t, "result", msg["type"], msg)
		assert.EqualValues(t, 3, msg["seed"])
		assert.Len(t, msg["ops"], 1)
		break
	}
}

func TestSolveWSBadGrid(t *testing.T) {
	srv := httptest.NewServer(newMux(t, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/solve/ws?n=3&k=1&time_ms=0"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(`{"grid": [[1]]}`)))

	var msg ErrorMessage
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.NotEmpty(t, msg.Error)
}
