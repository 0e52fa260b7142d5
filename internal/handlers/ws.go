package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vancomm/flattener/internal/anneal"
	"github.com/vancomm/flattener/internal/solve"
	"github.com/vancomm/flattener/internal/terrain"
)

// progressInterval throttles progress messages; a search can find thousands
// of improvements per second.
const progressInterval = 100 * time.Millisecond

type ProgressMessage struct {
	Type      string `json:"type"`
	Iteration int    `json:"iteration"`
	Score     int64  `json:"score"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

type ResultMessage struct {
	Type string `json:"type"`
	SolveDTO
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// SolveWS reads the grid from the first text message, streams progress while
// the search runs and finishes with a result message.
func (h *Handler) SolveWS(w http.ResponseWriter, r *http.Request) {
	s, params, err := h.solver(r.URL.Query())
	if err != nil {
		sendErrorOrLog(w, h.log, http.StatusBadRequest, err)
		return
	}

	c, err := h.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("unable to upgrade")
		return
	}
	defer c.Close()

	c.SetReadLimit(maxBodyBytes)
	mt, message, err := c.ReadMessage()
	if err != nil {
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			h.log.WithError(err).Warn("abnormal ws break")
		}
		return
	}
	if mt != websocket.TextMessage {
		h.writeWS(c, ErrorMessage{Type: "error", Error: "expected a text message"})
		return
	}

	message = bytes.TrimSpace(message)
	asJSON := len(message) > 0 && message[0] == '{'
	grid, err := h.parseGrid(message, asJSON, s.N)
	if err != nil {
		h.writeWS(c, ErrorMessage{Type: "error", Error: err.Error()})
		return
	}

	var initial []terrain.Op
	if params.Warm {
		initial = h.warmStart(r.Context(), grid, s)
	}

	var (
		lastSent time.Duration = -progressInterval
		broken   bool
	)
	out, err := solve.Run(solve.Request{
		Grid:    grid,
		Solver:  s,
		Initial: initial,
		OnImprove: func(p anneal.Progress) {
			if broken || p.Elapsed-lastSent < progressInterval {
				return
			}
			lastSent = p.Elapsed
			broken = !h.writeWS(c, ProgressMessage{
				Type:      "progress",
				Iteration: p.Iteration,
				Score:     p.Score,
				ElapsedMs: p.Elapsed.Milliseconds(),
			})
		},
	})
	if err != nil {
		h.log.WithError(err).Error("solve failed")
		h.writeWS(c, ErrorMessage{Type: "error", Error: err.Error()})
		return
	}

	runId := h.record(r.Context(), s, out)
	if broken {
		return
	}
	if h.writeWS(c, ResultMessage{Type: "result", SolveDTO: NewSolveDTO(out, runId)}) {
		c.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(h.ws.WriteTimeout),
		)
	}
}

func (h *Handler) writeWS(c *websocket.Conn, v any) bool {
	c.SetWriteDeadline(time.Now().Add(h.ws.WriteTimeout))
	if err := c.WriteJSON(v); err != nil {
		h.log.WithError(err).Warn("unable to write json")
		return false
	}
	return true
}
