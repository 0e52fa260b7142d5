package config

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type WebSocket struct {
	Upgrader     websocket.Upgrader
	WriteTimeout time.Duration
}

func NewWebSocket() (*WebSocket, error) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	ws := &WebSocket{
		Upgrader:     upgrader,
		WriteTimeout: 10 * time.Second,
	}

	return ws, nil
}
