package main

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sufikitchen/pkg/cart"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// cartSocketHandler streams the session cart: the current state first,
// then every change until the client disconnects.
// @Summary Cart updates
// @Description Upgrades to a WebSocket that pushes cart.State on every change
// @Success 101
// @Router /cart/ws [get]
func (s *Server) cartSocketHandler(w http.ResponseWriter, r *http.Request) {
	st := s.store(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logFor(r.Context()).Warn("websocket upgrade", zap.Error(err))
		return
	}

	updates, cancel := st.Subscribe()
	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, st.Snapshot(), updates, done)
	cancel()
}

// readPump discards client messages and closes done when the peer goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, initial cart.State, updates <-chan cart.State, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(initial); err != nil {
		return
	}

	for {
		select {
		case st, ok := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(st); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
