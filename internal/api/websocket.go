package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wnt/memetrack/internal/broadcast"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the dashboard origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades the connection and attaches it to the event
// hub. Incoming text frames are echoed back to the sender only; domain
// events reach the client through the hub subscription.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	sub := s.hub.Subscribe()
	echoes := make(chan broadcast.Event, 8)

	go s.writePump(conn, sub, echoes)
	s.readPump(conn, sub, echoes)
}

// readPump consumes client frames until the connection drops. It is the
// only reader of the connection and owns teardown of the subscription.
func (s *Server) readPump(conn *websocket.Conn, sub *broadcast.Subscriber, echoes chan<- broadcast.Event) {
	defer func() {
		s.hub.Unsubscribe(sub)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("WebSocket closed unexpectedly")
			}
			return
		}
		select {
		case echoes <- broadcast.Event{Type: broadcast.EventEcho, Data: map[string]string{"message": string(message)}}:
		default:
			// Client is flooding echoes faster than it reads, drop
		}
	}
}

// writePump is the only writer of the connection. It drains both the hub
// subscription and the echo channel and keeps the connection alive with
// pings.
func (s *Server) writePump(conn *websocket.Conn, sub *broadcast.Subscriber, echoes <-chan broadcast.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		var event broadcast.Event
		select {
		case event = <-sub.C:
		case event = <-echoes:
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		case <-sub.Done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}
