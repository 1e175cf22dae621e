package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/itinerary-planner/backend/internal/api/middleware"
	"github.com/itinerary-planner/backend/internal/session"
	ws "github.com/itinerary-planner/backend/internal/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMessage = 65536
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The timeline UI may be served from a dev server on another port
		return true
	},
}

// WebSocketUpgrade returns a handler that upgrades HTTP connections to
// WebSocket. A ?session= query subscribes the client right away; further
// sessions are subscribed with commands.
func WebSocketUpgrade(mgr *session.Manager, hub *ws.Hub) http.HandlerFunc {
	known := func(id string) bool {
		_, err := mgr.Get(id)
		return err == nil
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")
		if sessionID != "" && !known(sessionID) {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Session not found")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		client := ws.NewClient(hub)
		hub.Register(client)
		if sessionID != "" {
			hub.Subscribe(client, sessionID)
		}

		// Start read and write pumps
		go writePump(conn, client)
		go readPump(conn, client, hub, known)
	}
}

// writePump pumps messages from the hub to the WebSocket connection. It is
// the only goroutine writing to conn.
func writePump(conn *websocket.Conn, client *ws.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads client commands and queues their replies.
func readPump(conn *websocket.Conn, client *ws.Client, hub *ws.Hub, known func(string) bool) {
	defer func() {
		hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		reply := hub.HandleCommand(client, message, known)
		data, err := reply.JSON()
		if err != nil {
			log.Printf("Failed to serialize WebSocket reply: %v", err)
			continue
		}
		if !hub.Reply(client, data) {
			log.Printf("Dropping WebSocket reply %s", reply.Type)
		}
	}
}
