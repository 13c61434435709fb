package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	ws "github.com/channel-sync/backend/internal/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// dashboard is served from another origin
		return true
	},
}

// WebSocketUpgrade returns a handler that upgrades to a notification stream.
func WebSocketUpgrade(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		client := ws.NewClient(hub)
		hub.Register(client)

		replies := make(chan []byte, 8)
		go writePump(conn, client, replies)
		go readPump(conn, client, hub, replies)
	}
}

// writePump is the connection's only writer.
func writePump(conn *websocket.Conn, client *ws.Client, replies <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		var (
			message []byte
			ok      bool
		)
		select {
		case message, ok = <-client.Send():
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
		case message = <-replies:
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

func readPump(conn *websocket.Conn, client *ws.Client, hub *ws.Hub, replies chan<- []byte) {
	defer func() {
		hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(65536)
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
			return
		}

		reply := clientReply(message)
		data, err := reply.JSON()
		if err != nil {
			continue
		}
		select {
		case replies <- data:
		default:
		}
	}
}

// clientReply answers a client command. Only ping is understood; the stream
// itself is not filterable.
func clientReply(message []byte) ws.Message {
	var cmd struct {
		Type ws.MessageType `json:"type"`
	}
	if err := json.Unmarshal(message, &cmd); err != nil {
		return ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: "invalid_message", Message: "Message is not JSON"})
	}
	if cmd.Type == ws.TypePing {
		return ws.NewMessage(ws.TypePong, nil)
	}
	return ws.NewMessage(ws.TypeError, ws.ErrorPayload{
		Code:         "unsupported",
		Message:      "Unsupported message type",
		OriginalType: string(cmd.Type),
	})
}
