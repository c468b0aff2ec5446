package feed

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/snookercounter/internal/model"
)

const (
	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Subscribers only ever send control frames
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients are authenticated by token, not by origin
		return true
	},
}

// ServeWS upgrades the connection and streams the hub's events as JSON text
// frames until either side closes
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, userID model.UserID, initial Message) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(hub, userID, TransportWebSocket)
	if !hub.Register(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
			time.Now().Add(writeWait))
		return conn.Close()
	}

	// The write pump has not started yet, so this is the only writer
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, initial.Data); err != nil {
		hub.Unregister(client)
		_ = conn.Close()
		return err
	}

	done := make(chan struct{})
	go client.readPump(conn, done)
	client.writePump(conn, done)
	return nil
}

// readPump discards inbound frames and watches for the peer going away
func (c *Client) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unregister(c)
		_ = conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message.Data); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
