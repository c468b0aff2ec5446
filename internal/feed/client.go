package feed

import (
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/snookercounter/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 64
)

// Transport names, also used as metric labels
const (
	TransportSSE       = "sse"
	TransportWebSocket = "ws"
)

// Client is one live subscriber of a hub
type Client struct {
	hub         *Hub
	userID      model.UserID
	transport   string
	send        chan Message
	connectedAt time.Time
}

// NewClient creates a new client for the hub
func NewClient(hub *Hub, userID model.UserID, transport string) *Client {
	return &Client{
		hub:         hub,
		userID:      userID,
		transport:   transport,
		send:        make(chan Message, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// ServeSSE streams the hub's events to w until the client disconnects or the
// hub closes. initial is written first so a new subscriber starts from the
// current state.
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, userID model.UserID, initial Message) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	client := NewClient(hub, userID, TransportSSE)
	if !hub.Register(client) {
		http.Error(w, "Feed closed", http.StatusGone)
		return
	}
	defer hub.Unregister(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(formatSSEMessage(initial)); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			if _, err := w.Write(formatSSEMessage(message)); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// formatSSEMessage frames a message as a Server-Sent Event. Every line of the
// payload gets its own data field.
func formatSSEMessage(m Message) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(m.Event)
	b.WriteByte('\n')

	data := strings.ReplaceAll(string(m.Data), "\r\n", "\n")
	for _, line := range strings.Split(strings.TrimSuffix(data, "\n"), "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
