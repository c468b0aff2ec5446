package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/snookercounter/internal/model"
	"github.com/mcoot/snookercounter/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name     string
		message  Message
		expected string
	}{
		{
			name:     "single line data",
			message:  Message{Event: "foul", Data: []byte(`{"penalty":-4}`)},
			expected: "event: foul\ndata: {\"penalty\":-4}\n\n",
		},
		{
			name:     "multi-line data",
			message:  Message{Event: "note", Data: []byte("a\nb\nc")},
			expected: "event: note\ndata: a\ndata: b\ndata: c\n\n",
		},
		{
			name:     "empty data",
			message:  Message{Event: "ping"},
			expected: "event: ping\ndata: \n\n",
		},
		{
			name:     "carriage returns and trailing newline",
			message:  Message{Event: "test", Data: []byte("line1\r\nline2\n")},
			expected: "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(formatSSEMessage(tt.message)))
		})
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case m, ok := <-c.send:
		require.True(t, ok, "client channel closed")
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	hub := NewHub("match-1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	a := NewClient(hub, "u1", TransportSSE)
	b := NewClient(hub, "u2", TransportWebSocket)
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))
	assert.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(Message{Event: "turn_ended", Data: []byte("{}")})

	assert.Equal(t, "turn_ended", receive(t, a).Event)
	assert.Equal(t, "turn_ended", receive(t, b).Event)

	hub.Unregister(a)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestClosedHubRejectsClients(t *testing.T) {
	hub := NewHub("match-1", testutil.NopLogger())
	go hub.Run()

	client := NewClient(hub, "u1", TransportSSE)
	require.True(t, hub.Register(client))

	hub.Close()
	hub.Close() // idempotent

	_, ok := <-client.send
	assert.False(t, ok, "closing the hub disconnects clients")
	assert.False(t, hub.Register(NewClient(hub, "u2", TransportSSE)))

	// Unregistering after close must not block
	hub.Unregister(client)
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	m.Publish(model.Event{Type: model.EventFoul, MatchID: "match-1"})
	assert.Nil(t, m.GetHub("match-1"))
}

func TestPublishEncodesEvents(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	hub := m.GetOrCreateHub("match-1")
	assert.Same(t, hub, m.GetOrCreateHub("match-1"))

	client := NewClient(hub, "u1", TransportSSE)
	require.True(t, hub.Register(client))

	m.Publish(model.Event{
		Type:     model.EventPointsScored,
		MatchID:  "match-1",
		PlayerID: "p1",
		Payload:  model.PointsPayload{Points: 7, CurrentBreak: 8},
	})

	msg := receive(t, client)
	assert.Equal(t, "points_scored", msg.Event)

	var decoded struct {
		Type     string               `json:"type"`
		PlayerID string               `json:"player_id"`
		Payload  model.PointsPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, "points_scored", decoded.Type)
	assert.Equal(t, "p1", decoded.PlayerID)
	assert.Equal(t, 7, decoded.Payload.Points)
}

func TestMatchDeletedEventClosesHubAfterDelivery(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	hub := m.GetOrCreateHub("match-1")
	client := NewClient(hub, "u1", TransportSSE)
	require.True(t, hub.Register(client))

	m.Publish(model.Event{Type: model.EventMatchDeleted, MatchID: "match-1"})

	assert.Equal(t, "match_deleted", receive(t, client).Event)
	assert.Nil(t, m.GetHub("match-1"))

	select {
	case _, ok := <-client.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("hub did not close after final event")
	}
}

func TestMatchDeletedEventClosesHubWhenBufferFull(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())

	// A hub whose loop is not running never drains its buffer
	hub := NewHub("match-1", testutil.NopLogger())
	m.hubs["match-1"] = hub
	for hub.Broadcast(Message{Event: "points_scored"}) {
	}

	m.Publish(model.Event{Type: model.EventMatchDeleted, MatchID: "match-1"})

	assert.Nil(t, m.GetHub("match-1"))
	select {
	case <-hub.done:
	default:
		t.Fatal("hub left open after its final event was dropped")
	}
	assert.False(t, hub.Register(NewClient(hub, "u1", TransportSSE)))
}

func TestCleanupEmptyHubs(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	busy := m.GetOrCreateHub("busy")
	require.True(t, busy.Register(NewClient(busy, "u1", TransportSSE)))
	assert.Eventually(t, func() bool { return busy.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	m.GetOrCreateHub("idle")

	m.CleanupEmptyHubs()

	assert.NotNil(t, m.GetHub("busy"))
	assert.Nil(t, m.GetHub("idle"))
}

func TestServeSSEStreamsEvents(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := m.GetOrCreateHub("match-1")
		ServeSSE(w, r, hub, "u1", Message{Event: "snapshot", Data: []byte(`{"id":"match-1"}`)})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var event, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "":
				return event, data
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		}
	}

	event, data := readEvent()
	assert.Equal(t, "snapshot", event)
	assert.JSONEq(t, `{"id":"match-1"}`, data)

	require.Eventually(t, func() bool {
		hub := m.GetHub("match-1")
		return hub != nil && hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	m.Publish(model.Event{Type: model.EventTurnEnded, MatchID: "match-1"})

	event, data = readEvent()
	assert.Equal(t, "turn_ended", event)
	assert.Contains(t, data, `"type":"turn_ended"`)
}

func TestServeWSStreamsEvents(t *testing.T) {
	m := NewHubManager(testutil.NopLogger())
	defer m.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := m.GetOrCreateHub("match-1")
		_ = ServeWS(w, r, hub, "u1", Message{Event: "snapshot", Data: []byte(`{"id":"match-1"}`)})
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"match-1"}`, string(data))

	require.Eventually(t, func() bool {
		hub := m.GetHub("match-1")
		return hub != nil && hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	m.Publish(model.Event{Type: model.EventFoul, MatchID: "match-1", Payload: model.FoulPayload{Penalty: -4}})

	_, data, err = conn.ReadMessage()
	require.NoError(t, err)

	var decoded model.Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, model.EventFoul, decoded.Type)
	assert.Equal(t, model.MatchID("match-1"), decoded.MatchID)

	// Closing the client unregisters it
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return m.GetHub("match-1").ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSnapshotMessage(t *testing.T) {
	match := &model.Match{ID: "match-1", Number: 4821, FrameNumber: 2}
	at := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

	message, err := SnapshotMessage(match, at)
	require.NoError(t, err)
	assert.Equal(t, "snapshot", message.Event)
	assert.False(t, message.final)

	var event model.Event
	require.NoError(t, json.Unmarshal(message.Data, &event))
	assert.Equal(t, model.EventSnapshot, event.Type)
	assert.Equal(t, model.MatchID("match-1"), event.MatchID)
	require.NotNil(t, event.Match)
	assert.Equal(t, 4821, event.Match.Number)
	assert.True(t, at.Equal(event.Timestamp))
}
