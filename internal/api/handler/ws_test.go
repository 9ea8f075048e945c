package handler_test

import (
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

	"relaychat/backend/internal/models"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialWS(t *testing.T, server *httptest.Server, token string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

// readUntil skips frames until the wanted event arrives. Keeps tests
// independent of the queueing order between broadcasts and acks.
func readUntil(t *testing.T, conn *websocket.Conn, event string) frame {
	t.Helper()
	for i := 0; i < 10; i++ {
		f := readFrame(t, conn)
		if f.Event == event {
			return f
		}
	}
	t.Fatalf("did not receive %s event", event)
	return frame{}
}

func writeFrame(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func decodeAck(t *testing.T, f frame) models.Ack {
	t.Helper()
	var ack models.Ack
	require.NoError(t, json.Unmarshal(f.Data, &ack))
	return ack
}

func joinChannel(t *testing.T, conn *websocket.Conn, channel string) models.Ack {
	t.Helper()
	writeFrame(t, conn, models.EventJoin, models.JoinPayload{Channel: channel})
	return decodeAck(t, readUntil(t, conn, models.EventJoinResult))
}

func TestWebSocket_AuthHandshake(t *testing.T) {
	r, _ := newTestRouter(t)
	server := httptest.NewServer(r)
	defer server.Close()

	conn := dialWS(t, server, signToken(t, "user-a", "user"), nil)

	f := readFrame(t, conn)
	assert.Equal(t, models.EventAuthOK, f.Event)
	var payload models.AuthOKPayload
	require.NoError(t, json.Unmarshal(f.Data, &payload))
	assert.Equal(t, "user-a", payload.ID)
	assert.Equal(t, models.RoleUser, payload.Role)
}

func TestWebSocket_BearerHeaderFallback(t *testing.T) {
	r, _ := newTestRouter(t)
	server := httptest.NewServer(r)
	defer server.Close()

	header := http.Header{"Authorization": {"Bearer " + signToken(t, "user-h", "user")}}
	conn := dialWS(t, server, "", header)

	f := readFrame(t, conn)
	assert.Equal(t, models.EventAuthOK, f.Event)
}

// A bad credential keeps the connection open but every channel operation
// returns UNAUTHORIZED.
func TestWebSocket_RejectedConnection(t *testing.T) {
	r, _ := newTestRouter(t)
	server := httptest.NewServer(r)
	defer server.Close()

	conn := dialWS(t, server, "garbage", nil)

	f := readFrame(t, conn)
	assert.Equal(t, models.EventAuthError, f.Event)

	ack := joinChannel(t, conn, "general")
	assert.False(t, ack.OK)
	assert.Equal(t, "UNAUTHORIZED", ack.Error)

	writeFrame(t, conn, models.EventSend, models.SendPayload{Channel: "general", Content: "hi"})
	ack = decodeAck(t, readUntil(t, conn, models.EventSendResult))
	assert.False(t, ack.OK)
	assert.Equal(t, "UNAUTHORIZED", ack.Error)
}

// The full scenario: A and B share general; B is not in support, so admin
// traffic there never reaches B.
func TestWebSocket_BroadcastScenario(t *testing.T) {
	r, s := newTestRouter(t)
	server := httptest.NewServer(r)
	defer server.Close()

	connA := dialWS(t, server, signToken(t, "user-a", "user"), nil)
	connB := dialWS(t, server, signToken(t, "user-b", "user"), nil)
	connC := dialWS(t, server, signToken(t, "admin-c", "admin"), nil)
	readFrame(t, connA)
	readFrame(t, connB)
	readFrame(t, connC)

	require.True(t, joinChannel(t, connA, "general").OK)
	require.True(t, joinChannel(t, connB, "general").OK)
	require.True(t, joinChannel(t, connC, "support").OK)
	require.True(t, joinChannel(t, connC, "general").OK)

	// A posts to general.
	writeFrame(t, connA, models.EventSend, models.SendPayload{Channel: "general", Content: "hi"})
	sendAck := decodeAck(t, readUntil(t, connA, models.EventSendResult))
	require.True(t, sendAck.OK)
	require.NotEmpty(t, sendAck.MessageID)

	// B observes exactly one message.new with A's message.
	f := readUntil(t, connB, models.EventMessageNew)
	var msg models.Message
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, "user-a", msg.AuthorID)
	assert.Equal(t, sendAck.MessageID, msg.ID)

	// The broadcast message was persisted first: it is retrievable over the
	// history endpoint with the same attributes.
	listed, err := s.ListMessages(context.Background(),models.ChannelGeneral, 10, "")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, sendAck.MessageID, listed[0].ID)
	assert.Equal(t, "hi", listed[0].Content)
	assert.Equal(t, models.RoleUser, listed[0].AuthorRole)

	// C posts to support, then a marker to general. The next message.new B
	// sees must be the marker: the support message never reached B.
	writeFrame(t, connC, models.EventSend, models.SendPayload{Channel: "support", Content: "escalation"})
	require.True(t, decodeAck(t, readUntil(t, connC, models.EventSendResult)).OK)

	writeFrame(t, connC, models.EventSend, models.SendPayload{Channel: "general", Content: "marker"})
	require.True(t, decodeAck(t, readUntil(t, connC, models.EventSendResult)).OK)

	f = readUntil(t, connB, models.EventMessageNew)
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	assert.Equal(t, "marker", msg.Content)
}

func TestWebSocket_UserCannotJoinSupport(t *testing.T) {
	r, _ := newTestRouter(t)
	server := httptest.NewServer(r)
	defer server.Close()

	conn := dialWS(t, server, signToken(t, "user-a", "user"), nil)
	readFrame(t, conn)

	ack := joinChannel(t, conn, "support")
	assert.False(t, ack.OK)
	assert.Equal(t, "FORBIDDEN", ack.Error)
}
