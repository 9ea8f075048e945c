package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"relaychat/backend/internal/chathub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten for production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the HTTP connection and hands it to the gateway.
// The credential comes from the token query parameter (the structured
// handshake field, preferred) or the Authorization header. The upgrade goes
// through even with a bad credential: the session is marked rejected and the
// client gets an auth.error event instead of a dropped connection.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	credential := c.Query("token")
	if credential == "" {
		credential = bearerToken(c)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := chathub.NewWebSocketClient(conn, h.Hub)

	// The handshake runs exactly once per connection, before the pumps
	// start, so the auth event is the first frame the client sees.
	h.Hub.OnConnect(client, credential)
	h.Hub.RegisterCh <- client
	client.Run()
}
