package chathub

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"relaychat/backend/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Inbound frame limit: a 500-character body plus the event envelope.
	maxMessageSize = 4096

	// SendBufferSize is the per-connection outbound queue. A client that
	// falls this far behind starts missing broadcasts instead of stalling
	// senders.
	SendBufferSize = 256
)

// WebSocketClient implements the chathub.Client interface on top of a
// gorilla/websocket connection.
type WebSocketClient struct {
	Session *Session
	Conn    *websocket.Conn
	Gateway *GatewayService
	Send    chan models.Event
}

func NewWebSocketClient(conn *websocket.Conn, gateway *GatewayService) *WebSocketClient {
	return &WebSocketClient{
		Session: NewSession(),
		Conn:    conn,
		Gateway: gateway,
		Send:    make(chan models.Event, SendBufferSize),
	}
}

// --- Client interface ---

func (c *WebSocketClient) GetSession() *Session                { return c.Session }
func (c *WebSocketClient) GetSendChannel() chan<- models.Event { return c.Send }

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the Send channel, which stops the write pump.
func (c *WebSocketClient) Close() {
	close(c.Send)
}

// queue puts an event on the client's own outbound channel without ever
// blocking the read pump.
func (c *WebSocketClient) queue(ev models.Event) {
	select {
	case c.Send <- ev:
	default:
		log.Printf("WARNING: outbound queue full, dropping %s event", ev.Event)
	}
}

// readPump reads frames off the socket and dispatches channel operations
// through the gateway. Every operation resolves to an ack event on the same
// connection; a bad frame is skipped, never fatal.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Gateway.OnDisconnect(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			break
		}

		var env models.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("Error decoding frame: %v", err)
			continue
		}

		switch env.Event {
		case models.EventJoin:
			var payload models.JoinPayload
			if err := json.Unmarshal(env.Data, &payload); err != nil {
				c.queue(models.Event{Event: models.EventJoinResult, Data: models.Ack{OK: false, Error: ErrCodeInvalidChannel}})
				continue
			}
			ack := c.Gateway.JoinChannel(c, payload.Channel)
			c.queue(models.Event{Event: models.EventJoinResult, Data: ack})

		case models.EventSend:
			var payload models.SendPayload
			if err := json.Unmarshal(env.Data, &payload); err != nil {
				c.queue(models.Event{Event: models.EventSendResult, Data: models.Ack{OK: false, Error: ErrCodeInvalidContent}})
				continue
			}
			ack := c.Gateway.SendMessage(context.Background(), c, payload.Channel, payload.Content)
			c.queue(models.Event{Event: models.EventSendResult, Data: ack})

		default:
			log.Printf("Unknown event %q from client", env.Event)
		}
	}
}

// writePump drains the Send channel onto the socket and keeps the
// connection alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed by the gateway, close the socket.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("Error encoding %s event: %v", ev.Event, err)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

			// Drain whatever else is already queued.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				next := <-c.Send
				extra, err := json.Marshal(next)
				if err != nil {
					continue
				}
				if err := c.Conn.WriteMessage(websocket.TextMessage, extra); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
