package models

import "encoding/json"

// Event names multiplexed over a live connection.
const (
	EventAuthOK     = "auth.ok"
	EventAuthError  = "auth.error"
	EventJoin       = "channel.join"
	EventJoinResult = "channel.join.result"
	EventSend       = "message.send"
	EventSendResult = "message.send.result"
	EventMessageNew = "message.new"
)

// Envelope is the raw frame read off a live connection: an event name plus
// its undecoded payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is an outbound frame queued for a client's write pump.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// AuthOKPayload confirms a successful authentication handshake.
type AuthOKPayload struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// AuthErrorPayload reports a failed authentication handshake.
type AuthErrorPayload struct {
	Error string `json:"error"`
}

// JoinPayload is the client request to join a channel's broadcast room.
type JoinPayload struct {
	Channel string `json:"channel"`
}

// SendPayload is the client request to post a message to a channel.
type SendPayload struct {
	Channel string `json:"channel"`
	Content string `json:"content"`
}

// Ack is the structured result returned for every client-initiated channel
// operation. Joined or MessageID is set on success, Error on failure.
type Ack struct {
	OK        bool        `json:"ok"`
	Joined    *ChannelKey `json:"joined,omitempty"`
	MessageID string      `json:"messageId,omitempty"`
	Error     string      `json:"error,omitempty"`
}
