package chathub

import (
	"context"
	"log"
	"strings"
	"sync"
	"unicode/utf8"

	"relaychat/backend/internal/auth"
	"relaychat/backend/internal/models"
	"relaychat/backend/internal/storage"
)

// Wire-visible failure codes for channel operations. Authorization failures
// stay generic on purpose: the client never learns which check tripped.
const (
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeInvalidChannel = "INVALID_CHANNEL"
	ErrCodeInvalidContent = "INVALID_CONTENT"
	ErrCodeJoinFailed     = "JOIN_FAILED"
	ErrCodeSendFailed     = "SEND_FAILED"
)

// MaxContentLength is the message body limit, applied after trimming.
const MaxContentLength = 500

// GatewayService owns the set of live connections and the channel rooms.
// The Clients map is touched only by the Run loop goroutine and is fed
// through the register/unregister channels; room membership lives in the
// lock-protected registry so broadcasts can run from any goroutine.
type GatewayService struct {
	Clients map[Client]struct{}

	RegisterCh   chan Client
	UnregisterCh chan Client

	Storage  storage.Storage
	Verifier *auth.Verifier

	rooms *roomRegistry

	// sendMu serializes the persist→broadcast pair per channel. Without it
	// two concurrent senders could fan out concurrently and room members
	// would observe the stream in different orders.
	sendMu map[models.ChannelKey]*sync.Mutex
}

// NewGatewayService Constructor
func NewGatewayService(s storage.Storage, v *auth.Verifier) *GatewayService {
	return &GatewayService{
		Clients:      make(map[Client]struct{}),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		Storage:      s,
		Verifier:     v,
		rooms:        newRoomRegistry(),
		sendMu: map[models.ChannelKey]*sync.Mutex{
			models.ChannelGeneral: {},
			models.ChannelSupport: {},
		},
	}
}

// Run is the gateway's dispatcher loop. It is the sole owner of the Clients
// map for the life of the process.
func (g *GatewayService) Run() {
	for {
		select {
		case client := <-g.RegisterCh:
			g.Clients[client] = struct{}{}

		case client := <-g.UnregisterCh:
			if _, ok := g.Clients[client]; ok {
				delete(g.Clients, client)
				g.rooms.removeAll(client)
				client.Close()
			}
		}
	}
}

// OnConnect runs the authentication handshake for a fresh connection. This
// is the only place live-connection authentication happens; it runs exactly
// once per connection. The connection is kept open on failure, the session
// is just marked rejected so later operations short-circuit.
func (g *GatewayService) OnConnect(client Client, credential string) {
	session := client.GetSession()

	principal, err := g.Verifier.Verify(credential)
	if err != nil {
		session.Reject()
		client.GetSendChannel() <- models.Event{
			Event: models.EventAuthError,
			Data:  models.AuthErrorPayload{Error: err.Error()},
		}
		return
	}

	session.Authenticate(principal)
	client.GetSendChannel() <- models.Event{
		Event: models.EventAuthOK,
		Data:  models.AuthOKPayload{ID: principal.SubjectID, Role: principal.Role},
	}
}

// OnDisconnect releases everything associated with the connection. Room
// memberships dissolve implicitly; no persisted state is touched. Safe to
// call more than once.
func (g *GatewayService) OnDisconnect(client Client) {
	g.UnregisterCh <- client
}

// JoinChannel registers the client in the channel's broadcast room after the
// session and policy checks pass. Membership only affects receiving
// broadcasts; posting rights are checked per send.
func (g *GatewayService) JoinChannel(client Client, channel string) (ack models.Ack) {
	// A fault inside the join path must never take down the connection.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: panic in JoinChannel: %v", r)
			ack = models.Ack{OK: false, Error: ErrCodeJoinFailed}
		}
	}()

	session := client.GetSession()
	principal := session.Principal()
	if principal == nil {
		return models.Ack{OK: false, Error: ErrCodeUnauthorized}
	}

	key, ok := models.ParseChannelKey(channel)
	if !ok {
		return models.Ack{OK: false, Error: ErrCodeInvalidChannel}
	}
	if !auth.CanAccessChannel(key, principal.Role) {
		return models.Ack{OK: false, Error: ErrCodeForbidden}
	}

	g.rooms.add(key, client)
	session.MarkJoined(key)
	return models.Ack{OK: true, Joined: &key}
}

// SendMessage validates, persists and then broadcasts one message. The
// broadcast happens only after the store call succeeded, and the channel's
// send lock is held across both, so every room member observes message.new
// events in persistence-completion order. A persistence failure is reported
// to the sender alone.
func (g *GatewayService) SendMessage(ctx context.Context, client Client, channel, rawContent string) (ack models.Ack) {
	// A fault inside the send path must never take down the connection.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: panic in SendMessage: %v", r)
			ack = models.Ack{OK: false, Error: ErrCodeSendFailed}
		}
	}()

	session := client.GetSession()
	principal := session.Principal()
	if principal == nil {
		return models.Ack{OK: false, Error: ErrCodeUnauthorized}
	}

	key, ok := models.ParseChannelKey(channel)
	if !ok {
		return models.Ack{OK: false, Error: ErrCodeInvalidChannel}
	}
	if !auth.CanAccessChannel(key, principal.Role) {
		return models.Ack{OK: false, Error: ErrCodeForbidden}
	}

	content := strings.TrimSpace(rawContent)
	if content == "" || utf8.RuneCountInString(content) > MaxContentLength {
		return models.Ack{OK: false, Error: ErrCodeInvalidContent}
	}

	msg := &models.Message{
		ChannelKey: key,
		AuthorID:   principal.SubjectID,
		AuthorRole: principal.Role,
		Content:    content,
	}
	mu := g.sendMu[key]
	mu.Lock()
	defer mu.Unlock()

	if err := g.Storage.SaveMessage(ctx, msg); err != nil {
		return models.Ack{OK: false, Error: ErrCodeSendFailed}
	}

	g.rooms.broadcast(key, models.Event{Event: models.EventMessageNew, Data: *msg})
	return models.Ack{OK: true, MessageID: msg.ID}
}
