package chathub

import (
	"sync"

	"relaychat/backend/internal/auth"
	"relaychat/backend/internal/models"
)

// SessionState is the lifecycle state of one live connection.
type SessionState int

const (
	// StateConnecting is the initial state, before the authentication
	// handshake has settled.
	StateConnecting SessionState = iota
	// StateAuthenticated means the handshake succeeded. The only way out is
	// disconnect.
	StateAuthenticated
	// StateRejected means the handshake failed. The connection stays open
	// but every channel operation short-circuits with UNAUTHORIZED.
	StateRejected
)

// Session holds the per-connection state: authentication outcome, principal
// identity and the set of joined channels. Membership only grows; there is
// no leave operation, and everything vanishes on disconnect.
//
// The gateway serializes operations per connection, but the session is also
// read during broadcasts, so all access goes through the mutex.
type Session struct {
	mu        sync.RWMutex
	state     SessionState
	principal *auth.Principal
	joined    map[models.ChannelKey]struct{}
}

func NewSession() *Session {
	return &Session{
		state:  StateConnecting,
		joined: make(map[models.ChannelKey]struct{}),
	}
}

// Authenticate settles the handshake successfully. The principal is set
// exactly once; calls after the state has left Connecting are ignored.
func (s *Session) Authenticate(p *auth.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return
	}
	s.state = StateAuthenticated
	s.principal = p
}

// Reject settles the handshake as failed. Ignored once settled.
func (s *Session) Reject() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return
	}
	s.state = StateRejected
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Principal returns the authenticated identity, or nil unless the session
// is Authenticated.
func (s *Session) Principal() *auth.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateAuthenticated {
		return nil
	}
	return s.principal
}

// MarkJoined records channel membership. Only called after the join passed
// the access policy.
func (s *Session) MarkJoined(channel models.ChannelKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joined[channel] = struct{}{}
}

func (s *Session) HasJoined(channel models.ChannelKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.joined[channel]
	return ok
}

// JoinedChannels returns a snapshot of the membership set.
func (s *Session) JoinedChannels() []models.ChannelKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	channels := make([]models.ChannelKey, 0, len(s.joined))
	for ch := range s.joined {
		channels = append(channels, ch)
	}
	return channels
}
