package chathub

import "relaychat/backend/internal/models"

// Client is the interface for one live connection. It abstracts the
// underlying transport, allowing the gateway to manage connections uniformly
// and tests to substitute in-memory doubles.
type Client interface {
	// GetSession returns the connection's session state. The session is
	// created together with the client and lives until disconnect.
	GetSession() *Session

	// GetSendChannel returns the channel to which the gateway queues events
	// intended for this specific connection. It is a send-only channel.
	GetSendChannel() chan<- models.Event

	// Run starts the client's read and write pumps, which handle incoming
	// and outgoing frames.
	Run()

	// Close shuts down the client's outbound channel, stopping its write
	// pump. Called by the gateway exactly once, on unregister.
	Close()
}
