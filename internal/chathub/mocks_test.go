package chathub_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"relaychat/backend/internal/auth"
	"relaychat/backend/internal/chathub"
	"relaychat/backend/internal/models"
)

// MockStorage is a testify/mock implementation of the storage.Storage
// interface, allowing flexible expectation setting in tests.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveMessage(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockStorage) ListMessages(ctx context.Context, channel models.ChannelKey, take int, cursor string) ([]models.Message, error) {
	args := m.Called(ctx, channel, take, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) FlushChannel(ctx context.Context, channel models.ChannelKey) (int64, error) {
	args := m.Called(ctx, channel)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStorage) DeleteMessage(ctx context.Context, id string) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// mockClient is a transport-free test double for the chathub.Client
// interface. Its send channel is buffered so broadcasts never block in tests.
type mockClient struct {
	session *chathub.Session
	send    chan models.Event
	closed  bool
}

func newMockClient() *mockClient {
	return &mockClient{
		session: chathub.NewSession(),
		send:    make(chan models.Event, 16),
	}
}

// newAuthenticatedClient returns a client whose handshake already succeeded.
func newAuthenticatedClient(subjectID string, role models.Role) *mockClient {
	c := newMockClient()
	c.session.Authenticate(&auth.Principal{SubjectID: subjectID, Role: role})
	return c
}

func (c *mockClient) GetSession() *chathub.Session        { return c.session }
func (c *mockClient) GetSendChannel() chan<- models.Event { return c.send }
func (c *mockClient) Run()                                {}

func (c *mockClient) Close() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// drainEvents returns everything currently queued for the client.
func (c *mockClient) drainEvents() []models.Event {
	var events []models.Event
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}
