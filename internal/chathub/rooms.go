package chathub

import (
	"log"
	"sync"

	"relaychat/backend/internal/models"
)

// roomRegistry is the channel → subscribed clients mapping, the one piece of
// truly shared mutable state in the gateway. All mutation and fan-out happen
// under its lock; the raw maps are never handed out.
type roomRegistry struct {
	mu      sync.RWMutex
	members map[models.ChannelKey]map[Client]struct{}
}

func newRoomRegistry() *roomRegistry {
	return &roomRegistry{
		members: make(map[models.ChannelKey]map[Client]struct{}),
	}
}

func (r *roomRegistry) add(channel models.ChannelKey, c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.members[channel]
	if !ok {
		room = make(map[Client]struct{})
		r.members[channel] = room
	}
	room[c] = struct{}{}
}

// removeAll drops the client from every room. Called on disconnect;
// idempotent.
func (r *roomRegistry) removeAll(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for channel, room := range r.members {
		delete(room, c)
		if len(room) == 0 {
			delete(r.members, channel)
		}
	}
}

// broadcast queues ev for every member of the channel's room. The send is
// non-blocking: a receiver whose buffer is full misses the event rather than
// stalling the sender.
func (r *roomRegistry) broadcast(channel models.ChannelKey, ev models.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.members[channel] {
		select {
		case c.GetSendChannel() <- ev:
		default:
			log.Printf("WARNING: dropping %s event for slow client in channel %s", ev.Event, channel)
		}
	}
}
