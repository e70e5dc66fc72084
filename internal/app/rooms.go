package app

import (
	"context"
	"log"
	"sync"
	"time"

	"quizroom/internal/protocol"
)

const relayTimeout = 2 * time.Second

// Relay carries room events between service instances that share one lobby
// store. Listen must not hand back events this instance published.
type Relay interface {
	Publish(ctx context.Context, roomID int64, ev protocol.Event) error
	Listen(ctx context.Context, deliver func(roomID int64, ev protocol.Event)) (stop func() error, err error)
}

// Rooms fans realtime events out to every connection subscribed to a room.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[int64]map[chan protocol.Event]struct{}
	relay Relay
}

func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[int64]map[chan protocol.Event]struct{})}
}

// Connect links r to the other instances behind relay: local broadcasts are
// published, and events published elsewhere reach local subscribers.
func (r *Rooms) Connect(ctx context.Context, relay Relay) (func() error, error) {
	stop, err := relay.Listen(ctx, r.deliver)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.relay = relay
	r.mu.Unlock()
	return stop, nil
}

// Subscribe returns a channel receiving the room's events.
// The caller must invoke the returned cancel function to avoid leaks.
func (r *Rooms) Subscribe(roomID int64) (<-chan protocol.Event, func()) {
	ch := make(chan protocol.Event, 16)

	r.mu.Lock()
	subs, ok := r.rooms[roomID]
	if !ok {
		subs = make(map[chan protocol.Event]struct{})
		r.rooms[roomID] = subs
	}
	subs[ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			subs := r.rooms[roomID]
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(r.rooms, roomID)
			}
		})
	}
	return ch, cancel
}

// Broadcast delivers the event to every local subscriber of roomID and, when
// connected, to the other instances.
func (r *Rooms) Broadcast(roomID int64, eventType string, payload any) {
	ev := protocol.Event{Type: eventType, Payload: payload}
	r.deliver(roomID, ev)

	r.mu.RLock()
	relay := r.relay
	r.mu.RUnlock()
	if relay == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
	defer cancel()
	if err := relay.Publish(ctx, roomID, ev); err != nil {
		log.Printf("relay %s to room %d: %v", eventType, roomID, err)
	}
}

func (r *Rooms) deliver(roomID int64, ev protocol.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for ch := range r.rooms[roomID] {
		select {
		case ch <- ev:
		default:
			// slow subscriber: drop its oldest queued event
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// Subscribers reports how many local connections listen on roomID.
func (r *Rooms) Subscribers(roomID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}
