package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quizroom/internal/protocol"
)

const roomChannelPrefix = "quiz:room:"

type relayMessage struct {
	Origin  string          `json:"origin"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RoomRelay forwards room events between instances over Redis Pub/Sub.
// Each room publishes on quiz:room:{quizID}; messages carry the publishing
// instance so it can skip its own.
type RoomRelay struct {
	client *redis.Client
	origin string
}

func NewRoomRelay(client *redis.Client) *RoomRelay {
	return &RoomRelay{client: client, origin: uuid.NewString()}
}

func (r *RoomRelay) Publish(ctx context.Context, roomID int64, ev protocol.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", ev.Type, err)
	}
	raw, err := json.Marshal(relayMessage{Origin: r.origin, Type: ev.Type, Payload: payload})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, roomChannel(roomID), raw).Err()
}

// Listen subscribes to every room channel and returns once the subscription
// is confirmed. deliver runs on a single goroutine until stop is called.
func (r *RoomRelay) Listen(ctx context.Context, deliver func(roomID int64, ev protocol.Event)) (func() error, error) {
	sub := r.client.PSubscribe(ctx, roomChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe room channels: %w", err)
	}

	messages := sub.Channel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range messages {
			roomID, err := strconv.ParseInt(strings.TrimPrefix(msg.Channel, roomChannelPrefix), 10, 64)
			if err != nil {
				continue
			}
			var m relayMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				log.Printf("decode relayed event on %s: %v", msg.Channel, err)
				continue
			}
			if m.Origin == r.origin {
				continue
			}
			deliver(roomID, protocol.Event{Type: m.Type, Payload: m.Payload})
		}
	}()

	var (
		once    sync.Once
		stopErr error
	)
	stop := func() error {
		once.Do(func() {
			stopErr = sub.Close()
			<-done
		})
		return stopErr
	}
	return stop, nil
}

func roomChannel(roomID int64) string {
	return roomChannelPrefix + strconv.FormatInt(roomID, 10)
}
