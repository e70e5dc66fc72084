// Package realtime is the client side of the /ws event channel.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"quizroom/internal/protocol"
)

var ErrClosed = errors.New("realtime channel closed")

const writeWait = 10 * time.Second

// Handler receives the raw payload of one event.
type Handler func(payload json.RawMessage)

type subscription struct {
	handler Handler
	active  atomic.Bool
}

// Channel is one websocket connection. Events are dispatched to handlers one
// at a time from a single reader goroutine. The connection is not re-dialled
// when it drops; Done is closed and Err reports why.
type Channel struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu     sync.Mutex
	subs   map[string][]*subscription
	closed atomic.Bool

	done chan struct{}
	err  error
}

// Dial connects to rawURL (e.g. ws://host:8080/ws) authenticating with token.
func Dial(ctx context.Context, rawURL, token string) (*Channel, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse ws url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	c := &Channel{
		conn: conn,
		subs: make(map[string][]*subscription),
		done: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Emit sends one event.
func (c *Channel) Emit(eventType string, payload any) error {
	if c.closed.Load() {
		return ErrClosed
	}
	env, err := protocol.Encode(eventType, payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("emit %s: %w", eventType, err)
	}
	return nil
}

// Subscribe registers h for eventType. After the returned cancel func (or
// Close) returns, h is not called again; a call already running finishes.
func (c *Channel) Subscribe(eventType string, h Handler) func() {
	sub := &subscription{handler: h}
	sub.active.Store(true)

	c.mu.Lock()
	c.subs[eventType] = append(c.subs[eventType], sub)
	c.mu.Unlock()

	return func() {
		if !sub.active.Swap(false) {
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		list := c.subs[eventType]
		for i, s := range list {
			if s == sub {
				c.subs[eventType] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
}

// Done is closed when the reader stops, either after Close or a drop.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Err is the reason the connection ended, nil after a clean Close.
func (c *Channel) Err() error {
	<-c.done
	return c.err
}

// Close stops dispatching and closes the connection.
func (c *Channel) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Channel) readLoop() {
	defer close(c.done)
	for {
		var env protocol.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if !c.closed.Load() {
				c.err = err
				log.Printf("realtime connection lost: %v", err)
			}
			return
		}
		c.dispatch(env)
	}
}

func (c *Channel) dispatch(env protocol.Envelope) {
	c.mu.Lock()
	subs := append([]*subscription(nil), c.subs[env.Type]...)
	c.mu.Unlock()
	for _, sub := range subs {
		if c.closed.Load() || !sub.active.Load() {
			continue
		}
		sub.handler(env.Payload)
	}
}
