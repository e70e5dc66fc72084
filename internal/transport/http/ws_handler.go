package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"quizroom/internal/app"
	"quizroom/internal/domain"
	"quizroom/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type WSHandler struct {
	lobbies  *app.LobbyService
	rooms    *app.Rooms
	users    *app.UserService
	upgrader websocket.Upgrader
}

func NewWSHandler(lobbies *app.LobbyService, rooms *app.Rooms, users *app.UserService, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		lobbies: lobbies,
		rooms:   rooms,
		users:   users,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeWS upgrades HTTP requests to websockets and wires them into the lobby use cases.
// Browsers cannot set headers on websocket requests, so the bearer token travels as ?token=.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := h.users.Authenticate(r.URL.Query().Get("token"))
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	c := &wsConn{
		h:          h,
		conn:       conn,
		user:       user,
		send:       make(chan protocol.Event, 32),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
		rooms:      make(map[int64]func()),
	}
	go c.writeLoop()
	c.emit(protocol.Event{Type: protocol.Connected, Payload: protocol.ConnectedPayload{Message: "connected as " + user.Username}})
	c.readLoop(r.Context())
	c.teardown()
}

// wsConn is one socket. rooms is only touched by the read loop.
type wsConn struct {
	h          *WSHandler
	conn       *websocket.Conn
	user       domain.User
	send       chan protocol.Event
	done       chan struct{}
	writerDone chan struct{}
	forwarders errgroup.Group
	rooms      map[int64]func()
}

func (c *wsConn) writeLoop() {
	defer close(c.writerDone)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Printf("ws write error: %v", err)
				c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

// emit queues ev unless the writer already gave up.
func (c *wsConn) emit(ev protocol.Event) {
	select {
	case c.send <- ev:
	case <-c.writerDone:
	}
}

func (c *wsConn) emitError(msg string) {
	c.emit(protocol.Event{Type: protocol.Error, Payload: protocol.ErrorPayload{Message: msg}})
}

func (c *wsConn) readLoop(ctx context.Context) {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var inbound protocol.Envelope
		if err := c.conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case protocol.JoinRoom:
			var p protocol.JoinRoomPayload
			if err := json.Unmarshal(inbound.Payload, &p); err != nil || p.RoomID == 0 {
				c.emitError("room_id is required")
				continue
			}
			c.join(ctx, int64(p.RoomID), int64(p.UserID))
		case protocol.LeaveRoom:
			var p protocol.LeaveRoomPayload
			if err := json.Unmarshal(inbound.Payload, &p); err != nil || p.RoomID == 0 {
				c.emitError("room_id is required")
				continue
			}
			c.leave(ctx, int64(p.RoomID))
		case protocol.RoomMessage:
			var p protocol.RoomMessagePayload
			if err := json.Unmarshal(inbound.Payload, &p); err != nil || p.RoomID == 0 || p.Message == "" {
				c.emitError("room_id and message are required")
				continue
			}
			if _, ok := c.rooms[int64(p.RoomID)]; !ok {
				c.emitError("join the room before sending messages")
				continue
			}
			c.h.rooms.Broadcast(int64(p.RoomID), protocol.RoomMessage, protocol.RoomMessagePayload{
				Username: c.user.Username,
				Message:  p.Message,
			})
		default:
			c.emitError("unsupported message type")
		}
	}
}

func (c *wsConn) join(ctx context.Context, roomID, claimedUser int64) {
	if claimedUser != 0 && claimedUser != c.user.ID {
		c.emitError(domain.ErrForbidden.Error())
		return
	}
	// subscribe first so this connection sees its own user_joined
	_, subscribed := c.rooms[roomID]
	if !subscribed {
		c.subscribe(roomID)
	}
	if _, err := c.h.lobbies.Join(ctx, roomID, c.user.ID); err != nil {
		if !subscribed {
			c.rooms[roomID]()
			delete(c.rooms, roomID)
		}
		c.emitError(err.Error())
		return
	}
	log.Printf("user %s joined room %d", c.user.Username, roomID)
}

func (c *wsConn) subscribe(roomID int64) {
	events, cancel := c.h.rooms.Subscribe(roomID)
	c.rooms[roomID] = cancel
	c.forwarders.Go(func() error {
		for ev := range events {
			select {
			case c.send <- ev:
			case <-c.done:
				return nil
			}
		}
		return nil
	})
}

func (c *wsConn) leave(ctx context.Context, roomID int64) {
	cancel, ok := c.rooms[roomID]
	if !ok {
		return
	}
	if _, err := c.h.lobbies.Leave(ctx, roomID, c.user.ID); err != nil && !errors.Is(err, domain.ErrNotInLobby) {
		log.Printf("leave room %d: %v", roomID, err)
	}
	cancel()
	delete(c.rooms, roomID)
	log.Printf("user %s left room %d", c.user.Username, roomID)
}

// teardown leaves every joined room, stops forwarders, then drains the writer.
func (c *wsConn) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for roomID := range c.rooms {
		c.leave(ctx, roomID)
	}
	close(c.done)
	_ = c.forwarders.Wait()
	close(c.send)
	<-c.writerDone
}
