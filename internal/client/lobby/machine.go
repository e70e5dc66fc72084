// Package lobby is the client-side view of one quiz room, driven by
// realtime events.
package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"quizroom/internal/client/realtime"
	"quizroom/internal/domain"
	"quizroom/internal/protocol"
)

type State string

const (
	Disconnected State = "disconnected"
	Connecting   State = "connecting"
	Joined       State = "joined"
	Started      State = "started"
	Closed       State = "closed"
)

var (
	ErrNotAdmin    = errors.New("only the quiz creator can start the quiz")
	ErrNotJoined   = errors.New("lobby not joined")
	ErrBadState    = errors.New("lobby cannot be entered from this state")
	ErrJoinRefused = errors.New("server refused to join the lobby")
	errDroppedConn = errors.New("realtime connection dropped")
)

const maxMessages = 50

// Realtime is the part of realtime.Channel the machine needs.
type Realtime interface {
	Emit(eventType string, payload any) error
	Subscribe(eventType string, h realtime.Handler) func()
}

// Starter asks the server to start the quiz.
type Starter interface {
	StartQuiz(ctx context.Context, quizID, userID int64) (string, error)
}

// Snapshot is the render state of the lobby.
type Snapshot struct {
	State         State
	Members       []domain.LobbyMember
	Count         int
	Joined        bool
	GameSessionID string
	Messages      []protocol.RoomMessagePayload
	LastError     string
}

type Machine struct {
	rt      Realtime
	starter Starter
	quizID  int64
	user    domain.User
	adminID int64

	mu        sync.Mutex
	state     State
	members   []domain.LobbyMember
	revision  int64
	count     int
	joined    bool
	sessionID string
	messages  []protocol.RoomMessagePayload
	lastErr   string
	cancels   []func()
	listeners []func(Snapshot)
}

// New prepares the machine for quizID. adminID is the quiz creator; only that
// user may request the start.
func New(rt Realtime, starter Starter, quizID int64, user domain.User, adminID int64) *Machine {
	return &Machine{
		rt:      rt,
		starter: starter,
		quizID:  quizID,
		user:    user,
		adminID: adminID,
		state:   Disconnected,
	}
}

// OnChange registers fn to receive a snapshot after every transition.
func (m *Machine) OnChange(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Machine) IsAdmin() bool {
	return m.user.ID != 0 && m.user.ID == m.adminID
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Enter registers the event handlers and sends join_room. If the join cannot
// be sent every handler is removed again.
func (m *Machine) Enter() error {
	m.mu.Lock()
	if m.state != Disconnected {
		m.mu.Unlock()
		return ErrBadState
	}
	m.cancels = []func(){
		m.rt.Subscribe(protocol.UserJoined, m.handle(m.onUserJoined)),
		m.rt.Subscribe(protocol.UserLeft, m.handle(m.onUserLeft)),
		m.rt.Subscribe(protocol.ListPlayers, m.handle(m.onListPlayers)),
		m.rt.Subscribe(protocol.RoomMessage, m.handle(m.onRoomMessage)),
		m.rt.Subscribe(protocol.QuizStarted, m.handle(m.onQuizStarted)),
		m.rt.Subscribe(protocol.LobbyClosed, m.handle(m.onLobbyClosed)),
		m.rt.Subscribe(protocol.Error, m.handle(m.onError)),
	}
	m.state = Connecting
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)

	err := m.rt.Emit(protocol.JoinRoom, protocol.JoinRoomPayload{
		RoomID:   protocol.ID(m.quizID),
		Username: m.user.Username,
		UserID:   protocol.ID(m.user.ID),
	})
	if err != nil {
		m.teardown(Disconnected, err.Error())
		return fmt.Errorf("join room %d: %w", m.quizID, err)
	}
	return nil
}

// Leave announces the departure best-effort and removes every handler.
func (m *Machine) Leave() {
	m.mu.Lock()
	announce := m.state == Connecting || m.state == Joined
	m.mu.Unlock()
	if announce {
		if err := m.rt.Emit(protocol.LeaveRoom, protocol.LeaveRoomPayload{
			RoomID:   protocol.ID(m.quizID),
			Username: m.user.Username,
		}); err != nil {
			log.Printf("leave room %d: %v", m.quizID, err)
		}
	}
	m.teardown(Closed, "")
}

// Dropped records that the connection went away. Membership updates stop
// until the lobby is entered again on a new connection.
func (m *Machine) Dropped(err error) {
	if err == nil {
		err = errDroppedConn
	}
	m.teardown(Disconnected, err.Error())
}

// RequestStart asks the server to start the quiz. The transition to Started
// happens when quiz_started arrives.
func (m *Machine) RequestStart(ctx context.Context) (string, error) {
	if !m.IsAdmin() {
		return "", ErrNotAdmin
	}
	m.mu.Lock()
	state := m.state
	m.mu.Unlock()
	if state != Joined {
		return "", ErrNotJoined
	}
	return m.starter.StartQuiz(ctx, m.quizID, m.user.ID)
}

// teardown deregisters every handler and moves to next unless the lobby has
// already started, which is kept so the caller can route to play.
func (m *Machine) teardown(next State, reason string) {
	m.mu.Lock()
	cancels := m.cancels
	m.cancels = nil
	if m.state != Started {
		m.state = next
		// a fresh Enter re-joins, so forget the previous confirmation
		if next == Disconnected {
			m.joined = false
		}
	}
	if reason != "" {
		m.lastErr = reason
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	m.notify(snap)
}

// handle decodes payloads and drops events once the machine is torn down.
// A handler that moves the machine to Closed also removes every handler.
func (m *Machine) handle(fn func(json.RawMessage) bool) realtime.Handler {
	return func(raw json.RawMessage) {
		m.mu.Lock()
		if m.cancels == nil {
			m.mu.Unlock()
			return
		}
		changed := fn(raw)
		var cancels []func()
		if m.state == Closed {
			cancels, m.cancels = m.cancels, nil
		}
		snap := m.snapshotLocked()
		m.mu.Unlock()

		for _, cancel := range cancels {
			cancel()
		}
		if changed {
			m.notify(snap)
		}
	}
}

func (m *Machine) onUserJoined(raw json.RawMessage) bool {
	var p protocol.MembershipPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false
	}
	m.count = p.ParticipantsCount
	if !m.joined && p.Username == m.user.Username {
		m.joined = true
		if m.state == Connecting {
			m.state = Joined
		}
	}
	return true
}

func (m *Machine) onUserLeft(raw json.RawMessage) bool {
	var p protocol.MembershipPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false
	}
	m.count = p.ParticipantsCount
	return true
}

func (m *Machine) onListPlayers(raw json.RawMessage) bool {
	var p protocol.PlayersPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false
	}
	if p.Revision != 0 && p.Revision < m.revision {
		return false
	}
	m.revision = p.Revision
	m.members = append([]domain.LobbyMember{}, p.Players...)
	m.count = len(m.members)
	return true
}

func (m *Machine) onRoomMessage(raw json.RawMessage) bool {
	var p protocol.RoomMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false
	}
	m.messages = append(m.messages, p)
	if len(m.messages) > maxMessages {
		m.messages = m.messages[len(m.messages)-maxMessages:]
	}
	return true
}

func (m *Machine) onQuizStarted(raw json.RawMessage) bool {
	var p protocol.QuizStartedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false
	}
	if p.QuizID != 0 && p.QuizID != m.quizID {
		return false
	}
	m.state = Started
	m.sessionID = p.GameSessionID
	return true
}

func (m *Machine) onLobbyClosed(json.RawMessage) bool {
	if m.state == Started {
		return false
	}
	m.state = Closed
	return true
}

func (m *Machine) onError(raw json.RawMessage) bool {
	var p protocol.ErrorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false
	}
	m.lastErr = p.Message
	// the only request sent while connecting is join_room
	if m.state == Connecting {
		m.state = Closed
		if m.lastErr == "" {
			m.lastErr = ErrJoinRefused.Error()
		}
	}
	return true
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		State:         m.state,
		Members:       append([]domain.LobbyMember(nil), m.members...),
		Count:         m.count,
		Joined:        m.joined,
		GameSessionID: m.sessionID,
		Messages:      append([]protocol.RoomMessagePayload(nil), m.messages...),
		LastError:     m.lastErr,
	}
}

func (m *Machine) notify(s Snapshot) {
	m.mu.Lock()
	listeners := make([]func(Snapshot), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}
