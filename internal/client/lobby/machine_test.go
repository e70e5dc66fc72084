package lobby_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizroom/internal/client/lobby"
	"quizroom/internal/client/realtime"
	"quizroom/internal/domain"
	"quizroom/internal/protocol"
)

type emitted struct {
	Type    string
	Payload any
}

// fakeChannel stands in for realtime.Channel.
type fakeChannel struct {
	mu       sync.Mutex
	emitted  []emitted
	handlers map[string]map[int]realtime.Handler
	next     int
	emitErr  error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{handlers: make(map[string]map[int]realtime.Handler)}
}

func (f *fakeChannel) Emit(eventType string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emitErr != nil {
		return f.emitErr
	}
	f.emitted = append(f.emitted, emitted{eventType, payload})
	return nil
}

func (f *fakeChannel) Subscribe(eventType string, h realtime.Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers[eventType] == nil {
		f.handlers[eventType] = make(map[int]realtime.Handler)
	}
	id := f.next
	f.next++
	f.handlers[eventType][id] = h
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers[eventType], id)
	}
}

func (f *fakeChannel) fire(t *testing.T, eventType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	f.mu.Lock()
	hs := make([]realtime.Handler, 0, len(f.handlers[eventType]))
	for _, h := range f.handlers[eventType] {
		hs = append(hs, h)
	}
	f.mu.Unlock()
	for _, h := range hs {
		h(raw)
	}
}

func (f *fakeChannel) registered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, hs := range f.handlers {
		n += len(hs)
	}
	return n
}

type fakeStarter struct {
	calls int
	err   error
}

func (s *fakeStarter) StartQuiz(context.Context, int64, int64) (string, error) {
	s.calls++
	return "session-1", s.err
}

var (
	alice = domain.User{ID: 1, Username: "alice"}
	bob   = domain.User{ID: 2, Username: "bob"}
)

func TestEnterEmitsJoinAndConfirmsOnce(t *testing.T) {
	ch := newFakeChannel()
	m := lobby.New(ch, &fakeStarter{}, 9, bob, alice.ID)

	var changes []lobby.Snapshot
	m.OnChange(func(s lobby.Snapshot) { changes = append(changes, s) })

	require.NoError(t, m.Enter())
	assert.Equal(t, lobby.Connecting, m.Snapshot().State)
	require.Len(t, ch.emitted, 1)
	assert.Equal(t, protocol.JoinRoom, ch.emitted[0].Type)
	assert.Equal(t, protocol.JoinRoomPayload{RoomID: 9, Username: "bob", UserID: 2}, ch.emitted[0].Payload)

	ch.fire(t, protocol.UserJoined, protocol.MembershipPayload{Username: "alice", ParticipantsCount: 1})
	assert.False(t, m.Snapshot().Joined)

	ch.fire(t, protocol.UserJoined, protocol.MembershipPayload{Username: "bob", ParticipantsCount: 2})
	snap := m.Snapshot()
	assert.True(t, snap.Joined)
	assert.Equal(t, lobby.Joined, snap.State)

	ch.fire(t, protocol.UserJoined, protocol.MembershipPayload{Username: "carol", ParticipantsCount: 3})
	snap = m.Snapshot()
	assert.True(t, snap.Joined)
	assert.Equal(t, lobby.Joined, snap.State)
	assert.Equal(t, 3, snap.Count)

	joinedTransitions := 0
	prev := false
	for _, c := range changes {
		if c.Joined && !prev {
			joinedTransitions++
		}
		prev = c.Joined
	}
	assert.Equal(t, 1, joinedTransitions)
}

func TestListPlayersReplacesMembers(t *testing.T) {
	ch := newFakeChannel()
	m := lobby.New(ch, &fakeStarter{}, 9, bob, alice.ID)
	require.NoError(t, m.Enter())

	ch.fire(t, protocol.ListPlayers, protocol.PlayersPayload{Players: []domain.LobbyMember{
		{UserID: 1, Username: "alice"}, {UserID: 2, Username: "bob"},
	}})
	ch.fire(t, protocol.ListPlayers, protocol.PlayersPayload{Players: []domain.LobbyMember{
		{UserID: 2, Username: "bob"},
	}})
	snap := m.Snapshot()
	assert.Equal(t, []domain.LobbyMember{{UserID: 2, Username: "bob"}}, snap.Members)
	assert.Equal(t, 1, snap.Count)
}

func TestListPlayersIgnoresOlderRevision(t *testing.T) {
	ch := newFakeChannel()
	m := lobby.New(ch, &fakeStarter{}, 9, bob, alice.ID)
	require.NoError(t, m.Enter())

	both := []domain.LobbyMember{{UserID: 1, Username: "alice"}, {UserID: 2, Username: "bob"}}
	ch.fire(t, protocol.ListPlayers, protocol.PlayersPayload{Players: both, Revision: 2})
	ch.fire(t, protocol.ListPlayers, protocol.PlayersPayload{Players: both[:1], Revision: 1})
	assert.Equal(t, both, m.Snapshot().Members)

	ch.fire(t, protocol.ListPlayers, protocol.PlayersPayload{Players: both[1:], Revision: 3})
	assert.Equal(t, both[1:], m.Snapshot().Members)
}

func TestRefusedJoinCloses(t *testing.T) {
	ch := newFakeChannel()
	m := lobby.New(ch, &fakeStarter{}, 9, bob, alice.ID)
	require.NoError(t, m.Enter())

	ch.fire(t, protocol.Error, protocol.ErrorPayload{Message: "quiz already started"})
	snap := m.Snapshot()
	assert.Equal(t, lobby.Closed, snap.State)
	assert.False(t, snap.Joined)
	assert.Equal(t, "quiz already started", snap.LastError)
	assert.Zero(t, ch.registered())
}

func TestErrorAfterJoinKeepsLobby(t *testing.T) {
	ch := newFakeChannel()
	m := lobby.New(ch, &fakeStarter{}, 9, bob, alice.ID)
	require.NoError(t, m.Enter())
	ch.fire(t, protocol.UserJoined, protocol.MembershipPayload{Username: "bob", ParticipantsCount: 1})

	ch.fire(t, protocol.Error, protocol.ErrorPayload{Message: "message too long"})
	snap := m.Snapshot()
	assert.Equal(t, lobby.Joined, snap.State)
	assert.Equal(t, "message too long", snap.LastError)
	assert.NotZero(t, ch.registered())
}

func TestStartFlow(t *testing.T) {
	ch := newFakeChannel()
	starter := &fakeStarter{}
	admin := lobby.New(ch, starter, 9, alice, alice.ID)
	player := lobby.New(newFakeChannel(), starter, 9, bob, alice.ID)

	assert.True(t, admin.IsAdmin())
	assert.False(t, player.IsAdmin())

	_, err := player.RequestStart(context.Background())
	assert.ErrorIs(t, err, lobby.ErrNotAdmin)

	_, err = admin.RequestStart(context.Background())
	assert.ErrorIs(t, err, lobby.ErrNotJoined)

	require.NoError(t, admin.Enter())
	ch.fire(t, protocol.UserJoined, protocol.MembershipPayload{Username: "alice", ParticipantsCount: 1})
	id, err := admin.RequestStart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "session-1", id)
	assert.Equal(t, 1, starter.calls)
	assert.Equal(t, lobby.Joined, admin.Snapshot().State, "start waits for the broadcast")

	ch.fire(t, protocol.QuizStarted, protocol.QuizStartedPayload{QuizID: 9, GameSessionID: "session-1"})
	snap := admin.Snapshot()
	assert.Equal(t, lobby.Started, snap.State)
	assert.Equal(t, "session-1", snap.GameSessionID)

	admin.Leave()
	assert.Equal(t, lobby.Started, admin.Snapshot().State)
	assert.Zero(t, ch.registered())
}

func TestLeaveDeregistersAndIgnoresLateEvents(t *testing.T) {
	ch := newFakeChannel()
	m := lobby.New(ch, &fakeStarter{}, 9, bob, alice.ID)
	require.NoError(t, m.Enter())
	assert.NotZero(t, ch.registered())

	m.Leave()
	assert.Equal(t, lobby.Closed, m.Snapshot().State)
	assert.Zero(t, ch.registered())
	require.Len(t, ch.emitted, 2)
	assert.Equal(t, protocol.LeaveRoom, ch.emitted[1].Type)

	ch.fire(t, protocol.ListPlayers, protocol.PlayersPayload{Players: []domain.LobbyMember{{UserID: 5}}})
	assert.Empty(t, m.Snapshot().Members)
}

func TestEnterFailureDeregisters(t *testing.T) {
	ch := newFakeChannel()
	ch.emitErr = errors.New("socket gone")
	m := lobby.New(ch, &fakeStarter{}, 9, bob, alice.ID)

	err := m.Enter()
	require.Error(t, err)
	assert.Zero(t, ch.registered())
	snap := m.Snapshot()
	assert.Equal(t, lobby.Disconnected, snap.State)
	assert.Contains(t, snap.LastError, "socket gone")
}

func TestDroppedConnectionAndLobbyClosed(t *testing.T) {
	ch := newFakeChannel()
	m := lobby.New(ch, &fakeStarter{}, 9, bob, alice.ID)
	require.NoError(t, m.Enter())
	ch.fire(t, protocol.UserJoined, protocol.MembershipPayload{Username: "bob", ParticipantsCount: 1})

	m.Dropped(nil)
	snap := m.Snapshot()
	assert.Equal(t, lobby.Disconnected, snap.State)
	assert.False(t, snap.Joined)
	assert.Zero(t, ch.registered())

	require.NoError(t, m.Enter())
	ch.fire(t, protocol.LobbyClosed, protocol.LobbyClosedPayload{QuizID: 9})
	assert.Equal(t, lobby.Closed, m.Snapshot().State)
	assert.Zero(t, ch.registered())
	assert.ErrorIs(t, m.Enter(), lobby.ErrBadState)
}
