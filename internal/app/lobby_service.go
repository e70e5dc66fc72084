package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizroom/internal/domain"
	"quizroom/internal/protocol"
)

// LobbyRepository abstracts how lobbies are stored (in-memory, Redis, etc).
type LobbyRepository interface {
	// Get returns domain.ErrLobbyNotFound when no lobby exists.
	Get(ctx context.Context, quizID int64) (*domain.Lobby, error)
	// Update applies fn to the stored lobby atomically. When the lobby is
	// missing and create is non-nil, create supplies the initial value.
	// The lobby is saved only if fn returns nil.
	Update(ctx context.Context, quizID int64, create func() (*domain.Lobby, error), fn func(*domain.Lobby) error) (*domain.Lobby, error)
	Delete(ctx context.Context, quizID int64) error
}

// LobbyService manages quiz waiting rooms and announces changes on Rooms.
type LobbyService struct {
	lobbies         LobbyRepository
	quizzes         QuizRepository
	users           UserRepository
	rooms           *Rooms
	maxParticipants int
	now             func() time.Time
	newSessionID    func() string

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

func NewLobbyService(lobbies LobbyRepository, quizzes QuizRepository, users UserRepository, rooms *Rooms, maxParticipants int) *LobbyService {
	return &LobbyService{
		lobbies:         lobbies,
		quizzes:         quizzes,
		users:           users,
		rooms:           rooms,
		maxParticipants: maxParticipants,
		now:             time.Now,
		newSessionID:    func() string { return uuid.New().String() },
		locks:           make(map[int64]*sync.Mutex),
	}
}

// Get returns the lobby for quizID, opening it if the quiz exists.
func (s *LobbyService) Get(ctx context.Context, quizID int64) (domain.LobbyView, error) {
	lobby, err := s.lobbies.Update(ctx, quizID, s.opener(ctx, quizID), func(*domain.Lobby) error { return nil })
	if err != nil {
		return domain.LobbyView{}, err
	}
	return s.view(ctx, lobby), nil
}

// Join adds userID to the lobby. Joining twice is allowed and re-announces the user.
func (s *LobbyService) Join(ctx context.Context, quizID, userID int64) (domain.LobbyView, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.LobbyView{}, err
	}
	defer s.lockRoom(quizID)()
	lobby, err := s.lobbies.Update(ctx, quizID, s.opener(ctx, quizID), func(l *domain.Lobby) error {
		return l.Join(userID, s.maxParticipants)
	})
	if err != nil {
		return domain.LobbyView{}, err
	}
	view := s.view(ctx, lobby)
	s.rooms.Broadcast(quizID, protocol.UserJoined, protocol.MembershipPayload{
		Username:          user.Username,
		ParticipantsCount: len(view.Participants),
	})
	s.rooms.Broadcast(quizID, protocol.ListPlayers, protocol.PlayersPayload{Players: view.Participants, Revision: view.Revision})
	return view, nil
}

// Leave removes userID from the lobby.
func (s *LobbyService) Leave(ctx context.Context, quizID, userID int64) (domain.LobbyView, error) {
	defer s.lockRoom(quizID)()
	lobby, err := s.lobbies.Update(ctx, quizID, nil, func(l *domain.Lobby) error {
		return l.Leave(userID)
	})
	if err != nil {
		return domain.LobbyView{}, err
	}
	view := s.view(ctx, lobby)
	username := ""
	if user, err := s.users.GetUser(ctx, userID); err == nil {
		username = user.Username
	}
	s.rooms.Broadcast(quizID, protocol.UserLeft, protocol.MembershipPayload{
		Username:          username,
		ParticipantsCount: len(view.Participants),
	})
	s.rooms.Broadcast(quizID, protocol.ListPlayers, protocol.PlayersPayload{Players: view.Participants, Revision: view.Revision})
	return view, nil
}

// Start lets the quiz creator begin the game for everyone in the room.
func (s *LobbyService) Start(ctx context.Context, quizID, userID int64) (domain.LobbyView, error) {
	sessionID := s.newSessionID()
	defer s.lockRoom(quizID)()
	lobby, err := s.lobbies.Update(ctx, quizID, nil, func(l *domain.Lobby) error {
		return l.Start(userID, sessionID, s.now())
	})
	if err != nil {
		return domain.LobbyView{}, err
	}
	log.Printf("quiz %d started with %d participants (session %s)", quizID, len(lobby.Participants), lobby.GameSessionID)
	s.rooms.Broadcast(quizID, protocol.QuizStarted, protocol.QuizStartedPayload{
		QuizID:        quizID,
		GameSessionID: lobby.GameSessionID,
	})
	return s.view(ctx, lobby), nil
}

// Close tears the lobby down; only the quiz creator may do it.
func (s *LobbyService) Close(ctx context.Context, quizID, userID int64) error {
	defer s.lockRoom(quizID)()
	lobby, err := s.lobbies.Get(ctx, quizID)
	if err != nil {
		return err
	}
	if lobby.AdminID != userID {
		return domain.ErrNotLobbyAdmin
	}
	if err := s.lobbies.Delete(ctx, quizID); err != nil {
		return err
	}
	s.rooms.Broadcast(quizID, protocol.LobbyClosed, protocol.LobbyClosedPayload{QuizID: quizID})
	return nil
}

func (s *LobbyService) opener(ctx context.Context, quizID int64) func() (*domain.Lobby, error) {
	return func() (*domain.Lobby, error) {
		quiz, err := s.quizzes.GetQuiz(ctx, quizID)
		if err != nil {
			return nil, err
		}
		return domain.NewLobby(quiz, s.now()), nil
	}
}

// view resolves participant ids; users that vanished are skipped.
func (s *LobbyService) view(ctx context.Context, l *domain.Lobby) domain.LobbyView {
	members := make([]domain.LobbyMember, 0, len(l.Participants))
	for _, id := range l.Participants {
		user, err := s.users.GetUser(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrUserNotFound) {
				log.Printf("lobby %d: resolve user %d: %v", l.QuizID, id, err)
			}
			continue
		}
		members = append(members, domain.LobbyMember{UserID: user.ID, Username: user.Username})
	}
	return domain.LobbyView{
		QuizID:        l.QuizID,
		QuizTitle:     l.QuizTitle,
		AdminID:       l.AdminID,
		Participants:  members,
		Status:        l.Status,
		CreatedAt:     l.CreatedAt,
		StartedAt:     l.StartedAt,
		GameSessionID: l.GameSessionID,
		Revision:      l.Revision,
	}
}

// lockRoom serializes changes to one lobby together with their broadcasts,
// so local subscribers see membership lists in commit order.
func (s *LobbyService) lockRoom(quizID int64) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[quizID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[quizID] = mu
	}
	s.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}
