package memory

import (
	"context"
	"sync"

	"quizroom/internal/domain"
)

// LobbyStore is an in-memory implementation of app.LobbyRepository.
type LobbyStore struct {
	mu      sync.Mutex
	lobbies map[int64]*domain.Lobby
}

func NewLobbyStore() *LobbyStore {
	return &LobbyStore{lobbies: make(map[int64]*domain.Lobby)}
}

func (s *LobbyStore) Get(_ context.Context, quizID int64) (*domain.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lobby, ok := s.lobbies[quizID]
	if !ok {
		return nil, domain.ErrLobbyNotFound
	}
	return cloneLobby(lobby), nil
}

func (s *LobbyStore) Update(_ context.Context, quizID int64, create func() (*domain.Lobby, error), fn func(*domain.Lobby) error) (*domain.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.lobbies[quizID]
	if !ok {
		if create == nil {
			return nil, domain.ErrLobbyNotFound
		}
		created, err := create()
		if err != nil {
			return nil, err
		}
		current = created
	}
	next := cloneLobby(current)
	if err := fn(next); err != nil {
		return nil, err
	}
	s.lobbies[quizID] = next
	return cloneLobby(next), nil
}

func (s *LobbyStore) Delete(_ context.Context, quizID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, quizID)
	return nil
}

func cloneLobby(l *domain.Lobby) *domain.Lobby {
	c := *l
	c.Participants = append([]int64{}, l.Participants...)
	if l.StartedAt != nil {
		t := *l.StartedAt
		c.StartedAt = &t
	}
	return &c
}
