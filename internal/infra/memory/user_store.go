package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"quizroom/internal/domain"
)

// UserStore is an in-memory implementation of app.UserRepository.
type UserStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]domain.Account
	byName map[string]int64
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:   make(map[int64]domain.Account),
		byName: make(map[string]int64),
	}
}

func (s *UserStore) CreateUser(_ context.Context, username, passwordHash string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(username)
	if _, ok := s.byName[key]; ok {
		return domain.User{}, domain.ErrUsernameTaken
	}
	s.nextID++
	account := domain.Account{
		User:         domain.User{ID: s.nextID, Username: username},
		PasswordHash: passwordHash,
	}
	s.byID[account.ID] = account
	s.byName[key] = account.ID
	return account.User, nil
}

func (s *UserStore) GetUser(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return account.User, nil
}

func (s *UserStore) GetAccount(_ context.Context, username string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[strings.ToLower(username)]
	if !ok {
		return domain.Account{}, domain.ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *UserStore) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]domain.User, 0, len(s.byID))
	for _, account := range s.byID {
		users = append(users, account.User)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
