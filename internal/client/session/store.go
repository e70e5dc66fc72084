// Package session owns the signed-in user's identity on the client.
// One Store is created at startup and handed to whoever needs it.
package session

import (
	"strconv"
	"sync"

	"quizroom/internal/domain"
)

const (
	keyUserID   = "user_id"
	keyUsername = "username"
	keyToken    = "auth_token"
)

// State is a snapshot of the session. UserID 0 means signed out.
type State struct {
	UserID   int64
	Username string
	Token    string
}

func (s State) Authenticated() bool {
	return s.UserID != 0
}

func (s State) User() domain.User {
	return domain.User{ID: s.UserID, Username: s.Username}
}

// Store caches the session in memory, persists it to a KV and notifies
// subscribers after every change.
type Store struct {
	kv KV

	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv, subs: make(map[int]func(State))}
}

// Load reads the persisted session. A user_id that does not parse as a
// positive integer is treated as absent.
func (s *Store) Load() (State, error) {
	var st State
	raw, ok, err := s.kv.Get(keyUserID)
	if err != nil {
		return State{}, err
	}
	if ok {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			st.UserID = id
		}
	}
	if st.UserID != 0 {
		if st.Username, _, err = s.kv.Get(keyUsername); err != nil {
			return State{}, err
		}
		if st.Token, _, err = s.kv.Get(keyToken); err != nil {
			return State{}, err
		}
	}
	s.set(st)
	return st, nil
}

func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	return s.Current().Token
}

// SetUser records a signed-in user.
func (s *Store) SetUser(u domain.User) error {
	if err := s.kv.Set(keyUserID, strconv.FormatInt(u.ID, 10)); err != nil {
		return err
	}
	if err := s.kv.Set(keyUsername, u.Username); err != nil {
		return err
	}
	st := s.Current()
	st.UserID, st.Username = u.ID, u.Username
	s.set(st)
	return nil
}

func (s *Store) SetToken(token string) error {
	if err := s.kv.Set(keyToken, token); err != nil {
		return err
	}
	st := s.Current()
	st.Token = token
	s.set(st)
	return nil
}

// Clear signs the user out.
func (s *Store) Clear() error {
	if err := s.kv.Delete(keyUserID, keyUsername, keyToken); err != nil {
		return err
	}
	s.set(State{})
	return nil
}

// Subscribe registers fn for future changes and returns its cancel func.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) set(st State) {
	s.mu.Lock()
	s.state = st
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}
