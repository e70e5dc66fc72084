package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quizroom/internal/domain"
)

const maxUpdateRetries = 10

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// LobbyStore keeps each lobby as a JSON document so several service
// instances can share room membership. Updates use WATCH/MULTI.
type LobbyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLobbyStore(client *redis.Client, ttl time.Duration) *LobbyStore {
	return &LobbyStore{client: client, ttl: ttl}
}

func (s *LobbyStore) Get(ctx context.Context, quizID int64) (*domain.Lobby, error) {
	return s.read(ctx, s.client, quizID)
}

func (s *LobbyStore) Update(ctx context.Context, quizID int64, create func() (*domain.Lobby, error), fn func(*domain.Lobby) error) (*domain.Lobby, error) {
	key := s.key(quizID)
	var updated *domain.Lobby

	txf := func(tx *redis.Tx) error {
		lobby, err := s.read(ctx, tx, quizID)
		if errors.Is(err, domain.ErrLobbyNotFound) && create != nil {
			lobby, err = create()
		}
		if err != nil {
			return err
		}
		if err := fn(lobby); err != nil {
			return err
		}
		raw, err := json.Marshal(lobby)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		if err == nil {
			updated = lobby
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("update lobby %d: too much contention", quizID)
}

func (s *LobbyStore) Delete(ctx context.Context, quizID int64) error {
	return s.client.Del(ctx, s.key(quizID)).Err()
}

func (s *LobbyStore) read(ctx context.Context, c getter, quizID int64) (*domain.Lobby, error) {
	raw, err := c.Get(ctx, s.key(quizID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrLobbyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read lobby %d: %w", quizID, err)
	}
	var lobby domain.Lobby
	if err := json.Unmarshal(raw, &lobby); err != nil {
		return nil, fmt.Errorf("decode lobby %d: %w", quizID, err)
	}
	if lobby.Participants == nil {
		lobby.Participants = []int64{}
	}
	return &lobby, nil
}

func (s *LobbyStore) key(quizID int64) string {
	return "quiz:lobby:" + strconv.FormatInt(quizID, 10)
}
