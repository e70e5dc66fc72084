package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizroom/internal/domain"
)

func TestLobbyStoreSetsAndClearsKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	store := NewLobbyStore(newClient(mr), time.Minute)
	open := func() (*domain.Lobby, error) {
		return domain.NewLobby(domain.Quiz{ID: 3, Title: "Rivers", CreatorID: 1}, time.Now()), nil
	}

	_, err := store.Get(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrLobbyNotFound)

	lobby, err := store.Update(ctx, 3, open, func(l *domain.Lobby) error { return l.Join(2, 0) })
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, lobby.Participants)
	assert.Equal(t, "Rivers", lobby.QuizTitle)
	assert.Equal(t, int64(1), lobby.Revision)
	assert.True(t, mr.Exists("quiz:lobby:3"))
	assert.Greater(t, mr.TTL("quiz:lobby:3"), time.Duration(0), "lobby key has a ttl")

	_, err = store.Update(ctx, 3, nil, func(l *domain.Lobby) error { return l.Start(2, "s", time.Now()) })
	assert.ErrorIs(t, err, domain.ErrNotLobbyAdmin)
	stored, err := store.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.LobbyWaiting, stored.Status, "failed update is not saved")
	assert.Equal(t, int64(1), stored.Revision)

	require.NoError(t, store.Delete(ctx, 3))
	assert.False(t, mr.Exists("quiz:lobby:3"))
}

func TestLobbyStoreConcurrentJoins(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	store := NewLobbyStore(newClient(mr), time.Minute)
	open := func() (*domain.Lobby, error) {
		return domain.NewLobby(domain.Quiz{ID: 4, CreatorID: 1}, time.Now()), nil
	}

	var wg sync.WaitGroup
	for i := int64(1); i <= 5; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := store.Update(ctx, 4, open, func(l *domain.Lobby) error { return l.Join(id, 0) })
			assert.NoError(t, err, "join %d", id)
		}(i)
	}
	wg.Wait()

	lobby, err := store.Get(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, lobby.Participants, 5, "all joins kept")
	assert.Equal(t, int64(5), lobby.Revision)
}
