package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizroom/internal/domain"
)

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()

	ann, err := store.CreateUser(ctx, "Ann", "hash")
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, "ann", "hash")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)

	account, err := store.GetAccount(ctx, "ANN")
	require.NoError(t, err)
	assert.Equal(t, ann.ID, account.ID)
	assert.Equal(t, "hash", account.PasswordHash)

	_, err = store.GetUser(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	users, _ := store.ListUsers(ctx)
	require.Len(t, users, 1)
	assert.Equal(t, "Ann", users[0].Username)
}

func TestQuizStoreAssignsIDsAndListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStore()
	now := time.Unix(1700000000, 0)
	store.clock = func() time.Time { now = now.Add(time.Second); return now }

	first, _ := store.CreateQuiz(ctx, sampleQuiz())
	second, _ := store.CreateQuiz(ctx, sampleQuiz())
	other := sampleQuiz()
	other.CreatorID = 2
	_, _ = store.CreateQuiz(ctx, other)

	quiz, err := store.LoadQuiz(ctx, first)
	require.NoError(t, err)
	assert.NotZero(t, quiz.Questions[0].ID, "question ids assigned")

	list, _ := store.ListQuizzesByUser(ctx, 1)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, first, list[1].ID)
	assert.Equal(t, 1, list[0].QuestionCount)
}

func TestLobbyStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewLobbyStore()
	quiz := domain.Quiz{ID: 5, Title: "Rivers", CreatorID: 1}

	_, err := store.Update(ctx, 5, nil, func(*domain.Lobby) error { return nil })
	assert.ErrorIs(t, err, domain.ErrLobbyNotFound, "no create func")

	open := func() (*domain.Lobby, error) { return domain.NewLobby(quiz, time.Now()), nil }
	lobby, err := store.Update(ctx, 5, open, func(l *domain.Lobby) error { return l.Join(2, 0) })
	require.NoError(t, err)
	assert.Len(t, lobby.Participants, 1)

	boom := errors.New("boom")
	_, err = store.Update(ctx, 5, open, func(l *domain.Lobby) error {
		l.Participants = nil
		return boom
	})
	assert.ErrorIs(t, err, boom)
	stored, _ := store.Get(ctx, 5)
	assert.Len(t, stored.Participants, 1, "failed update is not saved")

	// returned copies never alias the stored lobby
	stored.Participants[0] = 99
	again, _ := store.Get(ctx, 5)
	assert.Equal(t, int64(2), again.Participants[0])

	_ = store.Delete(ctx, 5)
	_, err = store.Get(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrLobbyNotFound)
}
