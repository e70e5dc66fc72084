package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuestion(t *testing.T) {
	cases := []struct {
		name  string
		q     Question
		field string
	}{
		{"ok", Question{Text: "2+2?", Options: []string{"3", "4"}, CorrectAnswerIndex: 1}, ""},
		{"no text", Question{Text: " ", Options: []string{"a", "b"}}, "questionText"},
		{"one option", Question{Text: "q", Options: []string{"a"}}, "options"},
		{"five options", Question{Text: "q", Options: []string{"a", "b", "c", "d", "e"}}, "options"},
		{"blank option", Question{Text: "q", Options: []string{"a", ""}}, "options"},
		{"index past end", Question{Text: "q", Options: []string{"a", "b"}, CorrectAnswerIndex: 2}, "correctAnswer"},
		{"negative index", Question{Text: "q", Options: []string{"a", "b"}, CorrectAnswerIndex: -1}, "correctAnswer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateQuestion(tc.q)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tc.field, ve.Field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestValidateQuizPrefixesQuestionIndex(t *testing.T) {
	err := ValidateQuiz("Capitals", []Question{
		{Text: "ok", Options: []string{"a", "b"}},
		{Text: "bad", Options: []string{"a"}},
	})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "questions[1].options", ve.Field)
	assert.Error(t, ValidateQuiz("", nil), "title required")
	assert.Error(t, ValidateQuiz("t", nil), "questions required")
}

func TestLobbyLifecycle(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := NewLobby(Quiz{ID: 7, Title: "Rivers", CreatorID: 1}, now)

	assert.ErrorIs(t, l.Start(1, "s1", now), ErrLobbyEmpty)
	require.NoError(t, l.Join(2, 2))
	require.NoError(t, l.Join(2, 2), "rejoin is a no-op")
	assert.Equal(t, int64(1), l.Revision, "rejoin does not count as a change")
	require.NoError(t, l.Join(3, 2))
	assert.ErrorIs(t, l.Join(4, 2), ErrLobbyFull)
	assert.ErrorIs(t, l.Start(2, "s1", now), ErrNotLobbyAdmin)
	require.NoError(t, l.Leave(2))
	assert.ErrorIs(t, l.Leave(2), ErrNotInLobby)
	assert.Equal(t, []int64{3}, l.Participants)

	require.NoError(t, l.Start(1, "s1", now))
	assert.Equal(t, LobbyStarted, l.Status)
	assert.Equal(t, "s1", l.GameSessionID)
	assert.NotNil(t, l.StartedAt)
	assert.Equal(t, int64(4), l.Revision)
	assert.ErrorIs(t, l.Join(5, 0), ErrLobbyStarted)
}
