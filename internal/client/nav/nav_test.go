package nav_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quizroom/internal/client/nav"
	"quizroom/internal/client/play"
	"quizroom/internal/client/results"
	"quizroom/internal/domain"
)

func TestResolve(t *testing.T) {
	cases := map[string]nav.Target{
		"/":             {Route: nav.Home},
		"":              {Route: nav.Home},
		"/login":        {Route: nav.Login},
		"/my-quizzes/":  {Route: nav.MyQuizzes},
		"/quiz/12":      {Route: nav.Lobby, QuizID: 12},
		"/quiz/abc":     {Route: nav.Home},
		"/quiz/12/play": {Route: nav.Home},
		"/nowhere":      {Route: nav.Home},
		"/quiz-results": {Route: nav.Results},
	}
	for path, want := range cases {
		assert.Equal(t, want, nav.Resolve(path), path)
	}
}

func TestResultsWithoutOutcomeGoesHome(t *testing.T) {
	n := nav.NewNavigator()
	assert.Equal(t, nav.Home, n.Go("/quiz-results").Route)

	_, err := results.FromOutcome(n.Outcome())
	assert.ErrorIs(t, err, results.ErrMissingOutcome)
}

func TestLobbyToPlayToResults(t *testing.T) {
	n := nav.NewNavigator()
	assert.Equal(t, nav.Lobby, n.Go("/quiz/5").Route)
	assert.Equal(t, nav.Target{Route: nav.Play, QuizID: 5}, n.ToPlay(5))

	out := play.Outcome{Quiz: domain.Quiz{ID: 5}, Answers: []domain.Answer{}, TimeUp: true}
	assert.Equal(t, nav.Results, n.ToResults(out).Route)
	assert.NotNil(t, n.Outcome())
	assert.Equal(t, nav.Results, n.Go("/quiz-results").Route)

	n.Go("/")
	assert.Nil(t, n.Outcome())
}
