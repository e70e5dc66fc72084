package play_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizroom/internal/client/play"
	"quizroom/internal/domain"
)

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    1,
		Title: "Sample",
		Questions: []domain.Question{
			{ID: 10, Text: "first", Options: []string{"A", "B", "C", "D"}, CorrectAnswerIndex: 2},
			{ID: 11, Text: "second", Options: []string{"X", "Y"}, CorrectAnswerIndex: 0},
		},
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time      { return c.t }
func (c *fakeClock) add(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *fakeClock               { return &fakeClock{t: time.Unix(1700000000, 0)} }

func TestPlayThroughScoresAnswers(t *testing.T) {
	clock := newClock()
	var finished []play.Outcome
	e := play.NewEngine(sampleQuiz(), play.WithClock(clock.now), play.OnFinish(func(o play.Outcome) {
		finished = append(finished, o)
	}))

	require.NoError(t, e.SelectAnswer(2))
	correct, err := e.Reveal()
	require.NoError(t, err)
	assert.True(t, correct)
	assert.Equal(t, 0, e.State().Answered, "reveal must not record an answer")

	clock.add(4 * time.Second)
	done, err := e.Advance()
	require.NoError(t, err)
	assert.False(t, done)
	st := e.State()
	assert.Equal(t, 1, st.Index)
	assert.Equal(t, 1, st.Answered)
	assert.Equal(t, play.NoSelection, st.Selected)
	assert.False(t, st.Revealed)

	require.NoError(t, e.SelectAnswer(1))
	clock.add(3 * time.Second)
	done, err = e.Advance()
	require.NoError(t, err)
	assert.True(t, done)

	require.Len(t, finished, 1)
	out := finished[0]
	assert.False(t, out.TimeUp)
	assert.Equal(t, 7, out.TimeSpent)
	require.Len(t, out.Answers, 2)
	assert.Equal(t, domain.Answer{QuestionID: 10, SelectedOptionIndex: 2, IsCorrect: true, TimeSpentSeconds: 4}, out.Answers[0])
	assert.Equal(t, domain.Answer{QuestionID: 11, SelectedOptionIndex: 1, IsCorrect: false, TimeSpentSeconds: 3}, out.Answers[1])

	_, err = e.Advance()
	assert.ErrorIs(t, err, play.ErrFinished)
	assert.ErrorIs(t, e.SelectAnswer(0), play.ErrFinished)
}

func TestSelectionRules(t *testing.T) {
	e := play.NewEngine(sampleQuiz())

	_, err := e.Reveal()
	assert.ErrorIs(t, err, play.ErrNoSelection)
	_, err = e.Advance()
	assert.ErrorIs(t, err, play.ErrNoSelection)
	assert.ErrorIs(t, e.SelectAnswer(4), play.ErrOutOfRange)

	require.NoError(t, e.SelectAnswer(0))
	require.NoError(t, e.SelectAnswer(1))
	assert.Equal(t, 1, e.State().Selected)

	_, err = e.Reveal()
	require.NoError(t, err)
	assert.ErrorIs(t, e.SelectAnswer(2), play.ErrRevealed)
}

func TestAdvanceKeepsAnswersInStepWithIndex(t *testing.T) {
	e := play.NewEngine(sampleQuiz())
	require.NoError(t, e.SelectAnswer(0))
	_, err := e.Advance()
	require.NoError(t, err)
	st := e.State()
	assert.Equal(t, st.Index, st.Answered)
}

func TestGoBackRestoresSelection(t *testing.T) {
	e := play.NewEngine(sampleQuiz())

	e.GoBack()
	assert.Equal(t, 0, e.State().Index, "go back on the first question is a no-op")

	require.NoError(t, e.SelectAnswer(3))
	_, err := e.Reveal()
	require.NoError(t, err)
	_, err = e.Advance()
	require.NoError(t, err)

	e.GoBack()
	st := e.State()
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, 3, st.Selected)
	assert.False(t, st.Revealed)
	assert.Equal(t, 1, st.Answered, "going back keeps the recorded answer")
	assert.True(t, e.Answered(0))
	assert.False(t, e.Answered(1))
}

func TestAdvanceOnRevisitOverwritesAnswer(t *testing.T) {
	clock := newClock()
	e := play.NewEngine(sampleQuiz(), play.WithClock(clock.now))

	require.NoError(t, e.SelectAnswer(0))
	clock.add(2 * time.Second)
	_, err := e.Advance()
	require.NoError(t, err)

	e.GoBack()
	require.NoError(t, e.SelectAnswer(2))
	clock.add(5 * time.Second)
	_, err = e.Advance()
	require.NoError(t, err)
	assert.Equal(t, 1, e.State().Index)
	assert.Equal(t, 1, e.State().Answered, "revisit does not append")

	require.NoError(t, e.SelectAnswer(0))
	done, err := e.Advance()
	require.NoError(t, err)
	require.True(t, done)

	out, ok := e.Outcome()
	require.True(t, ok)
	require.Len(t, out.Answers, 2)
	assert.Equal(t, domain.Answer{QuestionID: 10, SelectedOptionIndex: 2, IsCorrect: true, TimeSpentSeconds: 5}, out.Answers[0])
	assert.Equal(t, int64(11), out.Answers[1].QuestionID)
}

func TestGoToAnsweredOrFrontierOnly(t *testing.T) {
	e := play.NewEngine(sampleQuiz())
	assert.ErrorIs(t, e.GoTo(1), play.ErrOutOfRange)

	require.NoError(t, e.SelectAnswer(1))
	_, err := e.Advance()
	require.NoError(t, err)

	require.NoError(t, e.GoTo(0))
	assert.Equal(t, 1, e.State().Selected)

	require.NoError(t, e.SelectAnswer(2))
	_, err = e.Advance()
	require.NoError(t, err)
	assert.Equal(t, 1, e.State().Answered, "re-answering replaces the record")

	require.NoError(t, e.GoTo(0))
	assert.Equal(t, 2, e.State().Selected)
}

func TestTimeUpWithNoAnswers(t *testing.T) {
	var calls int
	e := play.NewEngine(sampleQuiz(), play.OnFinish(func(play.Outcome) { calls++ }))
	require.NoError(t, e.SelectAnswer(1))

	e.TimeUp()
	e.TimeUp()

	out, ok := e.Outcome()
	require.True(t, ok)
	assert.True(t, out.TimeUp)
	assert.NotNil(t, out.Answers)
	assert.Empty(t, out.Answers)
	assert.Equal(t, 1, calls)
}

func TestCountdownExpires(t *testing.T) {
	var ticks atomic.Int32
	expired := make(chan struct{})
	c := play.NewCountdown(3, func(int) { ticks.Add(1) }, func() { close(expired) }).WithInterval(time.Millisecond)
	c.Start(context.Background())

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not expire")
	}
	<-c.Done()
	assert.Equal(t, int32(3), ticks.Load())
	assert.Equal(t, 0, c.Remaining())
}

func TestCountdownStop(t *testing.T) {
	var expired atomic.Bool
	c := play.NewCountdown(1000, nil, func() { expired.Store(true) }).WithInterval(time.Millisecond)
	c.Start(context.Background())
	c.Stop()
	<-c.Done()
	assert.False(t, expired.Load())
	assert.Greater(t, c.Remaining(), 0)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "05:00", play.FormatClock(300))
	assert.Equal(t, "01:05", play.FormatClock(65))
	assert.Equal(t, "00:00", play.FormatClock(-3))
}
