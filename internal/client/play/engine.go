// Package play runs one user's pass through a quiz: question navigation,
// answer capture and the countdown that can end it early.
package play

import (
	"errors"
	"sync"
	"time"

	"quizroom/internal/domain"
)

var (
	ErrNoSelection = errors.New("no answer selected")
	ErrRevealed    = errors.New("answer already revealed")
	ErrFinished    = errors.New("quiz already finished")
	ErrOutOfRange  = errors.New("index out of range")
)

// NoSelection marks the absence of a tentative choice.
const NoSelection = -1

// Outcome is what a finished play-through hands to the results view.
type Outcome struct {
	Quiz      domain.Quiz
	Answers   []domain.Answer
	TimeSpent int
	TimeUp    bool
}

// State is a snapshot for rendering.
type State struct {
	Index    int
	Total    int
	Question domain.Question
	Selected int
	Revealed bool
	Answered int
	Finished bool
}

type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// OnFinish registers fn to receive the outcome once, outside the engine lock.
func OnFinish(fn func(Outcome)) Option {
	return func(e *Engine) { e.onFinish = fn }
}

// Engine is safe for use from the input loop and the countdown goroutine.
type Engine struct {
	mu            sync.Mutex
	quiz          domain.Quiz
	index         int
	answers       []domain.Answer
	selected      int
	revealed      bool
	startedAt     time.Time
	questionStart time.Time
	outcome       *Outcome
	now           func() time.Time
	onFinish      func(Outcome)
}

func NewEngine(quiz domain.Quiz, opts ...Option) *Engine {
	e := &Engine{quiz: quiz, selected: NoSelection, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	e.startedAt = e.now()
	e.questionStart = e.startedAt
	return e
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := State{
		Index:    e.index,
		Total:    len(e.quiz.Questions),
		Selected: e.selected,
		Revealed: e.revealed,
		Answered: len(e.answers),
		Finished: e.outcome != nil,
	}
	if e.index < len(e.quiz.Questions) {
		st.Question = e.quiz.Questions[e.index]
	}
	return st
}

// SelectAnswer records a tentative choice; re-selecting overwrites it.
func (e *Engine) SelectAnswer(option int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.outcome != nil:
		return ErrFinished
	case e.revealed:
		return ErrRevealed
	case e.index >= len(e.quiz.Questions):
		return ErrOutOfRange
	case option < 0 || option >= len(e.quiz.Questions[e.index].Options):
		return ErrOutOfRange
	}
	e.selected = option
	return nil
}

// Reveal shows whether the tentative choice is correct without recording it.
func (e *Engine) Reveal() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.outcome != nil {
		return false, ErrFinished
	}
	if e.selected == NoSelection {
		return false, ErrNoSelection
	}
	e.revealed = true
	return e.quiz.Questions[e.index].IsCorrect(e.selected), nil
}

// Advance records the tentative choice and moves on, finishing the quiz after
// the last question. On a revisited question the new answer overwrites the
// earlier one at that index, time spent included; later answers are kept.
func (e *Engine) Advance() (finished bool, err error) {
	e.mu.Lock()
	if e.outcome != nil {
		e.mu.Unlock()
		return true, ErrFinished
	}
	if e.selected == NoSelection {
		e.mu.Unlock()
		return false, ErrNoSelection
	}
	now := e.now()
	q := e.quiz.Questions[e.index]
	answer := domain.Answer{
		QuestionID:          q.ID,
		SelectedOptionIndex: e.selected,
		IsCorrect:           q.IsCorrect(e.selected),
		TimeSpentSeconds:    int(now.Sub(e.questionStart) / time.Second),
	}
	if e.index < len(e.answers) {
		e.answers[e.index] = answer
	} else {
		e.answers = append(e.answers, answer)
	}

	if e.index == len(e.quiz.Questions)-1 {
		out := e.finishLocked(now, false)
		e.mu.Unlock()
		e.notify(out)
		return true, nil
	}
	e.moveLocked(e.index+1, now)
	e.mu.Unlock()
	return false, nil
}

// GoBack returns to the previous question with its recorded choice restored.
// It is a no-op on the first question.
func (e *Engine) GoBack() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.outcome != nil || e.index == 0 {
		return
	}
	e.moveLocked(e.index-1, e.now())
}

// GoTo jumps to an answered question or the first unanswered one.
func (e *Engine) GoTo(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.outcome != nil {
		return ErrFinished
	}
	if index < 0 || index > len(e.answers) || index >= len(e.quiz.Questions) {
		return ErrOutOfRange
	}
	e.moveLocked(index, e.now())
	return nil
}

// Answered reports whether question index has a recorded answer.
func (e *Engine) Answered(index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return index >= 0 && index < len(e.answers)
}

// TimeUp ends the quiz with whatever has been recorded so far.
func (e *Engine) TimeUp() {
	e.mu.Lock()
	if e.outcome != nil {
		e.mu.Unlock()
		return
	}
	out := e.finishLocked(e.now(), true)
	e.mu.Unlock()
	e.notify(out)
}

// Outcome returns the result once the quiz is finished.
func (e *Engine) Outcome() (Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.outcome == nil {
		return Outcome{}, false
	}
	return *e.outcome, true
}

func (e *Engine) moveLocked(index int, now time.Time) {
	e.index = index
	e.revealed = false
	e.selected = NoSelection
	if index < len(e.answers) {
		e.selected = e.answers[index].SelectedOptionIndex
	}
	e.questionStart = now
}

func (e *Engine) finishLocked(now time.Time, timeUp bool) Outcome {
	out := Outcome{
		Quiz:      e.quiz,
		Answers:   append([]domain.Answer(nil), e.answers...),
		TimeSpent: int(now.Sub(e.startedAt) / time.Second),
		TimeUp:    timeUp,
	}
	if out.Answers == nil {
		out.Answers = []domain.Answer{}
	}
	e.outcome = &out
	return out
}

func (e *Engine) notify(out Outcome) {
	if e.onFinish != nil {
		e.onFinish(out)
	}
}
