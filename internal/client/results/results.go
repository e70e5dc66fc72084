// Package results turns a finished play-through into a score summary.
// Everything here is a pure function of its inputs.
package results

import (
	"errors"
	"fmt"
	"math"

	"quizroom/internal/client/play"
	"quizroom/internal/domain"
)

// ErrMissingOutcome is returned when there is no finished quiz to show;
// callers send the user home.
var ErrMissingOutcome = errors.New("no quiz outcome to show")

// Review is the per-question breakdown.
type Review struct {
	Question domain.Question
	Selected int
	Answered bool
	Correct  bool
}

// CorrectOption is the text of the right answer.
func (r Review) CorrectOption() string {
	return r.Question.Options[r.Question.CorrectAnswerIndex]
}

// WrongPick is the user's incorrect choice, or "" when there is none.
func (r Review) WrongPick() string {
	if !r.Answered || r.Correct || r.Selected < 0 || r.Selected >= len(r.Question.Options) {
		return ""
	}
	return r.Question.Options[r.Selected]
}

type Summary struct {
	QuizID     int64
	Title      string
	Total      int
	Score      int
	Percentage int
	Message    string
	TimeSpent  int
	TimeUp     bool
	Review     []Review
}

// FromOutcome summarizes o, or fails with ErrMissingOutcome when o is nil.
func FromOutcome(o *play.Outcome) (Summary, error) {
	if o == nil {
		return Summary{}, ErrMissingOutcome
	}
	return Summarize(o.Quiz, o.Answers, o.TimeSpent, o.TimeUp), nil
}

func Summarize(quiz domain.Quiz, answers []domain.Answer, timeSpent int, timeUp bool) Summary {
	byQuestion := make(map[int64]domain.Answer, len(answers))
	score := 0
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
		if a.IsCorrect {
			score++
		}
	}
	s := Summary{
		QuizID:     quiz.ID,
		Title:      quiz.Title,
		Total:      len(quiz.Questions),
		Score:      score,
		Percentage: Percentage(score, len(quiz.Questions)),
		TimeSpent:  timeSpent,
		TimeUp:     timeUp,
		Review:     make([]Review, len(quiz.Questions)),
	}
	s.Message = Message(s.Percentage)
	for i, q := range quiz.Questions {
		r := Review{Question: q, Selected: play.NoSelection}
		if a, ok := byQuestion[q.ID]; ok {
			r.Answered = true
			r.Selected = a.SelectedOptionIndex
			r.Correct = a.IsCorrect
		}
		s.Review[i] = r
	}
	return s
}

// Percentage is round(100*score/total), and 0 for an empty quiz.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}

func Message(percentage int) string {
	switch {
	case percentage >= 90:
		return "Excellent! Outstanding performance!"
	case percentage >= 80:
		return "Great job! You did very well!"
	case percentage >= 70:
		return "Good work! Nice performance!"
	case percentage >= 60:
		return "Not bad! Keep practicing!"
	default:
		return "Keep learning and try again!"
	}
}

// FormatDuration renders seconds as "Xm Ys".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
