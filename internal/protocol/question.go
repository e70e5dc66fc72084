package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"quizroom/internal/domain"
)

// QuestionWire is how GET /api/quiz/{id} serializes a question. The field
// names predate the Go service and are kept for existing clients; this file
// is the only place that converts between them and domain.Question.
type QuestionWire struct {
	ID               int64   `json:"id"`
	Testo            string  `json:"testo"`
	Risposta1        string  `json:"risposta_1"`
	Risposta2        string  `json:"risposta_2"`
	Risposta3        *string `json:"risposta_3,omitempty"`
	Risposta4        *string `json:"risposta_4,omitempty"`
	RispostaCorretta string  `json:"risposta_corretta"`
	QuizID           int64   `json:"quiz_id"`
}

// QuizWire is the quiz body of GET /api/quiz/{id}.
type QuizWire struct {
	ID        int64          `json:"id"`
	Nome      string         `json:"nome"`
	Data      time.Time      `json:"data"`
	UserID    int64          `json:"user_id"`
	TimeLimit int            `json:"timeLimit"`
	Questions []QuestionWire `json:"questions"`
}

// QuestionToWire encodes q; the correct answer travels as its decimal index.
func QuestionToWire(quizID int64, q domain.Question) QuestionWire {
	w := QuestionWire{
		ID:               q.ID,
		Testo:            q.Text,
		RispostaCorretta: strconv.Itoa(q.CorrectAnswerIndex),
		QuizID:           quizID,
	}
	slots := []*string{&w.Risposta1, &w.Risposta2}
	for i, opt := range q.Options {
		switch {
		case i < len(slots):
			*slots[i] = opt
		case i == 2:
			w.Risposta3 = strPtr(opt)
		case i == 3:
			w.Risposta4 = strPtr(opt)
		}
	}
	return w
}

// Question decodes w back into a validated domain.Question.
func (w QuestionWire) Question() (domain.Question, error) {
	options := []string{w.Risposta1, w.Risposta2}
	for _, extra := range []*string{w.Risposta3, w.Risposta4} {
		if extra != nil && strings.TrimSpace(*extra) != "" {
			options = append(options, *extra)
		}
	}
	correct, err := strconv.Atoi(strings.TrimSpace(w.RispostaCorretta))
	if err != nil {
		return domain.Question{}, fmt.Errorf("question %d: correct answer %q is not an index", w.ID, w.RispostaCorretta)
	}
	q := domain.Question{ID: w.ID, Text: w.Testo, Options: options, CorrectAnswerIndex: correct}
	if err := domain.ValidateQuestion(q); err != nil {
		return domain.Question{}, fmt.Errorf("question %d: %w", w.ID, err)
	}
	return q, nil
}

// QuizToWire encodes quiz for GET /api/quiz/{id}.
func QuizToWire(quiz domain.Quiz) QuizWire {
	w := QuizWire{
		ID:        quiz.ID,
		Nome:      quiz.Title,
		Data:      quiz.CreatedAt,
		UserID:    quiz.CreatorID,
		TimeLimit: quiz.TimeLimit,
		Questions: make([]QuestionWire, len(quiz.Questions)),
	}
	for i, q := range quiz.Questions {
		w.Questions[i] = QuestionToWire(quiz.ID, q)
	}
	return w
}

// Quiz decodes w into a domain.Quiz.
func (w QuizWire) Quiz() (domain.Quiz, error) {
	quiz := domain.Quiz{
		ID:        w.ID,
		Title:     w.Nome,
		CreatorID: w.UserID,
		CreatedAt: w.Data,
		TimeLimit: w.TimeLimit,
		Questions: make([]domain.Question, len(w.Questions)),
	}
	for i, qw := range w.Questions {
		q, err := qw.Question()
		if err != nil {
			return domain.Quiz{}, err
		}
		quiz.Questions[i] = q
	}
	return quiz, nil
}

func strPtr(s string) *string { return &s }
