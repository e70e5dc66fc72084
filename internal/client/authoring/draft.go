// Package authoring holds the editable state of a quiz being created.
// Questions are edited as domain-shaped drafts; conversion to the REST
// wire format happens only in the api client.
package authoring

import (
	"fmt"
	"strings"

	"quizroom/internal/domain"
)

// Draft is one question under edit.
type Draft struct {
	Text    string
	Options []string
	Correct int
}

// NewDraft starts with two empty options and the first one marked correct.
func NewDraft() *Draft {
	return &Draft{Options: make([]string, domain.MinOptions)}
}

func (d *Draft) SetText(text string) {
	d.Text = text
}

func (d *Draft) SetOption(i int, text string) error {
	if i < 0 || i >= len(d.Options) {
		return fmt.Errorf("option %d out of range", i)
	}
	d.Options[i] = text
	return nil
}

// AddOption appends an empty option. It reports false at the maximum.
func (d *Draft) AddOption() bool {
	if len(d.Options) >= domain.MaxOptions {
		return false
	}
	d.Options = append(d.Options, "")
	return true
}

// RemoveOption drops option i, keeping Correct on the same option when an
// earlier one goes away. Removing the correct option itself moves the mark
// to its predecessor. It reports false at the minimum.
func (d *Draft) RemoveOption(i int) bool {
	if len(d.Options) <= domain.MinOptions || i < 0 || i >= len(d.Options) {
		return false
	}
	d.Options = append(d.Options[:i:i], d.Options[i+1:]...)
	if d.Correct >= i && d.Correct > 0 {
		d.Correct--
	}
	if d.Correct >= len(d.Options) {
		d.Correct = len(d.Options) - 1
	}
	return true
}

func (d *Draft) SetCorrect(i int) error {
	if i < 0 || i >= len(d.Options) {
		return &domain.ValidationError{Field: "correctAnswer", Message: "please select a valid correct answer"}
	}
	d.Correct = i
	return nil
}

// Validate reports the first problem as a *domain.ValidationError.
func (d *Draft) Validate() error {
	_, err := d.Question()
	return err
}

// Question returns the finished question with blank options dropped.
func (d *Draft) Question() (domain.Question, error) {
	if strings.TrimSpace(d.Text) == "" {
		return domain.Question{}, &domain.ValidationError{Field: "questionText", Message: "question text is required"}
	}
	if d.Correct < 0 || d.Correct >= len(d.Options) || strings.TrimSpace(d.Options[d.Correct]) == "" {
		return domain.Question{}, &domain.ValidationError{Field: "correctAnswer", Message: "the selected correct answer cannot be empty"}
	}
	q := domain.Question{Text: strings.TrimSpace(d.Text), CorrectAnswerIndex: -1}
	for i, opt := range d.Options {
		if strings.TrimSpace(opt) == "" {
			continue
		}
		if i == d.Correct {
			q.CorrectAnswerIndex = len(q.Options)
		}
		q.Options = append(q.Options, strings.TrimSpace(opt))
	}
	if err := domain.ValidateQuestion(q); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

// QuizDraft is a quiz under construction.
type QuizDraft struct {
	Title     string
	TimeLimit int
	Questions []domain.Question
}

// AddQuestion validates d and appends it.
func (qd *QuizDraft) AddQuestion(d *Draft) error {
	q, err := d.Question()
	if err != nil {
		return err
	}
	qd.Questions = append(qd.Questions, q)
	return nil
}

func (qd *QuizDraft) RemoveQuestion(i int) bool {
	if i < 0 || i >= len(qd.Questions) {
		return false
	}
	qd.Questions = append(qd.Questions[:i:i], qd.Questions[i+1:]...)
	return true
}

func (qd *QuizDraft) Validate() error {
	return domain.ValidateQuiz(qd.Title, qd.Questions)
}
