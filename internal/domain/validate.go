package domain

import (
	"fmt"
	"strings"
)

const (
	MinOptions = 2
	MaxOptions = 4
)

// ValidateQuestion enforces 2..4 non-blank options and an in-range correct index.
func ValidateQuestion(q Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return invalid("questionText", "question text is required")
	}
	if len(q.Options) < MinOptions {
		return invalid("options", fmt.Sprintf("at least %d options are required", MinOptions))
	}
	if len(q.Options) > MaxOptions {
		return invalid("options", fmt.Sprintf("at most %d options are allowed", MaxOptions))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return invalid("options", fmt.Sprintf("option %d is empty", i+1))
		}
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
		return invalid("correctAnswer", "please select a valid correct answer")
	}
	return nil
}

// ValidateQuiz checks the title and every question; the first failure wins.
func ValidateQuiz(title string, questions []Question) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", "quiz title is required")
	}
	if len(questions) == 0 {
		return invalid("questions", "at least 1 question is required")
	}
	for i, q := range questions {
		if err := ValidateQuestion(q); err != nil {
			ve := err.(*ValidationError)
			return &ValidationError{Field: fmt.Sprintf("questions[%d].%s", i, ve.Field), Message: ve.Message}
		}
	}
	return nil
}
