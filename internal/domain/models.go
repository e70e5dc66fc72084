package domain

import "time"

// User is the public identity of a registered player.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Account is a user together with its stored password hash.
type Account struct {
	User
	PasswordHash string
}

// Question models a multiple-choice question with exactly one correct option.
type Question struct {
	ID                 int64    `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswer"`
}

// IsCorrect reports whether option index is the correct answer.
func (q Question) IsCorrect(index int) bool {
	return index == q.CorrectAnswerIndex
}

// Quiz is a titled, ordered collection of questions owned by its creator.
type Quiz struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	CreatorID int64      `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	TimeLimit int        `json:"timeLimit,omitempty"` // seconds, 0 means server default
	Questions []Question `json:"questions"`
}

// QuizSummary is the list view of a quiz.
type QuizSummary struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	CreatorID     int64     `json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
	QuestionCount int       `json:"question_count"`
}

// LobbyMember is one entry of a room's member list.
type LobbyMember struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Answer is recorded once per question per play-through.
type Answer struct {
	QuestionID          int64 `json:"questionId"`
	SelectedOptionIndex int   `json:"selectedOption"`
	IsCorrect           bool  `json:"isCorrect"`
	TimeSpentSeconds    int   `json:"timeSpent"`
}
