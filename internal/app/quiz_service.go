package app

import (
	"context"
	"strings"

	"quizroom/internal/domain"
)

// QuizStore persists authored quizzes.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (int64, error)
	ListQuizzesByUser(ctx context.Context, userID int64) ([]domain.QuizSummary, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// QuizService covers quiz authoring and retrieval.
type QuizService struct {
	store            QuizStore
	quizzes          QuizRepository
	users            UserRepository
	defaultTimeLimit int
}

func NewQuizService(store QuizStore, quizzes QuizRepository, users UserRepository, defaultTimeLimit int) *QuizService {
	return &QuizService{store: store, quizzes: quizzes, users: users, defaultTimeLimit: defaultTimeLimit}
}

// CreateQuizInput is what an author submits.
type CreateQuizInput struct {
	CreatorID int64
	Title     string
	TimeLimit int
	Questions []domain.Question
}

// Create validates and stores a quiz, returning its id.
func (s *QuizService) Create(ctx context.Context, in CreateQuizInput) (int64, error) {
	title := strings.TrimSpace(in.Title)
	if err := domain.ValidateQuiz(title, in.Questions); err != nil {
		return 0, err
	}
	if in.TimeLimit < 0 {
		return 0, &domain.ValidationError{Field: "timeLimit", Message: "time limit cannot be negative"}
	}
	if _, err := s.users.GetUser(ctx, in.CreatorID); err != nil {
		return 0, err
	}
	questions := make([]domain.Question, len(in.Questions))
	for i, q := range in.Questions {
		questions[i] = domain.Question{
			Text:               strings.TrimSpace(q.Text),
			Options:            append([]string(nil), q.Options...),
			CorrectAnswerIndex: q.CorrectAnswerIndex,
		}
	}
	return s.store.CreateQuiz(ctx, domain.Quiz{
		Title:     title,
		CreatorID: in.CreatorID,
		TimeLimit: in.TimeLimit,
		Questions: questions,
	})
}

// Get returns the quiz with its questions; a zero time limit gets the default.
func (s *QuizService) Get(ctx context.Context, quizID int64) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.TimeLimit == 0 {
		quiz.TimeLimit = s.defaultTimeLimit
	}
	return quiz, nil
}

// ListByUser returns the quizzes authored by userID, newest first.
func (s *QuizService) ListByUser(ctx context.Context, userID int64) ([]domain.QuizSummary, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListQuizzesByUser(ctx, userID)
}
