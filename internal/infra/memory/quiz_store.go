package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizroom/internal/domain"
)

// QuizStore keeps authored quizzes in memory. It doubles as a QuizLoader.
type QuizStore struct {
	mu             sync.RWMutex
	clock          func() time.Time
	nextQuizID     int64
	nextQuestionID int64
	quizzes        map[int64]domain.Quiz
}

func NewQuizStore() *QuizStore {
	return &QuizStore{
		clock:   time.Now,
		quizzes: make(map[int64]domain.Quiz),
	}
}

func (s *QuizStore) CreateQuiz(_ context.Context, quiz domain.Quiz) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextQuizID++
	quiz.ID = s.nextQuizID
	quiz.CreatedAt = s.clock()
	questions := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		s.nextQuestionID++
		q.ID = s.nextQuestionID
		q.Options = append([]string(nil), q.Options...)
		questions[i] = q
	}
	quiz.Questions = questions
	s.quizzes[quiz.ID] = quiz
	return quiz.ID, nil
}

func (s *QuizStore) LoadQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *QuizStore) ListQuizzesByUser(_ context.Context, userID int64) ([]domain.QuizSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.QuizSummary{}
	for _, quiz := range s.quizzes {
		if quiz.CreatorID != userID {
			continue
		}
		out = append(out, domain.QuizSummary{
			ID:            quiz.ID,
			Title:         quiz.Title,
			CreatorID:     quiz.CreatorID,
			CreatedAt:     quiz.CreatedAt,
			QuestionCount: len(quiz.Questions),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
