package http

import (
	"net/http"

	"quizroom/internal/app"
	"quizroom/internal/domain"
	"quizroom/internal/protocol"
)

type quizHandler struct {
	quizzes *app.QuizService
}

// createQuizRequest accepts both the current and the older field names.
type createQuizRequest struct {
	UserID    int64             `json:"userId"`
	UserIDAlt int64             `json:"user_id"`
	Title     string            `json:"title"`
	Nome      string            `json:"nome"`
	TimeLimit int               `json:"timeLimit"`
	Questions []domain.Question `json:"questions"`
}

func (req createQuizRequest) userID() int64 {
	if req.UserID != 0 {
		return req.UserID
	}
	return req.UserIDAlt
}

func (req createQuizRequest) title() string {
	if req.Title != "" {
		return req.Title
	}
	return req.Nome
}

func (h *quizHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	creator, err := actor(r, req.userID())
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := h.quizzes.Create(r.Context(), app.CreateQuizInput{
		CreatorID: creator,
		Title:     req.title(),
		TimeLimit: req.TimeLimit,
		Questions: req.Questions,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "quiz created", "quiz_id": id})
}

func (h *quizHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	quiz, err := h.quizzes.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "quiz found", "quiz": protocol.QuizToWire(quiz)})
}
