package http

import (
	"net/http"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

type userHandler struct {
	users   *app.UserService
	quizzes *app.QuizService
}

type credentialsRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

type authResponse struct {
	Message string      `json:"message"`
	User    domain.User `json:"user"`
	UserID  int64       `json:"user_id"`
	Token   string      `json:"token"`
}

func (h *userHandler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		writeError(w, &domain.ValidationError{Field: "confirmPassword", Message: "passwords do not match"})
		return
	}
	user, token, err := h.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Message: "user created", User: user, UserID: user.ID, Token: token})
}

func (h *userHandler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, token, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Message: "authenticated", User: user, UserID: user.ID, Token: token})
}

func (h *userHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "user found", "user": user})
}

func (h *userHandler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "users found", "users": users})
}

func (h *userHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	quizzes, err := h.quizzes.ListByUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "quizzes found", "quizzes": quizzes})
}
