package http

import (
	"net/http"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

type lobbyHandler struct {
	lobbies *app.LobbyService
}

type lobbyRequest struct {
	UserID int64 `json:"userId"`
}

type lobbyResponse struct {
	Success       bool              `json:"success"`
	Message       string            `json:"message"`
	Lobby         *domain.LobbyView `json:"lobby,omitempty"`
	GameSessionID string            `json:"gameSessionId,omitempty"`
}

func (h *lobbyHandler) get(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := h.lobbies.Get(r.Context(), quizID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lobbyResponse{Success: true, Message: "lobby found", Lobby: &view})
}

func (h *lobbyHandler) join(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(quizID, userID int64) (lobbyResponse, error) {
		view, err := h.lobbies.Join(r.Context(), quizID, userID)
		return lobbyResponse{Message: "joined lobby", Lobby: &view}, err
	})
}

func (h *lobbyHandler) leave(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(quizID, userID int64) (lobbyResponse, error) {
		view, err := h.lobbies.Leave(r.Context(), quizID, userID)
		return lobbyResponse{Message: "left lobby", Lobby: &view}, err
	})
}

func (h *lobbyHandler) start(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(quizID, userID int64) (lobbyResponse, error) {
		view, err := h.lobbies.Start(r.Context(), quizID, userID)
		return lobbyResponse{Message: "quiz started", Lobby: &view, GameSessionID: view.GameSessionID}, err
	})
}

func (h *lobbyHandler) close(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(quizID, userID int64) (lobbyResponse, error) {
		return lobbyResponse{Message: "lobby closed"}, h.lobbies.Close(r.Context(), quizID, userID)
	})
}

// act decodes {userId}, checks it against the bearer token and runs fn.
func (h *lobbyHandler) act(w http.ResponseWriter, r *http.Request, fn func(quizID, userID int64) (lobbyResponse, error)) {
	quizID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req lobbyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	userID, err := actor(r, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := fn(quizID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp.Success = true
	writeJSON(w, http.StatusOK, resp)
}
