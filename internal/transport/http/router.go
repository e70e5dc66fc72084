package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"quizroom/internal/app"
)

// Services bundles the use cases the transport layer exposes.
type Services struct {
	Users   *app.UserService
	Quizzes *app.QuizService
	Lobbies *app.LobbyService
	Rooms   *app.Rooms
}

// NewRouter wires the REST API under /api plus /healthz and /ws.
func NewRouter(svc Services, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	ws := NewWSHandler(svc.Lobbies, svc.Rooms, svc.Users, allowedOrigins)
	users := &userHandler{users: svc.Users, quizzes: svc.Quizzes}
	quizzes := &quizHandler{quizzes: svc.Quizzes}
	lobbies := &lobbyHandler{lobbies: svc.Lobbies}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Use(bearer(svc.Users))
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/auth", users.login)
		r.Post("/user", users.register)
		r.Get("/users", users.list)
		r.Get("/user/{id}", users.get)
		r.Get("/user/{id}/quizzes", users.listQuizzes)

		r.Post("/quiz", quizzes.create)
		r.Route("/quiz/{id}", func(r chi.Router) {
			r.Get("/", quizzes.get)
			r.Get("/lobby", lobbies.get)
			r.Post("/lobby/join", lobbies.join)
			r.Post("/lobby/leave", lobbies.leave)
			r.Post("/lobby/start", lobbies.start)
			r.Post("/lobby/close", lobbies.close)
		})
	})
	return r
}
