package http

import (
	"context"
	"net/http"
	"strings"

	"quizroom/internal/domain"
)

type ctxKey int

const actorKey ctxKey = iota

// Authenticator resolves bearer tokens to user ids.
type Authenticator interface {
	Authenticate(token string) (int64, error)
}

// bearer records the caller's user id in the request context when a valid
// token is present. A missing or rejected token leaves the request
// anonymous; routes that need a user call actor.
func bearer(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := auth.Authenticate(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, id)))
		})
	}
}

// actor returns the authenticated user and checks it matches claimed, the
// user id sent in the body (0 means "not sent").
func actor(r *http.Request, claimed int64) (int64, error) {
	id, ok := r.Context().Value(actorKey).(int64)
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	if claimed != 0 && claimed != id {
		return 0, domain.ErrForbidden
	}
	return id, nil
}
