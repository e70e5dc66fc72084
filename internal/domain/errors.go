package domain

import "errors"

var (
	// ErrUserNotFound is returned when a user id or username is unknown.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing or invalid bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates an authenticated caller acting on behalf of someone else.
	ErrForbidden = errors.New("forbidden")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrLobbyNotFound is returned when no lobby exists for a quiz.
	ErrLobbyNotFound = errors.New("lobby not found")
	// ErrLobbyStarted is returned when joining or starting a lobby that already started.
	ErrLobbyStarted = errors.New("quiz has already started")
	// ErrLobbyFull is returned when the lobby reached its participant cap.
	ErrLobbyFull = errors.New("lobby is full")
	// ErrLobbyEmpty is returned when starting a lobby with no participants.
	ErrLobbyEmpty = errors.New("cannot start quiz with no participants")
	// ErrNotLobbyAdmin is returned when a non-creator tries an admin action.
	ErrNotLobbyAdmin = errors.New("only the quiz creator can do this")
	// ErrNotInLobby is returned when leaving a lobby the user is not part of.
	ErrNotInLobby = errors.New("user not in lobby")
	// ErrValidation is the target for errors.Is on every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError names the offending field so forms can show it inline.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
