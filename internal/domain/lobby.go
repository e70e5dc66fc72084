package domain

import "time"

// LobbyStatus is the server-side lifecycle of a quiz room.
type LobbyStatus string

const (
	LobbyWaiting LobbyStatus = "waiting"
	LobbyStarted LobbyStatus = "started"
)

// Lobby is the waiting room for one quiz. Participants keep join order.
type Lobby struct {
	QuizID        int64       `json:"quiz_id"`
	QuizTitle     string      `json:"quiz_title"`
	AdminID       int64       `json:"admin_id"`
	Participants  []int64     `json:"participants"`
	Status        LobbyStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	StartedAt     *time.Time  `json:"started_at,omitempty"`
	GameSessionID string      `json:"game_session_id,omitempty"`
	// Revision counts committed membership and status changes.
	Revision int64 `json:"revision"`
}

// NewLobby opens a waiting lobby for quiz.
func NewLobby(quiz Quiz, now time.Time) *Lobby {
	return &Lobby{
		QuizID:       quiz.ID,
		QuizTitle:    quiz.Title,
		AdminID:      quiz.CreatorID,
		Participants: []int64{},
		Status:       LobbyWaiting,
		CreatedAt:    now,
	}
}

// Has reports whether userID already joined.
func (l *Lobby) Has(userID int64) bool {
	for _, id := range l.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// Join appends userID once. maxParticipants <= 0 disables the cap.
func (l *Lobby) Join(userID int64, maxParticipants int) error {
	if l.Status != LobbyWaiting {
		return ErrLobbyStarted
	}
	if l.Has(userID) {
		return nil
	}
	if maxParticipants > 0 && len(l.Participants) >= maxParticipants {
		return ErrLobbyFull
	}
	l.Participants = append(l.Participants, userID)
	l.Revision++
	return nil
}

// Leave removes userID keeping the order of the others.
func (l *Lobby) Leave(userID int64) error {
	for i, id := range l.Participants {
		if id == userID {
			l.Participants = append(l.Participants[:i], l.Participants[i+1:]...)
			l.Revision++
			return nil
		}
	}
	return ErrNotInLobby
}

// Start moves the lobby to started; only the admin may do it.
func (l *Lobby) Start(userID int64, gameSessionID string, now time.Time) error {
	if l.AdminID != userID {
		return ErrNotLobbyAdmin
	}
	if l.Status != LobbyWaiting {
		return ErrLobbyStarted
	}
	if len(l.Participants) == 0 {
		return ErrLobbyEmpty
	}
	l.Status = LobbyStarted
	l.StartedAt = &now
	l.GameSessionID = gameSessionID
	l.Revision++
	return nil
}

// LobbyView is a lobby with participant ids resolved to members.
type LobbyView struct {
	QuizID        int64         `json:"quiz_id"`
	QuizTitle     string        `json:"quiz_title"`
	AdminID       int64         `json:"admin_id"`
	Participants  []LobbyMember `json:"participants"`
	Status        LobbyStatus   `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	GameSessionID string        `json:"game_session_id,omitempty"`
	Revision      int64         `json:"revision"`
}
