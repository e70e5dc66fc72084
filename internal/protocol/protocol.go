// Package protocol defines the wire formats shared by the server and the
// client: the realtime {type, payload} envelope with the payloads of every
// lobby event, and the REST shape of quiz questions.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"quizroom/internal/domain"
)

// Client to server.
const (
	JoinRoom    = "join_room"
	LeaveRoom   = "leave_room"
	RoomMessage = "room_message"
)

// Server to client. RoomMessage is echoed back under the same name.
const (
	Connected   = "connected"
	UserJoined  = "user_joined"
	UserLeft    = "user_left"
	ListPlayers = "list_players"
	QuizStarted = "quiz_started"
	LobbyClosed = "lobby_closed"
	Error       = "error"
)

// Envelope is the frame sent in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is an outbound frame before encoding.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Encode wraps payload in an Envelope.
func Encode(eventType string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", eventType, err)
	}
	return Envelope{Type: eventType, Payload: raw}, nil
}

// ID accepts a numeric id sent either as a JSON number or a string, since
// route parameters arrive as strings on the client.
type ID int64

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		data = []byte(s)
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", data)
	}
	*id = ID(v)
	return nil
}

type JoinRoomPayload struct {
	RoomID   ID     `json:"room_id"`
	Username string `json:"username"`
	UserID   ID     `json:"user_id"`
}

type LeaveRoomPayload struct {
	RoomID   ID     `json:"room_id"`
	Username string `json:"username"`
}

type RoomMessagePayload struct {
	RoomID   ID     `json:"room_id,omitempty"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type ConnectedPayload struct {
	Message string `json:"message"`
}

// MembershipPayload is sent with user_joined and user_left.
type MembershipPayload struct {
	Username          string `json:"username"`
	ParticipantsCount int    `json:"participants_count"`
}

// PlayersPayload carries the full member list. Revision grows with every
// committed change, so a list older than one already seen can be ignored.
type PlayersPayload struct {
	Players  []domain.LobbyMember `json:"players"`
	Revision int64                `json:"revision,omitempty"`
}

type QuizStartedPayload struct {
	QuizID        int64  `json:"quiz_id"`
	GameSessionID string `json:"game_session_id"`
}

type LobbyClosedPayload struct {
	QuizID int64 `json:"quiz_id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
