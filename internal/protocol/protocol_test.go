package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAcceptsStringsAndNumbers(t *testing.T) {
	var p JoinRoomPayload
	require.NoError(t, json.Unmarshal([]byte(`{"room_id":"12","username":"ann","user_id":3}`), &p))
	assert.Equal(t, ID(12), p.RoomID)
	assert.Equal(t, ID(3), p.UserID)
	assert.Error(t, json.Unmarshal([]byte(`{"room_id":"abc"}`), &p), "non-numeric id")
}

func TestEncodeWrapsPayload(t *testing.T) {
	env, err := Encode(UserJoined, MembershipPayload{Username: "ann", ParticipantsCount: 2})
	require.NoError(t, err)
	assert.Equal(t, UserJoined, env.Type)
	var got MembershipPayload
	require.NoError(t, json.Unmarshal(env.Payload, &got))
	assert.Equal(t, 2, got.ParticipantsCount)
}

func TestPlayersPayloadCarriesRevision(t *testing.T) {
	raw, err := json.Marshal(PlayersPayload{Revision: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"players":null,"revision":4}`, string(raw))

	var p PlayersPayload
	require.NoError(t, json.Unmarshal([]byte(`{"players":[]}`), &p))
	assert.Zero(t, p.Revision, "lists without a revision are accepted")
}
