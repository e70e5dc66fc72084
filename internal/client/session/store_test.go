package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizroom/internal/client/session"
	"quizroom/internal/domain"
)

func TestStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")

	first := session.NewStore(session.NewFileKV(path))
	require.NoError(t, first.SetUser(domain.User{ID: 7, Username: "alice"}))
	require.NoError(t, first.SetToken("tok"))

	second := session.NewStore(session.NewFileKV(path))
	st, err := second.Load()
	require.NoError(t, err)
	assert.Equal(t, session.State{UserID: 7, Username: "alice", Token: "tok"}, st)
	assert.True(t, st.Authenticated())
	assert.Equal(t, "tok", second.Token())
}

func TestLoadIgnoresUnparsableUserID(t *testing.T) {
	kv := session.NewMemoryKV()
	require.NoError(t, kv.Set("user_id", "abc"))
	require.NoError(t, kv.Set("username", "ghost"))

	st, err := session.NewStore(kv).Load()
	require.NoError(t, err)
	assert.False(t, st.Authenticated())
	assert.Empty(t, st.Username)
}

func TestLoadMissingFileIsSignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "session.yaml")
	st, err := session.NewStore(session.NewFileKV(path)).Load()
	require.NoError(t, err)
	assert.False(t, st.Authenticated())
}

func TestClearRemovesKeysAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	store := session.NewStore(session.NewFileKV(path))
	require.NoError(t, store.SetUser(domain.User{ID: 1, Username: "bob"}))

	var seen []session.State
	cancel := store.Subscribe(func(st session.State) { seen = append(seen, st) })

	require.NoError(t, store.Clear())
	require.Len(t, seen, 1)
	assert.False(t, seen[0].Authenticated())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "bob")

	cancel()
	cancel()
	require.NoError(t, store.SetToken("x"))
	assert.Len(t, seen, 1, "cancelled subscriber must not be called")
}
