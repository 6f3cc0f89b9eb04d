package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalRoundTrip(t *testing.T) {
	original := []Message{
		{Role: RoleHuman, Text: "book a call tomorrow at 3pm"},
		{Role: RoleAssistant, Text: "Sure — who should I invite?"},
		{Role: RoleHuman, Text: "alice@example.com"},
	}

	data, err := Marshal(original)
	require.NoError(t, err)

	restored, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, original, restored, "role, text and order must survive the round trip")
}

func TestUnmarshalEmpty(t *testing.T) {
	messages, err := Unmarshal(nil)
	require.NoError(t, err)
	assert.Nil(t, messages)

	messages, err = Unmarshal([]byte{})
	require.NoError(t, err)
	assert.Nil(t, messages)
}

func TestUnmarshalCorrupt(t *testing.T) {
	_, err := Unmarshal([]byte("{broken"))
	assert.Error(t, err)
}

func TestMemoryStoreUnknownSession(t *testing.T) {
	store := NewMemoryStore()

	messages, err := store.Load(t.Context(), "never-seen")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestMemoryStoreSaveLoad(t *testing.T) {
	store := NewMemoryStore()
	history := []Message{
		{Role: RoleHuman, Text: "hi"},
		{Role: RoleAssistant, Text: "hello"},
	}

	require.NoError(t, store.Save(t.Context(), "s1", history))

	loaded, err := store.Load(t.Context(), "s1")
	require.NoError(t, err)
	assert.Equal(t, history, loaded)

	// Sessions are independent.
	other, err := store.Load(t.Context(), "s2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryStoreCopiesOnLoad(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(t.Context(), "s1", []Message{{Role: RoleHuman, Text: "original"}}))

	loaded, _ := store.Load(t.Context(), "s1")
	loaded[0].Text = "mutated"

	again, _ := store.Load(t.Context(), "s1")
	assert.Equal(t, "original", again[0].Text, "callers must not be able to mutate stored state")
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(t.Context(), "s1", []Message{{Role: RoleHuman, Text: "first"}}))
	require.NoError(t, store.Save(t.Context(), "s1", []Message{
		{Role: RoleHuman, Text: "first"},
		{Role: RoleAssistant, Text: "second"},
	}))

	loaded, err := store.Load(t.Context(), "s1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, RoleAssistant, loaded[1].Role)
}
