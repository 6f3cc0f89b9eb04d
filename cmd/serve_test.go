package cmd

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaidrix/meetingbot/internal/config"
	"github.com/vaidrix/meetingbot/internal/session"
)

func TestNewSessionStoreMemory(t *testing.T) {
	store, client := newSessionStore(&config.Config{}, slog.Default())

	assert.Nil(t, client, "no redis client without REDIS_ADDR")
	_, ok := store.(*session.MemoryStore)
	assert.True(t, ok, "expected the in-memory store")
}

func TestNewSessionStoreRedis(t *testing.T) {
	cfg := &config.Config{RedisAddr: "localhost:6379"}

	store, client := newSessionStore(cfg, slog.Default())
	require.NotNil(t, client)
	defer client.Close()

	_, ok := store.(*session.RedisStore)
	assert.True(t, ok, "expected the redis store")
}
