package google

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/oauth2"

	"github.com/vaidrix/meetingbot/internal/instrumentation"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	tokenFile := filepath.Join(t.TempDir(), "credentials", "token.json")
	store, err := NewStore("client-id", "client-secret", "http://localhost:8080/auth/google/callback", tokenFile, slog.Default())
	require.NoError(t, err)
	return store
}

func TestNewStoreRequiresClientSettings(t *testing.T) {
	_, err := NewStore("", "secret", "uri", "token.json", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")
}

func TestLoadWithoutTokenIsUnauthenticated(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(t.Context())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, store.HasToken())
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	token := &oauth2.Token{
		AccessToken:  "access-123",
		TokenType:    "Bearer",
		RefreshToken: "refresh-456",
		Expiry:       time.Now().Add(time.Hour).Truncate(time.Second),
	}

	require.NoError(t, store.Save(token))
	assert.True(t, store.HasToken())

	loaded, err := store.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, loaded.AccessToken)
	assert.Equal(t, token.RefreshToken, loaded.RefreshToken)
	assert.WithinDuration(t, token.Expiry, loaded.Expiry, time.Second)
}

func TestSaveWritesScopesAndRestrictsMode(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(time.Hour)}))

	info, err := os.Stat(store.tokenFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(store.tokenFile)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "access_token")
	assert.Contains(t, doc, "scopes")
}

func TestLoadCorruptTokenFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.tokenFile), 0700))
	require.NoError(t, os.WriteFile(store.tokenFile, []byte("{not json"), 0600))

	_, err := store.Load(t.Context())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAuthenticated)
	assert.Contains(t, err.Error(), "corrupt")
}

func TestSaveOverwritesWholesale(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "first", RefreshToken: "r1", Expiry: time.Now().Add(time.Hour)}))
	require.NoError(t, store.Save(&oauth2.Token{AccessToken: "second", RefreshToken: "r2", Expiry: time.Now().Add(time.Hour)}))

	loaded, err := store.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.AccessToken)
	assert.Equal(t, "r2", loaded.RefreshToken)
}

// staticSource hands out one fixed token, standing in for the transport's
// refreshing source.
type staticSource struct {
	token *oauth2.Token
}

func (s staticSource) Token() (*oauth2.Token, error) {
	return s.token, nil
}

func TestPersistingSourceSavesRotatedToken(t *testing.T) {
	store := newTestStore(t)
	old := &oauth2.Token{AccessToken: "old", RefreshToken: "keep-me", Expiry: time.Now().Add(-time.Hour)}
	require.NoError(t, store.Save(old))

	rotated := &oauth2.Token{AccessToken: "new", Expiry: time.Now().Add(time.Hour)}
	src := &persistingSource{store: store, src: staticSource{rotated}, last: old}

	got, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "new", got.AccessToken)
	assert.Equal(t, "keep-me", got.RefreshToken, "refresh token survives rotation")

	loaded, err := store.Load(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "new", loaded.AccessToken, "rotated token must reach disk")
	assert.Equal(t, "keep-me", loaded.RefreshToken)
}

func TestPersistingSourceRecordsRefresh(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := instrumentation.NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	store := newTestStore(t)
	store.SetMetrics(metrics)

	unchanged := &oauth2.Token{AccessToken: "same", RefreshToken: "r", Expiry: time.Now().Add(time.Hour)}
	src := &persistingSource{store: store, src: staticSource{unchanged}, last: unchanged}

	_, err = src.Token()
	require.NoError(t, err)
	assert.Zero(t, refreshCount(t, reader), "an unchanged token is not a refresh")

	src.src = staticSource{&oauth2.Token{AccessToken: "rotated", Expiry: time.Now().Add(time.Hour)}}
	_, err = src.Token()
	require.NoError(t, err)
	assert.Equal(t, int64(1), refreshCount(t, reader))
}

func refreshCount(t *testing.T, reader *sdkmetric.ManualReader) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "oauth_token_refresh_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestAuthCodeURLRequestsOfflineConsent(t *testing.T) {
	store := newTestStore(t)
	url := store.AuthCodeURL("state-abc")

	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "prompt=consent")
	assert.Contains(t, url, "state=state-abc")
}
