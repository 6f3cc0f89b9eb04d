package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/vaidrix/meetingbot/internal/instrumentation"
	"github.com/vaidrix/meetingbot/internal/logging"
)

// Scopes requested during authorization: calendar and event read/write.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/calendar.events.readonly",
}

// ErrNotAuthenticated indicates that no OAuth credential has been stored
// yet. Calendar operations cannot be serviced until the interactive
// authorization flow at /auth/google completes.
var ErrNotAuthenticated = errors.New("google oauth credential not found; open /auth/google in a browser and authorize")

// storedToken is the on-disk JSON layout of the credential.
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Store persists and refreshes the single shared OAuth credential.
// Writes are serialized with a mutex and performed atomically
// (write to a temp file, then rename) so a partial write never leaves
// an unparseable credential behind.
type Store struct {
	conf      *oauth2.Config
	tokenFile string
	metrics   *instrumentation.Metrics
	logger    *slog.Logger

	mu sync.Mutex
}

// SetMetrics attaches refresh telemetry. A nil receiver value is a no-op
// recorder, so calling this is optional.
func (s *Store) SetMetrics(m *instrumentation.Metrics) {
	s.metrics = m
}

// NewStore creates a credential store. All three OAuth client settings are
// required; the token file may not exist yet.
func NewStore(clientID, clientSecret, redirectURI, tokenFile string, logger *slog.Logger) (*Store, error) {
	if clientID == "" || clientSecret == "" || redirectURI == "" {
		return nil, fmt.Errorf("google oauth settings missing: set GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URI")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     googleoauth.Endpoint,
			Scopes:       Scopes,
		},
		tokenFile: tokenFile,
		logger:    logger,
	}, nil
}

// AuthCodeURL returns the Google consent screen URL for the given state.
// Offline access with forced consent so a refresh token is always issued.
func (s *Store) AuthCodeURL(state string) string {
	return s.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for a token and persists it.
func (s *Store) Exchange(ctx context.Context, code string) error {
	token, err := s.conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return s.Save(token)
}

// Save persists the token. The write is atomic: the new document is written
// to a temp file in the same directory and renamed over the old one.
func (s *Store) Save(token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(token)
}

func (s *Store) writeLocked(token *oauth2.Token) error {
	dir := filepath.Dir(s.tokenFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(storedToken{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
		Scopes:       Scopes,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set token file mode: %w", err)
	}
	if err := os.Rename(tmpName, s.tokenFile); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to persist token file: %w", err)
	}
	return nil
}

// Load returns the stored token, refreshing and re-persisting it first if it
// has expired and holds a refresh token. Returns ErrNotAuthenticated when no
// credential has been stored yet.
func (s *Store) Load(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.tokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("token file is corrupt: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		TokenType:    stored.TokenType,
		RefreshToken: stored.RefreshToken,
		Expiry:       stored.Expiry,
	}

	if token.Valid() || token.RefreshToken == "" {
		return token, nil
	}

	// Expired with a refresh token: refresh now and persist the new value
	// before handing it out.
	fresh, err := s.conf.TokenSource(ctx, token).Token()
	if err != nil {
		s.metrics.RecordTokenRefresh(ctx, instrumentation.ResultError)
		return nil, fmt.Errorf("failed to refresh google oauth token: %w", err)
	}
	s.metrics.RecordTokenRefresh(ctx, instrumentation.ResultSuccess)
	if fresh.RefreshToken == "" {
		// Google omits the refresh token on refresh responses; keep ours.
		fresh.RefreshToken = token.RefreshToken
	}
	if err := s.writeLocked(fresh); err != nil {
		return nil, err
	}
	s.logger.Info("google oauth token refreshed", slog.Time("expiry", fresh.Expiry))
	return fresh, nil
}

// HasToken reports whether a credential document exists on disk.
func (s *Store) HasToken() bool {
	_, err := os.Stat(s.tokenFile)
	return err == nil
}

// Client returns an HTTP client authorized with the stored credential.
// Refreshed tokens obtained by the transport are persisted back through
// the store so the on-disk credential stays current.
func (s *Store) Client(ctx context.Context) (*http.Client, error) {
	token, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	src := &persistingSource{
		store: s,
		src:   s.conf.TokenSource(ctx, token),
		last:  token,
	}
	return oauth2.NewClient(ctx, src), nil
}

// persistingSource wraps a token source and writes every rotated token back
// to the store, so a refresh that happens mid-request is not lost when the
// process restarts.
type persistingSource struct {
	store *Store
	src   oauth2.TokenSource

	mu   sync.Mutex
	last *oauth2.Token
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	token, err := p.src.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.last != nil && token.AccessToken == p.last.AccessToken {
		return token, nil
	}

	if token.RefreshToken == "" && p.last != nil {
		// Refresh responses usually omit the refresh token; keep ours.
		token.RefreshToken = p.last.RefreshToken
	}

	p.store.metrics.RecordTokenRefresh(context.Background(), instrumentation.ResultSuccess)
	if err := p.store.Save(token); err != nil {
		// The in-memory token is still good; only durability suffered.
		p.store.logger.Warn("failed to persist refreshed token", logging.Err(err))
	} else {
		p.store.logger.Info("refreshed token persisted", slog.Time("expiry", token.Expiry))
	}
	p.last = token
	return token, nil
}
