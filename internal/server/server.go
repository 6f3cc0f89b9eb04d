package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/vaidrix/meetingbot/internal/agent"
	"github.com/vaidrix/meetingbot/internal/config"
	"github.com/vaidrix/meetingbot/internal/google"
	"github.com/vaidrix/meetingbot/internal/instrumentation"
	"github.com/vaidrix/meetingbot/internal/logging"
	"github.com/vaidrix/meetingbot/internal/session"
)

// Cookie names. The session cookie carries only a random token; all state
// lives server-side in the session store.
const (
	sessionCookieName = "meetingbot_session"
	stateCookieName   = "meetingbot_oauth_state"
)

// User-facing replies for conditions the agent never sees.
const (
	emptyMessageReply = "Please type a message."
	rateLimitedReply  = "You're sending messages too quickly. Please wait a moment and try again."
	agentFailureReply = "Sorry, something went wrong while processing your request. Please try again in a moment."
)

// Server wires the chat agent, session store and OAuth flow into an HTTP
// handler.
type Server struct {
	cfg      *config.Config
	agent    agent.Agent
	sessions session.Store
	creds    *google.Store
	metrics  *instrumentation.Metrics
	metricsH http.Handler
	limiters *clientLimiters
	logger   *slog.Logger
}

// New constructs the server. metricsHandler may be nil when metrics are
// disabled; the /metrics route is then omitted.
func New(cfg *config.Config, ag agent.Agent, sessions session.Store, creds *google.Store, metrics *instrumentation.Metrics, metricsHandler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		agent:    ag,
		sessions: sessions,
		creds:    creds,
		metrics:  metrics,
		metricsH: metricsHandler,
		limiters: newClientLimiters(cfg.ChatRateLimit, cfg.ChatRateBurst),
		logger:   logger,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Post("/api/chat", s.handleChat)
	r.Get("/auth/google", s.handleAuthStart)
	r.Get("/auth/google/callback", s.handleAuthCallback)
	r.Get("/healthz", s.handleHealth)
	if s.metricsH != nil {
		r.Handle("/metrics", s.metricsH)
	}

	return r
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// handleChat runs one conversational turn: load the session history, append
// the user's message, let the agent reason (with tool calls), persist the
// updated history and return the assistant's reply.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatResponse{Reply: emptyMessageReply})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, chatResponse{Reply: emptyMessageReply})
		return
	}

	sessionID := s.sessionID(w, r)
	logger := s.logger.With(logging.SessionHash(sessionID))

	if !s.limiters.allow(sessionID) {
		logger.Warn("chat rate limited", logging.Operation("server.chat"))
		writeJSON(w, http.StatusTooManyRequests, chatResponse{Reply: rateLimitedReply})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.TurnTimeout)
	defer cancel()

	history, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		// A lost history degrades to a fresh conversation rather than an
		// error reply.
		logger.Error("failed to load session history",
			logging.Operation("server.chat"), logging.Err(err))
		history = nil
	}

	history = append(history, session.Message{Role: session.RoleHuman, Text: message})

	updated, err := s.agent.RunTurn(ctx, history)
	if err != nil {
		logger.Error("agent turn failed",
			logging.Operation("server.chat"),
			logging.Status(logging.StatusError),
			logging.Err(err),
			slog.Duration(logging.KeyDuration, time.Since(start)))
		s.metrics.RecordChatTurn(ctx, instrumentation.ResultError, time.Since(start))
		writeJSON(w, http.StatusOK, chatResponse{Reply: agentFailureReply})
		return
	}

	reply := agent.LastAssistantText(updated)
	if reply == "" {
		reply = agentFailureReply
	}

	if err := s.sessions.Save(ctx, sessionID, updated); err != nil {
		// The turn succeeded; losing the save costs continuity, not the reply.
		logger.Error("failed to save session history",
			logging.Operation("server.chat"), logging.Err(err))
	}

	logger.Info("chat turn complete",
		logging.Operation("server.chat"),
		logging.Status(logging.StatusSuccess),
		slog.Duration(logging.KeyDuration, time.Since(start)))
	s.metrics.RecordChatTurn(ctx, instrumentation.ResultSuccess, time.Since(start))

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// handleAuthStart redirects the operator to Google's consent screen. The
// random state is mirrored into a short-lived cookie for the callback check.
func (s *Server) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	s.logger.Info("starting google authorization", logging.Operation("server.auth"))
	http.Redirect(w, r, s.creds.AuthCodeURL(state), http.StatusFound)
}

// handleAuthCallback completes the authorization code exchange and persists
// the token for the calendar client.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		s.logger.Warn("google authorization denied",
			logging.Operation("server.auth"), slog.String("reason", errParam))
		http.Error(w, "Authorization was denied.", http.StatusForbidden)
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		s.logger.Warn("oauth state mismatch", logging.Operation("server.auth"))
		http.Error(w, "Invalid OAuth state.", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code.", http.StatusBadRequest)
		return
	}

	if err := s.creds.Exchange(r.Context(), code); err != nil {
		s.logger.Error("authorization code exchange failed",
			logging.Operation("server.auth"), logging.Err(err))
		http.Error(w, "Authorization failed. Check the server logs.", http.StatusInternalServerError)
		return
	}

	// Expire the state cookie now that the flow is complete.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
	})

	s.logger.Info("google authorization complete",
		logging.Operation("server.auth"), logging.Status(logging.StatusSuccess))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Google Calendar connected. You can close this window and return to the chat.")
}

type healthResponse struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
}

// handleHealth reports liveness and whether a Google token is on file.
// Authentication state is informational; the endpoint always returns 200 so
// the service stays schedulable while waiting for the one-time OAuth grant.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Authenticated: s.creds != nil && s.creds.HasToken(),
	})
}

// sessionID returns the caller's verified session token, minting a new
// signed cookie when none is present, the id is malformed, or the
// signature does not check out.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if id, ok := s.verifySessionCookie(cookie.Value); ok {
			return id
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id + "." + s.sessionSignature(id),
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// verifySessionCookie splits an "id.signature" cookie value and checks the
// signature, so clients cannot mint ids and read someone else's history.
func (s *Server) verifySessionCookie(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(s.sessionSignature(id))) {
		return "", false
	}
	return id, true
}

func (s *Server) sessionSignature(id string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.SessionSecret))
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
