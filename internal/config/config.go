package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the meeting assistant.
// Values are read from the environment (optionally seeded from a .env file).
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string

	// GeminiModel is the Gemini model identifier used for the agent.
	GeminiModel string

	// GeminiAPIKey authenticates against the Gemini API.
	// Read from GOOGLE_API_KEY, falling back to GEMINI_API_KEY.
	GeminiAPIKey string

	// Google OAuth client settings for the calendar authorization flow.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// TokenFile is the path where the OAuth token is persisted as JSON.
	TokenFile string

	// CalendarID is the Google Calendar the assistant books into. Required.
	CalendarID string

	// Timezone is the business timezone used to interpret times the user
	// gives without an explicit offset.
	Timezone string

	// SessionSecret is the HMAC key for the session cookie signature.
	SessionSecret string

	// RedisAddr enables the Redis-backed session store when non-empty.
	// When empty, sessions are kept in process memory.
	RedisAddr string

	// ChatRateLimit is the sustained chat requests per second per client.
	ChatRateLimit float64

	// ChatRateBurst is the chat rate limiter burst size.
	ChatRateBurst int

	// TurnTimeout bounds a single chat turn, including all tool calls.
	TurnTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (*Config, error) {
	// Ignore the error: a missing .env file is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		GeminiModel:        getEnv("GEMINI_MODEL_NAME", "gemini-2.5-pro"),
		GeminiAPIKey:       os.Getenv("GOOGLE_API_KEY"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  os.Getenv("GOOGLE_REDIRECT_URI"),
		TokenFile:          getEnv("GOOGLE_OAUTH_TOKEN_FILE", "credentials/token.json"),
		CalendarID:         os.Getenv("GOOGLE_CALENDAR_ID"),
		Timezone:           getEnv("DEFAULT_TIMEZONE", "Asia/Kolkata"),
		SessionSecret:      getEnv("SESSION_SECRET", "change-this-secret"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		ChatRateLimit:      1,
		ChatRateBurst:      5,
		TurnTimeout:        2 * time.Minute,
	}

	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	if cfg.CalendarID == "" {
		return nil, fmt.Errorf("GOOGLE_CALENDAR_ID environment variable is required; set it in your .env file or environment")
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// Location resolves the configured business timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
