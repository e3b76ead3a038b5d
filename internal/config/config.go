package config

import (
	"errors"
	"os"
	"strconv"
)

// OAuthProvider holds one provider's client pair. A provider is
// activated only when both values are set.
type OAuthProvider struct {
	ClientID     string
	ClientSecret string
}

func (p OAuthProvider) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string
	BaseURL     string

	// SessionSecret signs provider-managed session tokens (30 days),
	// JWTSecret signs the standalone /api/users/login token (1 hour).
	SessionSecret        string
	JWTSecret            string
	SessionTTLDays       int
	LoginTokenTTLMinutes int

	Google OAuthProvider
	GitHub OAuthProvider

	CompletionBaseURL string
	CompletionAPIKey  string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func Load() Config {
	return Config{
		Port:                 getenv("APP_PORT", "8080"),
		DatabaseDSN:          getenv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=llmchat port=5432 sslmode=disable TimeZone=UTC"),
		Env:                  getenv("APP_ENV", "dev"),
		BaseURL:              getenv("APP_BASE_URL", "http://localhost:8080"),
		SessionSecret:        getenv("SESSION_SECRET", "dev-secret-change-me"),
		JWTSecret:            getenv("JWT_SECRET", "dev-secret-change-me"),
		SessionTTLDays:       getenvInt("SESSION_TTL_DAYS", 30),
		LoginTokenTTLMinutes: getenvInt("LOGIN_TOKEN_TTL_MINUTES", 60),
		Google: OAuthProvider{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		},
		GitHub: OAuthProvider{
			ClientID:     os.Getenv("GITHUB_ID"),
			ClientSecret: os.Getenv("GITHUB_SECRET"),
		},
		CompletionBaseURL: getenv("OPENAI_BASE_URL", "https://openrouter.ai/api/v1"),
		CompletionAPIKey:  os.Getenv("OPENAI_API_KEY"),
	}
}

// Validate rejects configurations that cannot safely serve: missing
// port or DSN, and the default signing secrets outside dev.
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("config: port is required")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("config: database DSN is required")
	}
	if cfg.Env != "dev" {
		if cfg.SessionSecret == "dev-secret-change-me" {
			return errors.New("config: default session secret is not allowed outside dev")
		}
		if cfg.JWTSecret == "dev-secret-change-me" {
			return errors.New("config: default JWT secret is not allowed outside dev")
		}
	}
	return nil
}
