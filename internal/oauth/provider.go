// Package oauth implements the third-party login strategies as a
// small closed set of providers behind one interface, selected by
// configuration.
package oauth

import (
	"context"
	"net/http"
	"time"

	"github.com/kushal1111/LLMproject/internal/config"
)

// Identity is the provider-supplied profile the sign-in hook consumes.
type Identity struct {
	Email   string
	Name    string
	Picture string
}

type Provider interface {
	Name() string
	// AuthURL is the provider's authorization endpoint with our
	// client id, redirect URI and CSRF state baked in.
	AuthURL(state string) string
	// Exchange trades the callback code for an access token.
	Exchange(ctx context.Context, code string) (string, error)
	// Identity fetches the profile behind an access token.
	Identity(ctx context.Context, accessToken string) (*Identity, error)
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// FromConfig returns the providers whose client id and secret are both
// configured, keyed by name.
func FromConfig(cfg config.Config) map[string]Provider {
	providers := make(map[string]Provider)
	if cfg.Google.Enabled() {
		providers["google"] = NewGoogle(cfg.Google, cfg.BaseURL)
	}
	if cfg.GitHub.Enabled() {
		providers["github"] = NewGitHub(cfg.GitHub, cfg.BaseURL)
	}
	return providers
}
