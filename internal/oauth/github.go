package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kushal1111/LLMproject/internal/config"
)

type GitHub struct {
	clientID     string
	clientSecret string
	redirectURL  string

	authEndpoint   string
	tokenEndpoint  string
	userEndpoint   string
	emailsEndpoint string
}

func NewGitHub(p config.OAuthProvider, baseURL string) *GitHub {
	return &GitHub{
		clientID:       p.ClientID,
		clientSecret:   p.ClientSecret,
		redirectURL:    baseURL + "/api/auth/github/callback",
		authEndpoint:   "https://github.com/login/oauth/authorize",
		tokenEndpoint:  "https://github.com/login/oauth/access_token",
		userEndpoint:   "https://api.github.com/user",
		emailsEndpoint: "https://api.github.com/user/emails",
	}
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) AuthURL(state string) string {
	params := url.Values{}
	params.Add("client_id", g.clientID)
	params.Add("redirect_uri", g.redirectURL)
	params.Add("scope", "read:user user:email")
	params.Add("state", state)
	return g.authEndpoint + "?" + params.Encode()
}

func (g *GitHub) Exchange(ctx context.Context, code string) (string, error) {
	data := url.Values{}
	data.Set("code", code)
	data.Set("client_id", g.clientID)
	data.Set("client_secret", g.clientSecret)
	data.Set("redirect_uri", g.redirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("github: code exchange failed: %s", string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}
	return tokenResp.AccessToken, nil
}

func (g *GitHub) Identity(ctx context.Context, accessToken string) (*Identity, error) {
	var user struct {
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := g.getJSON(ctx, g.userEndpoint, accessToken, &user); err != nil {
		return nil, err
	}

	email := user.Email
	if email == "" {
		// The profile email is often private; the emails endpoint
		// carries the primary one.
		var emails []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		}
		if err := g.getJSON(ctx, g.emailsEndpoint, accessToken, &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary {
				email = e.Email
				break
			}
		}
		if email == "" && len(emails) > 0 {
			email = emails[0].Email
		}
	}
	if email == "" {
		return nil, fmt.Errorf("github: no email on account")
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}
	return &Identity{Email: email, Name: name, Picture: user.AvatarURL}, nil
}

func (g *GitHub) getJSON(ctx context.Context, endpoint, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("github: %s failed: %s", endpoint, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
