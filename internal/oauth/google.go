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

type Google struct {
	clientID     string
	clientSecret string
	redirectURL  string

	authEndpoint     string
	tokenEndpoint    string
	userinfoEndpoint string
}

func NewGoogle(p config.OAuthProvider, baseURL string) *Google {
	return &Google{
		clientID:         p.ClientID,
		clientSecret:     p.ClientSecret,
		redirectURL:      baseURL + "/api/auth/google/callback",
		authEndpoint:     "https://accounts.google.com/o/oauth2/v2/auth",
		tokenEndpoint:    "https://oauth2.googleapis.com/token",
		userinfoEndpoint: "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) AuthURL(state string) string {
	params := url.Values{}
	params.Add("client_id", g.clientID)
	params.Add("redirect_uri", g.redirectURL)
	params.Add("response_type", "code")
	params.Add("scope", "openid email profile")
	params.Add("state", state)
	params.Add("access_type", "offline")
	params.Add("prompt", "consent")
	return g.authEndpoint + "?" + params.Encode()
}

func (g *Google) Exchange(ctx context.Context, code string) (string, error) {
	data := url.Values{}
	data.Set("code", code)
	data.Set("client_id", g.clientID)
	data.Set("client_secret", g.clientSecret)
	data.Set("redirect_uri", g.redirectURL)
	data.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("google: code exchange failed: %s", string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}
	return tokenResp.AccessToken, nil
}

func (g *Google) Identity(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userinfoEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("google: userinfo failed: %s", string(body))
	}

	var user struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	return &Identity{Email: user.Email, Name: user.Name, Picture: user.Picture}, nil
}
