package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kushal1111/LLMproject/internal/completion"
	"github.com/kushal1111/LLMproject/internal/db"
	"github.com/kushal1111/LLMproject/internal/oauth"
	"github.com/kushal1111/LLMproject/internal/service"
)

// stubProvider satisfies oauth.Provider without any network calls.
type stubProvider struct {
	exchangeErr error
	identity    oauth.Identity
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) AuthURL(state string) string {
	return "https://provider.example/authorize?state=" + state
}

func (s *stubProvider) Exchange(_ context.Context, code string) (string, error) {
	if s.exchangeErr != nil {
		return "", s.exchangeErr
	}
	if code != "good-code" {
		return "", errors.New("unknown code")
	}
	return "provider-access-token", nil
}

func (s *stubProvider) Identity(_ context.Context, accessToken string) (*oauth.Identity, error) {
	if accessToken != "provider-access-token" {
		return nil, errors.New("bad access token")
	}
	id := s.identity
	return &id, nil
}

func newOAuthRouter(t *testing.T, p oauth.Provider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	users := service.NewUserService(gdb)
	chats := service.NewChatService(gdb)
	llm := completion.New(cfg.CompletionBaseURL, cfg.CompletionAPIKey)
	h := NewHandler(cfg, users, chats, llm, map[string]oauth.Provider{p.Name(): p})

	r := gin.New()
	r.GET("/api/auth/session", h.Session)
	r.GET("/api/auth/:provider", h.OAuthLogin)
	r.GET("/api/auth/:provider/callback", h.OAuthCallback)
	return r
}

func janeStub() *stubProvider {
	return &stubProvider{identity: oauth.Identity{
		Email:   "jane@x.com",
		Name:    "Jane Doe",
		Picture: "https://example.com/p.png",
	}}
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestOAuthLogin_RedirectsWithState(t *testing.T) {
	r := newOAuthRouter(t, janeStub())

	w := doJSON(r, http.MethodGet, "/api/auth/stub", "")
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	state := findCookie(w, "oauth_state")
	require.NotNil(t, state, "state cookie not set")
	assert.NotEmpty(t, state.Value)
	assert.True(t, state.HttpOnly)
	assert.Equal(t, "https://provider.example/authorize?state="+state.Value, w.Header().Get("Location"))
	assert.Nil(t, findCookie(w, "callbackUrl"))
}

func TestOAuthLogin_KeepsCallbackURL(t *testing.T) {
	r := newOAuthRouter(t, janeStub())

	w := doJSON(r, http.MethodGet, "/api/auth/stub?callbackUrl=/chat/resume", "")
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	cb := findCookie(w, "callbackUrl")
	require.NotNil(t, cb)
	assert.Equal(t, "/chat/resume", cb.Value)

	// External targets are never stored.
	w = doJSON(r, http.MethodGet, "/api/auth/stub?callbackUrl=https://evil.example/", "")
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Nil(t, findCookie(w, "callbackUrl"))
}

func TestOAuthCallback_ProviderError(t *testing.T) {
	r := newOAuthRouter(t, janeStub())

	w := doJSON(r, http.MethodGet, "/api/auth/stub/callback?error=access_denied", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?error=access_denied", w.Header().Get("Location"))
}

func TestOAuthCallback_StateMismatch(t *testing.T) {
	r := newOAuthRouter(t, janeStub())

	// No state cookie at all.
	w := doJSON(r, http.MethodGet, "/api/auth/stub/callback?state=abc&code=good-code", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Cookie and query disagree.
	w = doJSON(r, http.MethodGet, "/api/auth/stub/callback?state=evil&code=good-code",
		"", &http.Cookie{Name: "oauth_state", Value: "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOAuthCallback_MissingCode(t *testing.T) {
	r := newOAuthRouter(t, janeStub())

	w := doJSON(r, http.MethodGet, "/api/auth/stub/callback?state=abc",
		"", &http.Cookie{Name: "oauth_state", Value: "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOAuthCallback_Success(t *testing.T) {
	r := newOAuthRouter(t, janeStub())

	w := doJSON(r, http.MethodGet, "/api/auth/stub/callback?state=abc&code=good-code",
		"", &http.Cookie{Name: "oauth_state", Value: "abc"})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/chat", w.Header().Get("Location"))

	token := findCookie(w, "token")
	require.NotNil(t, token, "session cookie not set")
	assert.NotEmpty(t, token.Value)
	assert.True(t, token.HttpOnly)
	assert.Greater(t, token.MaxAge, 0)

	state := findCookie(w, "oauth_state")
	require.NotNil(t, state)
	assert.True(t, state.MaxAge < 0, "state cookie should be cleared")

	// The minted session resolves to the provisioned, verified user.
	w = doJSON(r, http.MethodGet, "/api/auth/session", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"jane@x.com"`)
	assert.Contains(t, w.Body.String(), `"username":"jane-doe"`)
	assert.Contains(t, w.Body.String(), `"isVerified":true`)
}

func TestOAuthCallback_HonorsCallbackURL(t *testing.T) {
	r := newOAuthRouter(t, janeStub())

	w := doJSON(r, http.MethodGet, "/api/auth/stub/callback?state=abc&code=good-code", "",
		&http.Cookie{Name: "oauth_state", Value: "abc"},
		&http.Cookie{Name: "callbackUrl", Value: "/chat/resume"})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/chat/resume", w.Header().Get("Location"))

	cb := findCookie(w, "callbackUrl")
	require.NotNil(t, cb)
	assert.True(t, cb.MaxAge < 0, "callbackUrl cookie should be cleared")
}

func TestOAuthCallback_ExchangeFailure(t *testing.T) {
	stub := janeStub()
	stub.exchangeErr = errors.New("provider unreachable")
	r := newOAuthRouter(t, stub)

	w := doJSON(r, http.MethodGet, "/api/auth/stub/callback?state=abc&code=good-code",
		"", &http.Cookie{Name: "oauth_state", Value: "abc"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "provider unreachable")
}
