package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kushal1111/LLMproject/internal/auth"
	"github.com/kushal1111/LLMproject/internal/completion"
	"github.com/kushal1111/LLMproject/internal/config"
	"github.com/kushal1111/LLMproject/internal/metrics"
	"github.com/kushal1111/LLMproject/internal/models"
	"github.com/kushal1111/LLMproject/internal/oauth"
	"github.com/kushal1111/LLMproject/internal/service"
)

const (
	stateCookie    = "oauth_state"
	callbackCookie = "callbackUrl"
)

// Handler aggregates the HTTP handlers with their injected
// dependencies.
type Handler struct {
	cfg       config.Config
	users     *service.UserService
	chats     *service.ChatService
	llm       *completion.Client
	providers map[string]oauth.Provider
}

func NewHandler(cfg config.Config, users *service.UserService, chats *service.ChatService, llm *completion.Client, providers map[string]oauth.Provider) *Handler {
	return &Handler{cfg: cfg, users: users, chats: chats, llm: llm, providers: providers}
}

func (h *Handler) secureCookies() bool {
	return h.cfg.Env != "dev"
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetCookie(auth.CookieName, token, int(ttl.Seconds()), "/", "", h.secureCookies(), true)
}

// Signup handles POST /api/users/signup.
func (h *Handler) Signup(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if len(req.Username) < 3 || len(req.Username) > 30 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid username"})
		return
	}
	if !strings.Contains(req.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid email"})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "password must be at least 6 characters"})
		return
	}

	_, err := h.users.Signup(req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"message": "User Email already exists"})
		case errors.Is(err, service.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"message": "UserName already in use. Please Try another"})
		default:
			log.Error().Err(err).Str("email", req.Email).Msg("signup")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create user"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully"})
}

// Login handles the standalone POST /api/users/login path: username +
// password, a one-hour httpOnly token cookie and the sanitized user.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}

	user, err := h.users.AuthenticateByUsername(strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("login")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login failed"})
		return
	}

	ttl := time.Duration(h.cfg.LoginTokenTTLMinutes) * time.Minute
	token, err := auth.GenerateSessionToken(*user, h.cfg.JWTSecret, ttl)
	if err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("login mint token")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login failed"})
		return
	}
	h.setSessionCookie(c, token, ttl)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "success": true, "user": user})
}

// SignIn handles POST /api/auth/signin: the credentials strategy of
// the session provider. One opaque error for every failure mode.
func (h *Handler) SignIn(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	user, err := h.users.Authenticate(strings.TrimSpace(strings.ToLower(req.Email)), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		log.Error().Err(err).Msg("signin")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign in failed"})
		return
	}

	ttl := time.Duration(h.cfg.SessionTTLDays) * 24 * time.Hour
	token, err := auth.GenerateSessionToken(*user, h.cfg.SessionSecret, ttl)
	if err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("signin mint token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sign in failed"})
		return
	}
	h.setSessionCookie(c, token, ttl)

	redirect := c.Query("callbackUrl")
	if redirect == "" {
		redirect = "/chat"
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "url": redirect})
}

// Session handles GET /api/auth/session: introspection of the current
// session token.
func (h *Handler) Session(c *gin.Context) {
	tokenStr := auth.TokenFromRequest(c)
	if tokenStr == "" {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	claims, err := auth.ParseWithSecrets(tokenStr, h.cfg.SessionSecret, h.cfg.JWTSecret)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":         claims.UserID,
			"username":   claims.Username,
			"email":      claims.Email,
			"isVerified": claims.Verified,
		},
		"expires": claims.ExpiresAt.Time,
	})
}

// SignOut handles POST /api/auth/signout.
func (h *Handler) SignOut(c *gin.Context) {
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.secureCookies(), true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// OAuthLogin handles GET /api/auth/:provider, sending the browser to
// the provider with a CSRF state cookie.
func (h *Handler) OAuthLogin(c *gin.Context) {
	provider, ok := h.providers[c.Param("provider")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}
	state := uuid.NewString()
	c.SetCookie(stateCookie, state, 600, "/", "", h.secureCookies(), true)
	if cb := c.Query("callbackUrl"); cb != "" && strings.HasPrefix(cb, "/") {
		c.SetCookie(callbackCookie, cb, 600, "/", "", h.secureCookies(), true)
	}
	c.Redirect(http.StatusTemporaryRedirect, provider.AuthURL(state))
}

// OAuthCallback handles GET /api/auth/:provider/callback: state check,
// code exchange, identity fetch, upsert-on-first-login, session mint,
// redirect.
func (h *Handler) OAuthCallback(c *gin.Context) {
	provider, ok := h.providers[c.Param("provider")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}
	if errMsg := c.Query("error"); errMsg != "" {
		c.Redirect(http.StatusFound, "/login?error="+errMsg)
		return
	}

	state, err := c.Cookie(stateCookie)
	if err != nil || state == "" || c.Query("state") != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", h.secureCookies(), true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	ctx := c.Request.Context()
	accessToken, err := provider.Exchange(ctx, code)
	if err != nil {
		log.Error().Err(err).Str("provider", provider.Name()).Msg("oauth code exchange")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}
	identity, err := provider.Identity(ctx, accessToken)
	if err != nil {
		log.Error().Err(err).Str("provider", provider.Name()).Msg("oauth identity fetch")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	user, err := h.users.UpsertOAuthUser(strings.ToLower(identity.Email), identity.Name, identity.Picture)
	if err != nil {
		log.Error().Err(err).Str("provider", provider.Name()).Str("email", identity.Email).Msg("oauth upsert user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	ttl := time.Duration(h.cfg.SessionTTLDays) * 24 * time.Hour
	token, err := auth.GenerateSessionToken(*user, h.cfg.SessionSecret, ttl)
	if err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("oauth mint token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}
	h.setSessionCookie(c, token, ttl)

	redirect := "/chat"
	if cb, err := c.Cookie(callbackCookie); err == nil && strings.HasPrefix(cb, "/") {
		redirect = cb
		c.SetCookie(callbackCookie, "", -1, "/", "", h.secureCookies(), true)
	}
	c.Redirect(http.StatusFound, redirect)
}

// VerifyEmail handles POST /api/users/verifyemail.
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}
	if err := h.users.VerifyEmail(req.Token); err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "token invalid or expired"})
			return
		}
		log.Error().Err(err).Msg("verify email")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "verification failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

// ForgotPassword handles POST /api/users/forgotpassword. The response
// is the same whether the email exists or not.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}
	token, err := h.users.ForgotPassword(strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		log.Error().Err(err).Msg("forgot password")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "request failed"})
		return
	}
	if token != "" {
		// Mail delivery is out of scope; surface the token in the
		// server log for manual delivery.
		log.Info().Str("email", req.Email).Msg("password reset token issued")
		log.Debug().Str("token", token).Msg("password reset token")
	}
	c.JSON(http.StatusOK, gin.H{"message": "If that email exists, a reset link has been sent"})
}

// ResetPassword handles POST /api/users/resetpassword.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "password must be at least 6 characters"})
		return
	}
	if err := h.users.ResetPassword(req.Token, req.Password); err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "token invalid or expired"})
			return
		}
		log.Error().Err(err).Msg("reset password")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "reset failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// ListChats handles GET /api/chat/history.
func (h *Handler) ListChats(c *gin.Context) {
	claims := auth.GetClaims(c)
	chats, err := h.chats.List(claims.UserID)
	if err != nil {
		log.Error().Err(err).Uint("user_id", claims.UserID).Msg("list chats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chat history"})
		return
	}
	c.JSON(http.StatusOK, chats)
}

type chatPayload struct {
	ChatID   string           `json:"chatId"`
	Messages []models.Message `json:"messages"`
	Model    string           `json:"model"`
	Title    string           `json:"title"`
}

// CreateChat handles POST /api/chat/history.
func (h *Handler) CreateChat(c *gin.Context) {
	claims := auth.GetClaims(c)
	var req chatPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	chat, err := h.chats.Create(claims.UserID, req.Messages, req.Model, req.Title)
	if err != nil {
		log.Error().Err(err).Uint("user_id", claims.UserID).Msg("create chat")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create chat"})
		return
	}
	c.JSON(http.StatusOK, chat)
}

// UpdateChat handles PUT /api/chat/history.
func (h *Handler) UpdateChat(c *gin.Context) {
	claims := auth.GetClaims(c)
	var req chatPayload
	if err := c.ShouldBindJSON(&req); err != nil || req.ChatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	chat, err := h.chats.Update(claims.UserID, req.ChatID, req.Messages, req.Model, req.Title)
	if err != nil {
		if errors.Is(err, service.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
			return
		}
		log.Error().Err(err).Uint("user_id", claims.UserID).Str("chat_id", req.ChatID).Msg("update chat")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update chat"})
		return
	}
	c.JSON(http.StatusOK, chat)
}

// DeleteChat handles DELETE /api/chat/history?id=. Unknown ids are a
// success: the chat is gone either way.
func (h *Handler) DeleteChat(c *gin.Context) {
	claims := auth.GetClaims(c)
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chat ID required"})
		return
	}
	if err := h.chats.Delete(claims.UserID, id); err != nil {
		log.Error().Err(err).Uint("user_id", claims.UserID).Str("chat_id", id).Msg("delete chat")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete chat"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Complete handles POST /api/chat: the completion proxy.
func (h *Handler) Complete(c *gin.Context) {
	var req struct {
		Messages  []models.Message `json:"messages"`
		Model     string           `json:"model"`
		MaxTokens int              `json:"maxTokens"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid messages format"})
		return
	}

	start := time.Now()
	raw, err := h.llm.Complete(c.Request.Context(), req.Messages, req.Model, req.MaxTokens)
	metrics.ObserveCompletion(req.Model, err, time.Since(start))
	if err != nil {
		log.Error().Err(err).Msg("completion upstream")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}
