package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/kushal1111/LLMproject/internal/auth"
	"github.com/kushal1111/LLMproject/internal/completion"
	"github.com/kushal1111/LLMproject/internal/config"
	"github.com/kushal1111/LLMproject/internal/guard"
	"github.com/kushal1111/LLMproject/internal/metrics"
	"github.com/kushal1111/LLMproject/internal/mw"
	"github.com/kushal1111/LLMproject/internal/oauth"
	"github.com/kushal1111/LLMproject/internal/service"
)

// SetupRouter wires middleware, the auth/user surface, the chat API
// and the completion proxy into one Gin engine.
func SetupRouter(cfg config.Config, db *gorm.DB) *gin.Engine {
	users := service.NewUserService(db)
	chats := service.NewChatService(db)
	llm := completion.New(cfg.CompletionBaseURL, cfg.CompletionAPIKey)
	providers := oauth.FromConfig(cfg)
	h := NewHandler(cfg, users, chats, llm, providers)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	r.Use(guard.Middleware(cfg))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	api.POST("/users/signup", h.Signup)
	api.POST("/users/login", h.Login)
	api.POST("/users/verifyemail", h.VerifyEmail)
	api.POST("/users/forgotpassword", h.ForgotPassword)
	api.POST("/users/resetpassword", h.ResetPassword)

	api.GET("/auth/session", h.Session)
	api.POST("/auth/signin", h.SignIn)
	api.POST("/auth/signout", h.SignOut)
	api.GET("/auth/:provider", h.OAuthLogin)
	api.GET("/auth/:provider/callback", h.OAuthCallback)

	// Everything below requires a valid session.
	authed := api.Group("")
	authed.Use(auth.SessionMiddleware(cfg))

	authed.GET("/chat/history", h.ListChats)
	authed.POST("/chat/history", h.CreateChat)
	authed.PUT("/chat/history", h.UpdateChat)
	authed.DELETE("/chat/history", h.DeleteChat)
	authed.POST("/chat", h.Complete)

	// Page serving is plain static files; the route guard above has
	// already decided any redirect by the time we get here.
	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		webDir := "./web"
		target := filepath.Join(webDir, filepath.Clean(path))
		if fi, err := os.Stat(target); err == nil && !fi.IsDir() {
			c.File(target)
			return
		}
		index := filepath.Join(webDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			c.File(index)
			return
		}
		c.Status(http.StatusNotFound)
	})

	return r
}
