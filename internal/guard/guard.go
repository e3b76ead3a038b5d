// Package guard implements the per-request navigation filter: a pure
// function of (token validity, path) re-evaluated on every request,
// with the redirect as its only effect.
package guard

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kushal1111/LLMproject/internal/auth"
	"github.com/kushal1111/LLMproject/internal/config"
)

type Decision int

const (
	Pass Decision = iota
	ToChat
	ToLogin
)

// authPages are reachable only while logged out; protected pages only
// while logged in. The root belongs to both sets: it bounces everyone
// somewhere.
func isAuthPage(path string) bool {
	return path == "/" || path == "/login" || path == "/signup" || path == "/sign-in"
}

func isProtectedPage(path string) bool {
	return path == "/" || strings.HasPrefix(path, "/chat")
}

// Evaluate decides the redirect for a navigation request. Auth
// endpoints and error-marked requests always pass so OAuth callbacks
// and provider error pages are never intercepted.
func Evaluate(path, rawQuery string, authenticated bool) Decision {
	if strings.HasPrefix(path, "/api/auth") || strings.Contains(rawQuery, "error=") {
		return Pass
	}
	if authenticated && isAuthPage(path) {
		return ToChat
	}
	if !authenticated && isProtectedPage(path) {
		return ToLogin
	}
	return Pass
}

// Middleware applies Evaluate ahead of page serving.
func Middleware(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authed := auth.Authenticated(c, cfg)
		switch Evaluate(c.Request.URL.Path, c.Request.URL.RawQuery, authed) {
		case ToChat:
			c.Redirect(http.StatusFound, "/chat")
			c.Abort()
		case ToLogin:
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
		default:
			c.Next()
		}
	}
}
