package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kushal1111/LLMproject/internal/config"
	"github.com/kushal1111/LLMproject/internal/models"
)

// CookieName is the httpOnly cookie both login paths set.
const CookieName = "token"

const claimsKey = "sessionClaims"

// Claims is the typed session payload. Tokens whose payload does not
// decode into these fields are rejected, never coerced.
type Claims struct {
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
	jwt.RegisteredClaims
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func VerifyPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// GenerateSessionToken mints an HS256 token carrying the user's
// identity payload.
func GenerateSessionToken(u models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		Verified: u.Verified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseSessionToken(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ParseWithSecrets tries each secret in order. Provider sessions and
// standalone login tokens are signed with different secrets but grant
// the same access.
func ParseWithSecrets(tokenStr string, secrets ...string) (*Claims, error) {
	var err error
	for _, s := range secrets {
		var claims *Claims
		claims, err = ParseSessionToken(tokenStr, s)
		if err == nil {
			return claims, nil
		}
	}
	if err == nil {
		err = errors.New("no secrets configured")
	}
	return nil, err
}

// TokenFromRequest pulls the session token from the httpOnly cookie,
// falling back to a bearer Authorization header for API clients.
func TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && cookie != "" {
		return cookie
	}
	authz := c.GetHeader("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}

// Authenticated reports whether the request carries a valid session
// token. Used by the route guard, which only needs the yes/no.
func Authenticated(c *gin.Context, cfg config.Config) bool {
	tokenStr := TokenFromRequest(c)
	if tokenStr == "" {
		return false
	}
	_, err := ParseWithSecrets(tokenStr, cfg.SessionSecret, cfg.JWTSecret)
	return err == nil
}

// SessionMiddleware gates API routes: it decodes the session token and
// copies its claims into the request context, aborting with 401 when
// the token is absent or invalid.
func SessionMiddleware(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := TokenFromRequest(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		claims, err := ParseWithSecrets(tokenStr, cfg.SessionSecret, cfg.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// GetClaims returns the request-scoped session claims, or nil outside
// an authenticated route.
func GetClaims(c *gin.Context) *Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok2 := v.(*Claims); ok2 {
			return claims
		}
	}
	return nil
}
