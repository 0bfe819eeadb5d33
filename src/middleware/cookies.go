package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultSessionCookie is the cookie carrying the admin session token
const DefaultSessionCookie = "admin_session"

// SessionCookie describes how the session token is stored in the browser
type SessionCookie struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func (sc SessionCookie) name() string {
	if sc.Name == "" {
		return DefaultSessionCookie
	}
	return sc.Name
}

// Set writes the token as an HttpOnly, SameSite=Lax cookie on path /
func (sc SessionCookie) Set(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.name(), token, int(sc.MaxAge.Seconds()), "/", "", sc.Secure, true)
}

// Clear expires the cookie
func (sc SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.name(), "", -1, "/", "", sc.Secure, true)
}

// Token reads the session token from the cookie, falling back to an Authorization: Bearer header
func (sc SessionCookie) Token(c *gin.Context) string {
	if cookie, err := c.Cookie(sc.name()); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return ""
}
