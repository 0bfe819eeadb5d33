package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/portfolio-site/src/services"
)

// RequireSession guards admin JSON APIs with the full registry check.
// Unlike AuthGate it answers with JSON: 401 for no session, 503 when the store is down.
func RequireSession(resolver *services.SessionResolver, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := resolver.Resolve(c.Request.Context(), cookie.Token(c))
		if err != nil {
			if errors.Is(err, services.ErrRegistryUnavailable) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
				c.Abort()
				return
			}

			cookie.Clear(c)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}
