package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/portfolio-site/src/logging"
	"github.com/khabaroff/portfolio-site/src/metrics"
	"github.com/khabaroff/portfolio-site/src/services"
)

// Context keys set by the session middlewares
const (
	ClaimsKey   = "session_claims"
	UsernameKey = "username"
)

// GateConfig configures the edge gate in front of admin pages
type GateConfig struct {
	Codec     *services.TokenCodec
	Cookie    SessionCookie
	Protected []string // path prefixes that need a token
	LoginPath string
	HomePath  string
	Metrics   *metrics.Metrics
}

// AuthGate screens admin routes with a signature and expiry check only.
// It never consults the session store; pages do the authoritative check.
func AuthGate(cfg GateConfig) gin.HandlerFunc {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/admin/login"
	}
	if cfg.HomePath == "" {
		cfg.HomePath = "/admin"
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		token := cfg.Cookie.Token(c)

		if path == cfg.LoginPath {
			// Already signed in: skip the login form
			if token != "" {
				if _, err := cfg.Codec.Verify(token); err == nil {
					c.Redirect(http.StatusFound, cfg.HomePath)
					c.Abort()
					return
				}
			}
			c.Next()
			return
		}

		if !isProtected(path, cfg.Protected) {
			c.Next()
			return
		}

		if token == "" {
			c.Redirect(http.StatusFound, cfg.LoginPath)
			c.Abort()
			return
		}

		claims, err := cfg.Codec.Verify(token)
		if err != nil {
			kind := services.TokenFailureKind(err)
			cfg.Metrics.TokenFailure(kind)
			logger := logging.ComponentLogger("auth_gate", GetRequestID(c))
			logger.Info().
				Str("kind", kind).
				Str("path", path).
				Msg("token rejected at gate")

			cfg.Cookie.Clear(c)
			c.Redirect(http.StatusFound, cfg.LoginPath)
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}

// isProtected matches whole path segments, so /admin covers /admin/x but not /administrator
func isProtected(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}

// GetSessionClaims returns the claims stored by AuthGate or RequireSession
func GetSessionClaims(c *gin.Context) (*services.SessionClaims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*services.SessionClaims)
	return claims, ok
}
