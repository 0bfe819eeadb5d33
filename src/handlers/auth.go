package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/portfolio-site/src/logging"
	"github.com/khabaroff/portfolio-site/src/middleware"
	"github.com/khabaroff/portfolio-site/src/services"
)

// User-facing login errors
const (
	msgMissingCredentials = "Username and password are required"
	msgInvalidCredentials = "Invalid username or password"
	msgAccountDeactivated = "Account is deactivated. Contact the site owner."
	msgUnavailable        = "Login is temporarily unavailable. Please try again."
)

// maxEvents caps the events endpoint
const maxEvents = 50

// AuthHandler handles admin session HTTP requests
type AuthHandler struct {
	authService *services.AuthService
	registry    *services.SessionRegistry
	cookie      middleware.SessionCookie
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *services.AuthService, registry *services.SessionRegistry, cookie middleware.SessionCookie) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		registry:    registry,
		cookie:      cookie,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   msgMissingCredentials,
		})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		status, msg := loginFailure(err)
		if status >= http.StatusInternalServerError {
			logger := logging.ComponentLogger("auth_handler", middleware.GetRequestID(c))
			logger.Error().
				Err(err).
				Msg("login failed")
		}
		c.JSON(status, gin.H{
			"success": false,
			"error":   msg,
		})
		return
	}

	h.cookie.Set(c, result.Token)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    result.Profile,
	})
}

// loginFailure maps a login error to its status code and message
func loginFailure(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrMissingCredentials):
		return http.StatusBadRequest, msgMissingCredentials
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, services.ErrAccountDeactivated):
		return http.StatusUnauthorized, msgAccountDeactivated
	case errors.Is(err, services.ErrRegistryUnavailable):
		return http.StatusServiceUnavailable, msgUnavailable
	default:
		return http.StatusInternalServerError, msgUnavailable
	}
}

// HandleCheckSession handles GET /api/auth/check-session
func (h *AuthHandler) HandleCheckSession(c *gin.Context) {
	status, err := h.authService.CheckSession(c.Request.Context(), h.cookie.Token(c))
	if err != nil {
		logger := logging.ComponentLogger("auth_handler", middleware.GetRequestID(c))
		logger.Warn().
			Err(err).
			Msg("session check unavailable")
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
		return
	}

	if !status.Valid {
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusUnauthorized, status)
		return
	}

	c.Header("Cache-Control", "private, max-age=10")
	c.JSON(http.StatusOK, status)
}

// HandleLogout handles POST /api/auth/logout.
// The cookie is always cleared, even when the server-side clear fails.
func (h *AuthHandler) HandleLogout(c *gin.Context) {
	token := h.cookie.Token(c)
	h.cookie.Clear(c)

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		logger := logging.ComponentLogger("auth_handler", middleware.GetRequestID(c))
		logger.Warn().
			Err(err).
			Msg("logout could not clear server-side session")
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleForceLogoutAll handles POST /api/auth/force-logout-all (behind RequireSession)
func (h *AuthHandler) HandleForceLogoutAll(c *gin.Context) {
	username := c.GetString(middleware.UsernameKey)

	n, err := h.authService.ForceLogoutAll(c.Request.Context(), username)
	if err != nil {
		logger := logging.ComponentLogger("auth_handler", middleware.GetRequestID(c))
		logger.Error().
			Err(err).
			Str("actor", username).
			Msg("force logout failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
		return
	}

	// The caller's own session was cleared too
	h.cookie.Clear(c)
	c.JSON(http.StatusOK, gin.H{
		"message":      fmt.Sprintf("All sessions terminated (%d)", n),
		"terminatedBy": username,
	})
}

// HandleEvents handles GET /api/auth/events?limit=N (behind RequireSession)
func (h *AuthHandler) HandleEvents(c *gin.Context) {
	username := c.GetString(middleware.UsernameKey)

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxEvents)
	}

	events, err := h.registry.RecentEvents(c.Request.Context(), username, limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event log unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": username,
		"events":   events,
	})
}
