package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/portfolio-site/src/logging"
	"github.com/khabaroff/portfolio-site/src/middleware"
	"github.com/khabaroff/portfolio-site/src/services"
	"github.com/khabaroff/portfolio-site/src/templates"
)

// DefaultRedirectDelay is how long the dashboard shows the termination notice
const DefaultRedirectDelay = 3 * time.Second

// DefaultPaths are the routes wired by the server
var DefaultPaths = templates.Paths{
	LoginPath:       "/admin/login",
	HomePath:        "/admin",
	SessionsPath:    "/admin/sessions",
	LoginAPI:        "/api/auth/login",
	LogoutAPI:       "/api/auth/logout",
	LogoutAllAPI:    "/api/auth/force-logout-all",
	CheckSessionAPI: "/api/auth/check-session",
}

// AdminPagesHandler serves the server-rendered admin pages.
// Every protected page repeats the full session resolution; the edge gate only checks signatures.
type AdminPagesHandler struct {
	resolver      *services.SessionResolver
	registry      *services.SessionRegistry
	admins        *services.AdminService
	cookie        middleware.SessionCookie
	pages         *templates.PageConfig
	paths         templates.Paths
	pollInterval  time.Duration
	redirectDelay time.Duration
}

// AdminPagesConfig holds the collaborators of the admin pages
type AdminPagesConfig struct {
	Resolver      *services.SessionResolver
	Registry      *services.SessionRegistry
	Admins        *services.AdminService
	Cookie        middleware.SessionCookie
	Pages         *templates.PageConfig
	Paths         templates.Paths
	PollInterval  time.Duration
	RedirectDelay time.Duration
}

// NewAdminPagesHandler creates a new admin pages handler
func NewAdminPagesHandler(cfg AdminPagesConfig) *AdminPagesHandler {
	if cfg.Paths == (templates.Paths{}) {
		cfg.Paths = DefaultPaths
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Second
	}
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = DefaultRedirectDelay
	}
	return &AdminPagesHandler{
		resolver:      cfg.Resolver,
		registry:      cfg.Registry,
		admins:        cfg.Admins,
		cookie:        cfg.Cookie,
		pages:         cfg.Pages,
		paths:         cfg.Paths,
		pollInterval:  cfg.PollInterval,
		redirectDelay: cfg.RedirectDelay,
	}
}

// resolve runs the authoritative session check for a page request.
// It writes the redirect or 503 itself and returns nil when the page must not render.
func (h *AdminPagesHandler) resolve(c *gin.Context) *services.SessionClaims {
	claims, err := h.resolver.Resolve(c.Request.Context(), h.cookie.Token(c))
	if err == nil {
		return claims
	}

	logger := logging.ComponentLogger("admin_pages", middleware.GetRequestID(c))
	if errors.Is(err, services.ErrRegistryUnavailable) {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("session store unavailable")
		c.String(http.StatusServiceUnavailable, "Service temporarily unavailable. Please retry shortly.")
		return nil
	}

	logger.Info().Err(err).Str("path", c.Request.URL.Path).Msg("page session rejected")
	h.cookie.Clear(c)
	c.Redirect(http.StatusFound, h.paths.LoginPath)
	return nil
}

// HandleLoginPage serves GET /admin/login
func (h *AdminPagesHandler) HandleLoginPage(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "login.html", h.pages.NewLoginData(h.paths))
}

// HandleDashboard serves GET /admin
func (h *AdminPagesHandler) HandleDashboard(c *gin.Context) {
	claims := h.resolve(c)
	if claims == nil {
		return
	}

	admin, err := h.admins.GetAdminByUsername(c.Request.Context(), claims.Username)
	if err != nil {
		// Resolution just succeeded; a miss here is a store hiccup
		c.String(http.StatusServiceUnavailable, "Service temporarily unavailable. Please retry shortly.")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "dashboard.html", h.pages.NewDashboardData(
		h.paths, admin.Username, admin.LastLoginAt, h.pollInterval, h.redirectDelay,
	))
}

// HandleSessions serves GET /admin/sessions
func (h *AdminPagesHandler) HandleSessions(c *gin.Context) {
	claims := h.resolve(c)
	if claims == nil {
		return
	}

	events, err := h.registry.RecentEvents(c.Request.Context(), claims.Username, maxEvents)
	if err != nil {
		logger := logging.ComponentLogger("admin_pages", middleware.GetRequestID(c))
		logger.Warn().
			Err(err).
			Msg("failed to read session events")
	}

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "sessions.html", h.pages.NewSessionsData(h.paths, claims.Username, events))
}
