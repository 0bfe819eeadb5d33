package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/khabaroff/portfolio-site/src/metrics"
)

// Routes bundles the handlers and guards mounted on the router
type Routes struct {
	Health  *HealthHandler
	Auth    *AuthHandler
	Pages   *AdminPagesHandler
	Content *ContentHandler
	Metrics *metrics.Metrics

	Gate           gin.HandlerFunc // signature-only gate over /admin
	RequireSession gin.HandlerFunc // registry-checked guard for admin APIs
	LoginLimiter   gin.HandlerFunc // optional
}

// Register mounts every route on r
func (rt *Routes) Register(r *gin.Engine) {
	// Health check endpoints (no auth)
	r.GET("/health", rt.Health.HandleHealth)
	r.GET("/ready", rt.Health.HandleReady)
	r.GET("/info", rt.Health.HandleInfo)

	if rt.Metrics != nil {
		r.GET("/metrics", gin.WrapH(rt.Metrics.Handler()))
	}

	api := r.Group("/api")

	if rt.Content != nil {
		api.GET("/content", rt.Content.HandleContent)
		api.GET("/dictionaries/:locale", rt.Content.HandleDictionary)
	}

	auth := api.Group("/auth")
	{
		login := []gin.HandlerFunc{rt.Auth.HandleLogin}
		if rt.LoginLimiter != nil {
			login = append([]gin.HandlerFunc{rt.LoginLimiter}, login...)
		}
		auth.POST("/login", login...)
		auth.GET("/check-session", rt.Auth.HandleCheckSession)
		auth.POST("/logout", rt.Auth.HandleLogout)
		auth.POST("/force-logout-all", rt.RequireSession, rt.Auth.HandleForceLogoutAll)
		auth.GET("/events", rt.RequireSession, rt.Auth.HandleEvents)
	}

	admin := r.Group("/admin", rt.Gate)
	{
		admin.GET("", rt.Pages.HandleDashboard)
		admin.GET("/login", rt.Pages.HandleLoginPage)
		admin.GET("/sessions", rt.Pages.HandleSessions)
	}
}
