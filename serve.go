package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/khabaroff/portfolio-site/src/config"
	"github.com/khabaroff/portfolio-site/src/handlers"
	"github.com/khabaroff/portfolio-site/src/metrics"
	"github.com/khabaroff/portfolio-site/src/middleware"
	"github.com/khabaroff/portfolio-site/src/services"
	"github.com/khabaroff/portfolio-site/src/templates"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server.

Configuration comes from environment variables (PORT, STORE_DRIVER,
MONGO_URL, DATABASE_URL, REDIS_URL, JWT_SECRET, ...). On first run with
ADMIN_USERNAME and ADMIN_PASSWORD set, the initial admin is created.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.JWTSecretGenerated() {
		log.Warn().Msg("JWT_SECRET not set - using a random secret, sessions will not survive a restart")
	}

	log.Info().
		Int("port", cfg.Port).
		Str("store", cfg.StoreDriver).
		Str("log_level", cfg.LogLevel).
		Msg("starting server")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	m := metrics.New()

	codec, err := services.NewTokenCodec(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}
	registry := services.NewSessionRegistry(st.admins, st.events, m)
	resolver := services.NewSessionResolver(codec, registry, m)
	adminService := services.NewAdminService(st.admins, registry)

	// Auto-seed admin user on first run (if ADMIN_USERNAME and ADMIN_PASSWORD are set)
	created, err := adminService.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		log.Error().Err(err).Msg("failed to create initial admin user")
	} else if created {
		log.Info().Str("username", cfg.AdminUsername).Msg("initial admin user created")
	}

	analyticsService, err := services.NewAnalyticsService(services.AnalyticsConfig{
		PostHogAPIKey: cfg.PostHogAPIKey,
		PostHogHost:   cfg.PostHogHost,
		Enabled:       cfg.PostHogEnabled,
		Environment:   cfg.Env,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize analytics service: %w", err)
	}
	defer analyticsService.Close()

	if cfg.PostHogEnabled {
		log.Info().Str("host", cfg.PostHogHost).Msg("PostHog analytics enabled")
	} else {
		log.Info().Msg("PostHog analytics disabled")
	}

	authService := services.NewAuthService(services.AuthConfig{
		Repo:       st.admins,
		Registry:   registry,
		Codec:      codec,
		Analytics:  analyticsService,
		Metrics:    m,
		SessionTTL: cfg.SessionTTL,
	})

	// Start background services
	cleanupService := services.NewCleanupService(registry, cfg.SessionTTL, cfg.SessionSweepInterval)
	cleanupService.Start(ctx)
	defer cleanupService.Stop()

	router, err := newRouter(cfg, routerDeps{
		metrics:  m,
		codec:    codec,
		registry: registry,
		resolver: resolver,
		auth:     authService,
		admins:   adminService,
		health:   st.health,
	})
	if err != nil {
		return err
	}

	// Create HTTP server with timeouts (G112: protect from Slowloris attack)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server shut down successfully")
	return nil
}

type routerDeps struct {
	metrics  *metrics.Metrics
	codec    *services.TokenCodec
	registry *services.SessionRegistry
	resolver *services.SessionResolver
	auth     *services.AuthService
	admins   *services.AdminService
	health   map[string]handlers.Pinger
}

func newRouter(cfg *config.Config, d routerDeps) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := templates.Load()
	if err != nil {
		return nil, err
	}
	pages, err := templates.LoadPageConfig()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)

	// Add middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.Recovery())
	router.Use(middleware.MetricsMiddleware(d.metrics))

	if origins := splitOrigins(cfg.AllowedOrigins); len(origins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	cookie := middleware.SessionCookie{
		Name:   cfg.SessionCookieName,
		Secure: cfg.IsProduction(),
		MaxAge: d.auth.SessionTTL(),
	}

	routes := &handlers.Routes{
		Health: handlers.NewHealthHandler(d.health),
		Auth:   handlers.NewAuthHandler(d.auth, d.registry, cookie),
		Pages: handlers.NewAdminPagesHandler(handlers.AdminPagesConfig{
			Resolver:     d.resolver,
			Registry:     d.registry,
			Admins:       d.admins,
			Cookie:       cookie,
			Pages:        pages,
			PollInterval: cfg.SessionPollInterval,
		}),
		Content: handlers.NewContentHandler(
			services.NewYAMLContent(cfg.ContentPath),
			services.NewYAMLDictionaries(cfg.DictionaryDir),
		),
		Metrics: d.metrics,
		Gate: middleware.AuthGate(middleware.GateConfig{
			Codec:     d.codec,
			Cookie:    cookie,
			Protected: []string{"/admin"},
			Metrics:   d.metrics,
		}),
		RequireSession: middleware.RequireSession(d.resolver, cookie),
		LoginLimiter:   middleware.LoginRateLimitMiddleware(cfg.LoginRatePerMinute, d.metrics),
	}
	routes.Register(router)

	return router, nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
