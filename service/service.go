package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/loganlanou/course-admin/internal/auth"
	"github.com/loganlanou/course-admin/internal/backend"
	"github.com/loganlanou/course-admin/internal/handlers"
	"github.com/loganlanou/course-admin/internal/session"
)

type Service struct {
	config   *Config
	client   *backend.Client
	sessions *session.Manager
	guard    *auth.Guard
	handler  *handlers.Handler
	closers  []func() error
}

func New(config *Config) (*Service, error) {
	client := backend.NewClient(backend.Options{
		BaseURL:   config.Backend.URL,
		APIPrefix: config.Backend.APIPrefix,
		CSRFPath:  config.Backend.CSRFPath,
		Timeout:   config.Backend.Timeout,
	})

	svc := &Service{
		config:  config,
		client:  client,
		handler: handlers.New(client),
	}

	sessionOpts := session.Options{
		Secret: config.Session.Secret,
		Secure: config.IsProduction(),
		MaxAge: config.Session.MaxAge,
	}

	var once session.OnceStore
	if config.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		store, err := session.NewRedisStoreFromURL(ctx, config.Redis.URL, sessionOpts.Lifetime())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		svc.closers = append(svc.closers, store.Close)
		once = store
		slog.Info("session notices shared through redis")
	}

	svc.sessions = session.NewManager(sessionOpts, once)

	svc.guard = newGuard(config, client)

	return svc, nil
}

func newGuard(config *Config, client *backend.Client) *auth.Guard {
	var strategy auth.Strategy = auth.CookiePresence{Names: config.Session.CookieNames}
	if config.Guard.Strategy == StrategyBackend {
		strategy = auth.BackendVerify{Checker: client, Skip: handlers.OwnCookies()}
	}

	return &auth.Guard{
		Protected: config.Guard.Protected,
		Public:    config.Guard.Public,
		LoginPath: config.Guard.LoginPath,
		Strategy:  strategy,
	}
}

// Close releases connections opened by New.
func (s *Service) Close() error {
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Service) RegisterRoutes(e *echo.Echo) {
	// Static files and health check sit outside the session and CSRF layers
	e.Static("/public", "public")
	e.GET("/health", s.handleHealth)

	app := e.Group("",
		s.sessions.Middleware(),
		middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "header:" + echo.HeaderXCSRFToken + ",form:_csrf",
			ContextKey:     handlers.CSRFContextKey,
			CookieName:     handlers.CSRFCookieName,
			CookiePath:     "/",
			CookieHTTPOnly: true,
			CookieSecure:   s.config.IsProduction(),
			CookieSameSite: http.SameSiteLaxMode,
		}),
		s.guard.Middleware(),
	)

	// Auth pages
	app.GET("/", s.handler.HandleLoginPage)
	app.GET("/login", s.handleLoginAlias)
	app.POST("/login", s.handler.HandleLogin)
	app.POST("/logout", s.handler.HandleLogout)

	// JSON for browser scripts
	app.GET("/api/auth/check", s.handler.HandleAuthCheck)
	app.Any("/api/backend/*", s.handler.HandleBackendProxy)

	// Dashboard
	dashboard := app.Group("/dashboard")
	dashboard.GET("", s.handler.HandleDashboard)
	dashboard.GET("/profile", s.handler.HandleProfile)
	dashboard.POST("/profile", s.handler.HandleProfileUpdate)
	dashboard.GET("/:resource", s.handler.HandleResourceList)
	dashboard.GET("/:resource/new", s.handler.HandleResourceNew)
	dashboard.GET("/:resource/:id/edit", s.handler.HandleResourceEdit)
	dashboard.POST("/:resource/save", s.handler.HandleResourceSave)
	dashboard.POST("/:resource/:id/delete", s.handler.HandleResourceDelete)
}

// handleLoginAlias sends /login to the login page, keeping the query string.
func (s *Service) handleLoginAlias(c echo.Context) error {
	target := s.config.Guard.LoginPath
	if target == "/login" {
		target = "/"
	}
	if q := c.QueryString(); q != "" {
		target += "?" + q
	}
	return c.Redirect(http.StatusMovedPermanently, target)
}

func (s *Service) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "healthy",
		"environment": s.config.Environment,
		"backend":     s.client.GetBaseURL(),
	})
}
