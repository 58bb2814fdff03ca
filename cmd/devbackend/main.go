package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/loganlanou/course-admin/internal/devbackend"
)

// Stand-in course platform API for running the dashboard locally:
//
//	DEV_BACKEND_PORT=8080 go run ./cmd/devbackend
//	BACKEND_URL=http://localhost:8080 go run ./cmd
func main() {
	port := getEnv("DEV_BACKEND_PORT", "8080")
	email := getEnv("DEV_ADMIN_EMAIL", "admin@example.com")
	password := getEnv("DEV_ADMIN_PASSWORD", "password")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})

	devbackend.New(email, password, 42).Register(e)

	slog.Info("dev backend starting", "port", port, "admin", email)
	if err := e.Start(":" + port); err != nil {
		slog.Error("dev backend failed", "error", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
