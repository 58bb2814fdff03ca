package auth

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Middleware applies the guard to every request passing through it.
func (g *Guard) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision, location := g.Decide(c.Request())
			if decision == Redirected {
				slog.Debug("guard redirect", "path", c.Request().URL.Path, "location", location)
				return c.Redirect(http.StatusFound, location)
			}
			return next(c)
		}
	}
}
