package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/course-admin/internal/backend"
	"github.com/loganlanou/course-admin/internal/session"
	"github.com/loganlanou/course-admin/views/admin"
	"github.com/loganlanou/course-admin/views/layout"
)

// HandleLoginPage renders the sign-in form
func (h *Handler) HandleLoginPage(c echo.Context) error {
	form := admin.LoginForm{
		Redirect:  c.QueryParam("redirect"),
		CSRFToken: csrfToken(c),
	}
	p := page(c, "Sign in", "")
	p.Bare = true
	return Render(c, layout.Base(p, admin.Login(form)))
}

// HandleLogin posts credentials to the backend and, on success, does a full
// page redirect into the dashboard.
func (h *Handler) HandleLogin(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("email"))
	redirect := c.FormValue("redirect")

	creds := backend.Credentials{
		Email:    email,
		Password: c.FormValue("password"),
		Remember: c.FormValue("remember") != "",
	}

	jar := jarFor(c)
	user, err := h.client.Login(c.Request().Context(), jar, creds)
	if err != nil {
		slog.Info("login failed", "email", email, "error", err)

		status := http.StatusUnprocessableEntity
		if errors.Is(err, backend.ErrUnreachable) {
			status = http.StatusBadGateway
		}

		message := backend.Message(err)
		if errors.Is(err, backend.ErrUnauthenticated) {
			message = "Invalid email or password."
		}

		p := page(c, "Sign in", "")
		p.Bare = true
		return RenderStatus(c, status, layout.Base(p, admin.Login(admin.LoginForm{
			Email:     email,
			Redirect:  redirect,
			Error:     message,
			CSRFToken: csrfToken(c),
		})))
	}

	if st := uiState(c); st != nil {
		st.Rotate()
	}
	rememberUser(c, user)

	target := afterLogin(redirect)
	slog.Info("admin logged in", "user_id", user.ID.String(), "redirect", target)

	return c.Redirect(http.StatusSeeOther, target)
}

// HandleLogout asks the backend to end the session and returns to the login page.
func (h *Handler) HandleLogout(c echo.Context) error {
	if err := h.client.Logout(c.Request().Context(), jarFor(c)); err != nil {
		slog.Warn("backend logout failed", "error", err)
	}

	if st := uiState(c); st != nil {
		st.Forget()
		st.Flash(session.KindInfo, "You have been logged out.")
	}

	return c.Redirect(http.StatusSeeOther, "/")
}
