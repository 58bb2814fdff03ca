package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/course-admin/internal/backend"
	"github.com/loganlanou/course-admin/internal/session"
	"github.com/loganlanou/course-admin/views/admin"
	"github.com/loganlanou/course-admin/views/layout"
)

// HandleProfile shows the signed-in admin's details.
func (h *Handler) HandleProfile(c echo.Context) error {
	form := admin.ProfileForm{}
	status := http.StatusOK

	user, err := h.client.Profile(c.Request().Context(), jarFor(c))
	if err != nil {
		slog.Error("failed to load profile", "error", err)
		form.Error = backend.Message(err)
		status = statusFor(err)
	} else {
		rememberUser(c, user)
		form.Name = user.Name
		form.Email = user.Email
		form.Phone = user.Phone
		form.Avatar = user.Picture()
	}

	return h.renderProfile(c, status, form)
}

// HandleProfileUpdate saves profile changes. Password is only sent when set.
func (h *Handler) HandleProfileUpdate(c echo.Context) error {
	update := backend.ProfileUpdate{
		Name:     strings.TrimSpace(c.FormValue("name")),
		Email:    strings.TrimSpace(c.FormValue("email")),
		Phone:    strings.TrimSpace(c.FormValue("phone")),
		Avatar:   strings.TrimSpace(c.FormValue("avatar")),
		Password: c.FormValue("password"),
	}

	form := admin.ProfileForm{
		Name:   update.Name,
		Email:  update.Email,
		Phone:  update.Phone,
		Avatar: update.Avatar,
	}

	if update.Password != "" && update.Password != c.FormValue("password_confirmation") {
		form.Problems = map[string][]string{"password": {"Passwords do not match."}}
		return h.renderProfile(c, http.StatusUnprocessableEntity, form)
	}

	user, err := h.client.UpdateProfile(c.Request().Context(), jarFor(c), update)
	if err != nil {
		slog.Warn("failed to update profile", "error", err)
		form.Error = backend.Message(err)
		form.Problems = backend.FieldErrors(err)
		return h.renderProfile(c, statusFor(err), form)
	}

	rememberUser(c, user)
	flash(c, session.KindSuccess, "Profile updated.")

	return c.Redirect(http.StatusSeeOther, "/dashboard/profile")
}

func (h *Handler) renderProfile(c echo.Context, status int, form admin.ProfileForm) error {
	form.CSRFToken = csrfToken(c)
	return RenderStatus(c, status, layout.Base(page(c, "Profile", "/dashboard/profile"), admin.Profile(form)))
}
