package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/course-admin/internal/backend"
	"github.com/loganlanou/course-admin/internal/content"
	"github.com/loganlanou/course-admin/internal/session"
	"github.com/loganlanou/course-admin/views/admin"
	"github.com/loganlanou/course-admin/views/layout"
)

func resourceFrom(c echo.Context) (content.Resource, error) {
	res, ok := content.Lookup(c.Param("resource"))
	if !ok {
		return content.Resource{}, echo.NewHTTPError(http.StatusNotFound, "Unknown section")
	}
	return res, nil
}

func statusFor(err error) int {
	var verr *backend.ValidationError
	switch {
	case errors.Is(err, backend.ErrUnreachable):
		return http.StatusBadGateway
	case errors.Is(err, backend.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// HandleResourceList renders the table for one content section.
func (h *Handler) HandleResourceList(c echo.Context) error {
	res, err := resourceFrom(c)
	if err != nil {
		return err
	}

	query := url.Values{}
	if p := c.QueryParam("page"); p != "" {
		query.Set("page", p)
	}
	if s := c.QueryParam("search"); s != "" {
		query.Set("search", s)
	}

	view := admin.ListView{Resource: res, CSRFToken: csrfToken(c)}
	status := http.StatusOK

	result, err := h.repo.List(c.Request().Context(), jarFor(c), res, query)
	if err != nil {
		slog.Error("failed to list records", "resource", res.Key, "error", err)
		view.Error = backend.Message(err)
		status = statusFor(err)
	} else {
		view.Records = result.Records
		view.Total = result.Total
	}

	active := "/dashboard/" + res.Key
	return RenderStatus(c, status, layout.Base(page(c, res.Title, active), admin.ResourceList(view)))
}

// HandleResourceNew renders an empty form.
func (h *Handler) HandleResourceNew(c echo.Context) error {
	res, err := resourceFrom(c)
	if err != nil {
		return err
	}
	if !res.Editable {
		return echo.NewHTTPError(http.StatusNotFound, "This section is read-only")
	}
	return h.renderForm(c, http.StatusOK, admin.FormView{Resource: res, Values: content.Record{}})
}

// HandleResourceEdit loads a record into the form.
func (h *Handler) HandleResourceEdit(c echo.Context) error {
	res, err := resourceFrom(c)
	if err != nil {
		return err
	}
	if !res.Editable {
		return echo.NewHTTPError(http.StatusNotFound, "This section is read-only")
	}

	id := c.Param("id")
	view := admin.FormView{Resource: res, ID: id, Values: content.Record{}}

	rec, err := h.repo.Get(c.Request().Context(), jarFor(c), res, id)
	if err != nil {
		slog.Error("failed to load record", "resource", res.Key, "id", id, "error", err)
		view.Error = backend.Message(err)
		return h.renderForm(c, statusFor(err), view)
	}
	view.Values = rec

	return h.renderForm(c, http.StatusOK, view)
}

// HandleResourceSave creates or updates a record. A hidden id field decides
// which; after a create the form continues as an edit of the new record.
func (h *Handler) HandleResourceSave(c echo.Context) error {
	res, err := resourceFrom(c)
	if err != nil {
		return err
	}
	if !res.Editable {
		return echo.NewHTTPError(http.StatusNotFound, "This section is read-only")
	}

	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form")
	}

	id := form.Get("id")
	rec, problems := content.FromForm(res, form)
	if problems != nil {
		return h.renderForm(c, http.StatusUnprocessableEntity, admin.FormView{
			Resource: res,
			ID:       id,
			Values:   rec,
			Problems: problems,
			Error:    "Please fix the highlighted fields.",
		})
	}

	newID, err := h.repo.Save(c.Request().Context(), jarFor(c), res, id, rec)
	if err != nil {
		slog.Warn("failed to save record", "resource", res.Key, "id", id, "error", err)

		view := admin.FormView{
			Resource: res,
			ID:       newID,
			Values:   rec,
			Error:    backend.Message(err),
			Problems: map[string]string{},
		}
		for name, msgs := range backend.FieldErrors(err) {
			if len(msgs) > 0 {
				view.Problems[name] = msgs[0]
			}
		}
		return h.renderForm(c, statusFor(err), view)
	}

	slog.Info("record saved", "resource", res.Key, "id", newID, "created", id == "")

	verb := "updated"
	if id == "" {
		verb = "created"
	}
	flash(c, session.KindSuccess, fmt.Sprintf("%s %s.", res.Singular, verb))

	if newID == "" {
		return c.Redirect(http.StatusSeeOther, "/dashboard/"+res.Key)
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard/"+res.Key+"/"+url.PathEscape(newID)+"/edit")
}

// HandleResourceDelete removes a record and returns to the list.
func (h *Handler) HandleResourceDelete(c echo.Context) error {
	res, err := resourceFrom(c)
	if err != nil {
		return err
	}
	if !res.Deletable {
		return echo.NewHTTPError(http.StatusNotFound, "Records here cannot be deleted")
	}

	id := c.Param("id")
	if err := h.repo.Delete(c.Request().Context(), jarFor(c), res, id); err != nil {
		slog.Warn("failed to delete record", "resource", res.Key, "id", id, "error", err)
		flash(c, session.KindError, backend.Message(err))
	} else {
		slog.Info("record deleted", "resource", res.Key, "id", id)
		flash(c, session.KindSuccess, fmt.Sprintf("%s deleted.", res.Singular))
	}

	return c.Redirect(http.StatusSeeOther, "/dashboard/"+res.Key)
}

func (h *Handler) renderForm(c echo.Context, status int, view admin.FormView) error {
	view.CSRFToken = csrfToken(c)

	title := "New " + view.Resource.Singular
	if view.ID != "" {
		title = "Edit " + view.Resource.Singular
	}
	active := "/dashboard/" + view.Resource.Key
	return RenderStatus(c, status, layout.Base(page(c, title, active), admin.ResourceForm(view)))
}
