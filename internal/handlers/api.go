package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/course-admin/internal/backend"
)

const (
	// NoticeHeader tells client scripts that this response raised the
	// session-expired toast.
	NoticeHeader         = "X-Admin-Notice"
	noticeSessionExpired = "session-expired"

	maxProxyBody = 10 << 20
)

// HandleAuthCheck answers whether the browser's backend session is valid.
// Any failure to confirm, including an unreachable backend, is a 401.
func (h *Handler) HandleAuthCheck(c echo.Context) error {
	user, err := h.client.CheckAuth(c.Request().Context(), jarFor(c))
	if err != nil {
		slog.Debug("auth check denied", "error", err)
		h.markNotice(c)
		return c.JSON(http.StatusUnauthorized, map[string]any{"authenticated": false})
	}

	rememberUser(c, user)

	return c.JSON(http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          user,
	})
}

// HandleBackendProxy relays /api/backend/* to the backend API unchanged. The
// status and body the backend returns are passed through as-is. Bodies over
// the limit are refused rather than cut short.
func (h *Handler) HandleBackendProxy(c echo.Context) error {
	req := c.Request()

	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), req.Body, maxProxyBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			slog.Warn("backend proxy body too large", "path", c.Param("*"), "limit", tooLarge.Limit)
			return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"message": "Request body is too large."})
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Unable to read request body")
	}

	relay := backend.Request{
		Method:      req.Method,
		Path:        "/" + c.Param("*"),
		Query:       c.QueryParams(),
		ContentType: req.Header.Get(echo.HeaderContentType),
	}
	if len(body) > 0 {
		relay.RawBody = body
	}

	resp, err := h.client.Send(req.Context(), jarFor(c), relay)
	if err != nil {
		slog.Warn("backend proxy failed", "method", relay.Method, "path", relay.Path, "error", err)
		status := http.StatusBadGateway
		var uerr *backend.UnexpectedError
		if !errors.Is(err, backend.ErrUnreachable) && !errors.As(err, &uerr) {
			status = http.StatusInternalServerError
		}
		return c.JSON(status, map[string]string{"message": backend.Message(err)})
	}

	h.markNotice(c)

	contentType := resp.ContentType()
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}
	return c.Blob(resp.StatusCode, contentType, resp.Body)
}

func (h *Handler) markNotice(c echo.Context) {
	if st := uiState(c); st != nil && st.ExpiredRaised() {
		c.Response().Header().Set(NoticeHeader, noticeSessionExpired)
	}
}
