package handlers

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/course-admin/internal/content"
	"github.com/loganlanou/course-admin/views/admin"
	"github.com/loganlanou/course-admin/views/layout"
	"golang.org/x/sync/errgroup"
)

var dashboardResources = []string{"courses", "blogs", "leads", "categories"}

// HandleDashboard shows record counts. Each count is fetched concurrently and
// a failing one only blanks its own card.
func (h *Handler) HandleDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	jar := jarFor(c)

	stats := make([]admin.Stat, len(dashboardResources))
	var g errgroup.Group

	for i, key := range dashboardResources {
		res, ok := content.Lookup(key)
		if !ok {
			continue
		}
		stats[i] = admin.Stat{Label: res.Title, Href: "/dashboard/" + res.Key}

		g.Go(func() error {
			n, err := h.repo.Count(ctx, jar, res)
			if err != nil {
				slog.Warn("dashboard count failed", "resource", res.Key, "error", err)
				stats[i].Failed = true
				return nil
			}
			stats[i].Count = n
			return nil
		})
	}
	_ = g.Wait()

	return Render(c, layout.Base(page(c, "Dashboard", "/dashboard"), admin.Dashboard(stats)))
}
