package layout

import (
	"strings"

	"github.com/loganlanou/course-admin/internal/session"
)

// NavItem is one sidebar entry.
type NavItem struct {
	Label string
	Href  string
}

// Page carries what the shell needs around every dashboard view.
type Page struct {
	Title     string
	Active    string
	CSRFToken string
	User      *session.UserData
	Notices   []session.Notice
	Nav       []NavItem
	// Bare pages (login) render without the sidebar and header.
	Bare bool
}

func isActive(active, href string) bool {
	if active == "" {
		return false
	}
	return active == href || (href != "/dashboard" && strings.HasPrefix(active, href+"/"))
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	return strings.ToUpper(string([]rune(name)[:1]))
}
