package helpers

import (
	"time"

	"github.com/dustin/go-humanize"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp reads the timestamp formats the backend emits.
func ParseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatRelative formats a backend timestamp as "3 days ago", falling back to
// the raw value when it cannot be parsed.
func FormatRelative(raw string) string {
	if raw == "" {
		return "—"
	}
	t, ok := ParseTimestamp(raw)
	if !ok {
		return raw
	}
	return humanize.Time(t)
}

// FormatCount formats a count with thousands separators (e.g., 12345 -> "12,345")
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatDateTime formats a time.Time as "Jan 2, 2006 3:04 PM"
func FormatDateTime(t time.Time) string {
	return t.Format("Jan 2, 2006 3:04 PM")
}

func FormatBool(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
