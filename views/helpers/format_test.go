package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRelative(t *testing.T) {
	past := time.Now().Add(-3 * 24 * time.Hour).UTC().Format(time.RFC3339)

	assert.Equal(t, "3 days ago", FormatRelative(past))
	assert.Equal(t, "—", FormatRelative(""))
	assert.Equal(t, "yesterday-ish", FormatRelative("yesterday-ish"))
}

func TestParseTimestamp_LaravelFormat(t *testing.T) {
	ts, ok := ParseTimestamp("2024-05-01 10:30:00")
	assert.True(t, ok)
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, 30, ts.Minute())
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "12,345", FormatCount(12345))
	assert.Equal(t, "0", FormatCount(0))
}
