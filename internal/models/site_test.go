package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCheckStyle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected CheckStyle
		ok       bool
	}{
		{
			name:     "random",
			input:    "random",
			expected: CheckStyleRandom,
			ok:       true,
		},
		{
			name:     "exponential",
			input:    "exponential",
			expected: CheckStyleExponential,
			ok:       true,
		},
		{
			name:     "none",
			input:    "none",
			expected: CheckStyleNone,
			ok:       true,
		},
		{
			name:     "empty string defaults to random",
			input:    "",
			expected: CheckStyleRandom,
			ok:       true,
		},
		{
			name:     "mixed case",
			input:    "Exponential",
			expected: CheckStyleExponential,
			ok:       true,
		},
		{
			name:     "surrounding whitespace",
			input:    "  none  ",
			expected: CheckStyleNone,
			ok:       true,
		},
		{
			name:  "unknown style",
			input: "fibonacci",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style, ok := ParseCheckStyle(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, style)
			}
		})
	}
}

func TestSiteInterval(t *testing.T) {
	site := &Site{IntervalSecs: 30}
	assert.Equal(t, 30*time.Second, site.Interval())
}

func TestUpdateSummary(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	update := Update{
		ID:           7,
		SiteID:       3,
		Timestamp:    ts,
		ContentHash:  "abc123",
		Content:      "full body text",
		LinesAdded:   4,
		LinesRemoved: 1,
	}

	sum := update.Summary()
	assert.Equal(t, int64(7), sum.ID)
	assert.Equal(t, int64(3), sum.SiteID)
	assert.Equal(t, ts, sum.Timestamp)
	assert.Equal(t, "abc123", sum.ContentHash)
	assert.Equal(t, len("full body text"), sum.ContentSize)
	assert.Equal(t, 4, sum.LinesAdded)
	assert.Equal(t, 1, sum.LinesRemoved)
}
