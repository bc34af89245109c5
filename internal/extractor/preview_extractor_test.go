package extractor

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Release Notes</title>
    <link>https://example.com</link>
    <item>
      <title>Version 2.4 shipped</title>
      <description>&lt;p&gt;Bug fixes and performance work.&lt;/p&gt;</description>
    </item>
    <item>
      <title>Version 2.3 shipped</title>
      <description>Older entry</description>
    </item>
  </channel>
</rss>`

func TestExtract_FeedPreview(t *testing.T) {
	pe := NewPreviewExtractor(zerolog.Nop())

	preview := pe.Extract([]byte(sampleRSS), "application/rss+xml", "https://example.com/feed")

	assert.Contains(t, preview, "Release Notes")
	assert.Contains(t, preview, "Version 2.4 shipped")
	assert.Contains(t, preview, "Bug fixes and performance work.")
	assert.NotContains(t, preview, "<p>")
	assert.NotContains(t, preview, "Version 2.3")
}

func TestExtract_HTMLPreview(t *testing.T) {
	pe := NewPreviewExtractor(zerolog.Nop())

	html := `<html>
<head><title>Status Page</title><script>var x = "ignore me";</script></head>
<body>
<nav>navigation junk</nav>
<article>All systems operational.</article>
</body>
</html>`

	preview := pe.Extract([]byte(html), "text/html", "https://example.com/status")

	assert.Contains(t, preview, "Status Page")
	assert.Contains(t, preview, "All systems operational.")
	assert.NotContains(t, preview, "ignore me")
	assert.NotContains(t, preview, "navigation junk")
}

func TestExtract_HTMLWithoutContentRegion(t *testing.T) {
	pe := NewPreviewExtractor(zerolog.Nop())

	html := `<html><head><title>Plain</title></head><body><p>body text here</p></body></html>`
	preview := pe.Extract([]byte(html), "text/html", "https://example.com")

	assert.Contains(t, preview, "Plain")
	assert.Contains(t, preview, "body text here")
}

func TestExtract_JSONPreview(t *testing.T) {
	pe := NewPreviewExtractor(zerolog.Nop())

	body := "{\n  \"status\": \"ok\",\n  \"version\": 3\n}"
	preview := pe.Extract([]byte(body), "application/json", "https://example.com/api")

	assert.Equal(t, `{ "status": "ok", "version": 3 }`, preview)
}

func TestExtract_PlainTextCollapsesWhitespace(t *testing.T) {
	pe := NewPreviewExtractor(zerolog.Nop())

	preview := pe.Extract([]byte("  several\n\twords   spaced\n oddly  "), "text/plain", "https://example.com")
	assert.Equal(t, "several words spaced oddly", preview)
}

func TestExtract_TruncatesLongContent(t *testing.T) {
	pe := NewPreviewExtractorWithConfig(PreviewConfig{MaxPreviewLength: 50}, zerolog.Nop())

	long := strings.Repeat("word ", 40)
	preview := pe.Extract([]byte(long), "text/plain", "https://example.com")

	assert.LessOrEqual(t, utf8.RuneCountInString(preview), 50)
	assert.False(t, strings.HasSuffix(preview, " "))
	// Cut lands on a word boundary, never mid-word.
	assert.True(t, strings.HasSuffix(preview, "word"), "preview %q should end on a whole word", preview)
}

func TestTruncateAtBoundary(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{
			name:     "short string untouched",
			input:    "short",
			max:      50,
			expected: "short",
		},
		{
			name:     "prefers sentence boundary",
			input:    "First sentence is here. Second sentence continues on for a while longer.",
			max:      30,
			expected: "First sentence is here.",
		},
		{
			name:     "falls back to word boundary",
			input:    "no sentence punctuation just many plain words in a row here",
			max:      25,
			expected: "no sentence punctuation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncateAtBoundary(tt.input, tt.max))
		})
	}
}
