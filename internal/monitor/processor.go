package monitor

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// volatilePatterns match text fragments that change on every render
// (clocks, dates, view counters) and must not influence the change hash.
var volatilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}:\d{2}:\d{2}`),
	regexp.MustCompile(`\d{1,2}:\d{2}`),
	regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`),
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`[A-Za-z]{3},\s\d{1,2}\s[A-Za-z]{3}\s\d{4}`),
	regexp.MustCompile(`(?i)viewcount["']?\s*:\s*["']?\d+`),
	regexp.MustCompile(`["']timestamp["']\s*:\s*\d+`),
	regexp.MustCompile(`data-timestamp=["']\d+["']`),
}

// ContentProcessor reduces fetched content to a stable comparable form
// and derives the change hash from it. The raw body is what gets stored;
// the normalized form only exists for comparison.
type ContentProcessor struct {
	logger zerolog.Logger
}

// NewContentProcessor creates a new ContentProcessor.
func NewContentProcessor(logger zerolog.Logger) *ContentProcessor {
	return &ContentProcessor{
		logger: logger.With().Str("component", "ContentProcessor").Logger(),
	}
}

// Process normalizes content and returns the normalized form together
// with its sha256 hex hash.
func (cp *ContentProcessor) Process(content []byte, contentType string) (string, string) {
	normalized := cp.Normalize(content, contentType)
	return normalized, cp.Hash(normalized)
}

// Normalize strips volatile fragments so they do not register as
// changes. HTML additionally loses scripts, embedded frames and ad
// insertions, and is reduced to its main content region when one is
// present. All content ends whitespace-collapsed.
func (cp *ContentProcessor) Normalize(content []byte, contentType string) string {
	text := string(content)

	if isHTML(contentType, content) {
		if stripped, ok := cp.stripHTML(text); ok {
			text = stripped
		}
	}

	for _, re := range volatilePatterns {
		text = re.ReplaceAllString(text, "")
	}

	return strings.Join(strings.Fields(text), " ")
}

// Hash returns the sha256 hex digest of a normalized body.
func (cp *ContentProcessor) Hash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum)
}

func (cp *ContentProcessor) stripHTML(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		cp.logger.Debug().Err(err).Msg("HTML parse failed, normalizing as plain text")
		return "", false
	}

	doc.Find("script, style, noscript, iframe, ins").Remove()
	doc.Find("[id*='clock'], [class*='clock'], [id*='timestamp'], [class*='timestamp']").Remove()

	if region := doc.Find("article, main, #content, .content, .post-content").First(); region.Length() > 0 {
		return region.Text(), true
	}
	if body := doc.Find("body"); body.Length() > 0 {
		return body.Text(), true
	}

	return doc.Text(), true
}

func isHTML(contentType string, content []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}

	head := bytes.ToLower(bytes.TrimSpace(content))
	if len(head) > 256 {
		head = head[:256]
	}

	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}
