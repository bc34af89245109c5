package extractor

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"
)

// ContentKind classifies a fetched body for preview extraction
type ContentKind int

const (
	KindText ContentKind = iota
	KindHTML
	KindFeed
	KindJSON
)

// String returns the kind name for logging
func (ck ContentKind) String() string {
	switch ck {
	case KindHTML:
		return "html"
	case KindFeed:
		return "feed"
	case KindJSON:
		return "json"
	default:
		return "text"
	}
}

// ContentKindAnalyzer determines how a body should be previewed
type ContentKindAnalyzer struct {
	logger zerolog.Logger
}

// NewContentKindAnalyzer creates a new content kind analyzer
func NewContentKindAnalyzer(logger zerolog.Logger) *ContentKindAnalyzer {
	return &ContentKindAnalyzer{
		logger: logger.With().Str("component", "ContentKindAnalyzer").Logger(),
	}
}

// Analyze classifies content using the Content-Type header first and
// falls back to URL extension and body sniffing.
func (cka *ContentKindAnalyzer) Analyze(content []byte, contentType, sourceURL string) ContentKind {
	kind := cka.classify(content, strings.ToLower(contentType), strings.ToLower(sourceURL))

	cka.logger.Debug().
		Str("source_url", sourceURL).
		Str("content_type", contentType).
		Str("kind", kind.String()).
		Msg("Content kind analysis for preview")

	return kind
}

func (cka *ContentKindAnalyzer) classify(content []byte, contentType, sourceURL string) ContentKind {
	switch {
	case strings.Contains(contentType, "json"):
		return KindJSON
	case strings.Contains(contentType, "rss"), strings.Contains(contentType, "atom"):
		return KindFeed
	case strings.Contains(contentType, "xml"):
		if looksLikeFeed(content) {
			return KindFeed
		}
		return KindText
	case strings.Contains(contentType, "html"):
		return KindHTML
	}

	// No usable content type, check URL extension as fallback
	for _, ext := range []string{".rss", ".atom"} {
		if strings.HasSuffix(sourceURL, ext) {
			return KindFeed
		}
	}
	if strings.HasSuffix(sourceURL, ".json") {
		return KindJSON
	}

	return sniffBody(content)
}

func sniffBody(content []byte) ContentKind {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return KindText
	}

	switch trimmed[0] {
	case '{', '[':
		if json.Valid(trimmed) {
			return KindJSON
		}
	case '<':
		if looksLikeFeed(trimmed) {
			return KindFeed
		}
		return KindHTML
	}

	return KindText
}

func looksLikeFeed(content []byte) bool {
	head := content
	if len(head) > 1024 {
		head = head[:1024]
	}

	lower := bytes.ToLower(head)
	return bytes.Contains(lower, []byte("<rss")) || bytes.Contains(lower, []byte("<feed"))
}
