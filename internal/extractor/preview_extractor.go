package extractor

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// PreviewConfig holds configuration for preview extraction
type PreviewConfig struct {
	MaxPreviewLength int
}

// DefaultPreviewConfig returns default configuration
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		MaxPreviewLength: 400,
	}
}

// PreviewExtractor builds short human-readable previews of fetched content
// for broadcast events.
type PreviewExtractor struct {
	config   PreviewConfig
	analyzer *ContentKindAnalyzer
	parser   *gofeed.Parser
	logger   zerolog.Logger
}

// NewPreviewExtractor creates a preview extractor with default configuration
func NewPreviewExtractor(logger zerolog.Logger) *PreviewExtractor {
	return NewPreviewExtractorWithConfig(DefaultPreviewConfig(), logger)
}

// NewPreviewExtractorWithConfig creates a preview extractor with the given configuration
func NewPreviewExtractorWithConfig(config PreviewConfig, logger zerolog.Logger) *PreviewExtractor {
	if config.MaxPreviewLength <= 0 {
		config.MaxPreviewLength = DefaultPreviewConfig().MaxPreviewLength
	}

	return &PreviewExtractor{
		config:   config,
		analyzer: NewContentKindAnalyzer(logger),
		parser:   gofeed.NewParser(),
		logger:   logger.With().Str("component", "PreviewExtractor").Logger(),
	}
}

// Extract returns a preview of at most MaxPreviewLength characters, cut at a
// sentence or word boundary. Feeds are summarized through their latest item,
// HTML through its title and main content region.
func (pe *PreviewExtractor) Extract(content []byte, contentType, sourceURL string) string {
	kind := pe.analyzer.Analyze(content, contentType, sourceURL)

	var preview string
	switch kind {
	case KindFeed:
		preview = pe.feedPreview(content)
	case KindHTML:
		preview = pe.htmlPreview(content)
	case KindJSON:
		preview = collapseWhitespace(string(content))
	}

	if preview == "" {
		preview = collapseWhitespace(string(content))
	}

	return truncateAtBoundary(preview, pe.config.MaxPreviewLength)
}

func (pe *PreviewExtractor) feedPreview(content []byte) string {
	feed, err := pe.parser.ParseString(string(content))
	if err != nil {
		pe.logger.Debug().Err(err).Msg("Feed parse failed, using plain text preview")
		return ""
	}

	parts := make([]string, 0, 3)
	if feed.Title != "" {
		parts = append(parts, collapseWhitespace(feed.Title))
	}

	if len(feed.Items) > 0 {
		item := feed.Items[0]
		if item.Title != "" {
			parts = append(parts, collapseWhitespace(item.Title))
		}
		if desc := htmlToText(item.Description); desc != "" {
			parts = append(parts, desc)
		}
	}

	return strings.Join(parts, " | ")
}

func (pe *PreviewExtractor) htmlPreview(content []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		pe.logger.Debug().Err(err).Msg("HTML parse failed, using plain text preview")
		return ""
	}

	doc.Find("script, style, noscript").Remove()

	title := collapseWhitespace(doc.Find("title").First().Text())

	body := ""
	if region := doc.Find("article, main, #content, .content").First(); region.Length() > 0 {
		body = collapseWhitespace(region.Text())
	} else {
		body = collapseWhitespace(doc.Find("body").Text())
	}

	switch {
	case title != "" && body != "":
		return title + " | " + body
	case title != "":
		return title
	default:
		return body
	}
}

// htmlToText strips markup from a fragment, such as a feed item description.
func htmlToText(fragment string) string {
	if fragment == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseWhitespace(fragment)
	}

	return collapseWhitespace(doc.Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateAtBoundary cuts the preview at the last sentence end that fits,
// falling back to the last word boundary.
func truncateAtBoundary(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}

	cut := string([]rune(s)[:max])
	if idx := strings.LastIndexAny(cut, ".!?"); idx >= len(cut)/2 {
		return strings.TrimSpace(cut[:idx+1])
	}
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		return strings.TrimSpace(cut[:idx])
	}

	return strings.TrimSpace(cut)
}
