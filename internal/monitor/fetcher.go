package monitor

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/config"
)

// userAgents are rotated per request so repeated polls do not present a
// single client signature.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
	"Mozilla/5.0 (X11; Linux x86_64)",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 14_0 like Mac OS X)",
}

// Fetcher downloads site content with global rate limiting and a size cap.
type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cfg        *config.MonitorConfig
	logger     zerolog.Logger
}

// NewFetcher creates a new Fetcher from monitor configuration.
func NewFetcher(cfg *config.MonitorConfig, logger zerolog.Logger) *Fetcher {
	timeout := time.Duration(cfg.HTTPTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultHTTPTimeoutSecs) * time.Second
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = config.DefaultRequestsPerSecond
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Fetcher{
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(rps), rps*2),
		cfg:        cfg,
		logger:     logger.With().Str("component", "Fetcher").Logger(),
	}
}

// FetchResult holds the outcome of a successful fetch.
type FetchResult struct {
	Content     []byte
	ContentType string
	StatusCode  int
	FetchedAt   time.Time
}

// Fetch downloads the body of url. Non-2xx statuses are returned as
// HTTPError and bodies over MaxContentSize are rejected. The request is
// bounded by the client timeout and ctx, whichever ends first.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, common.WrapError(err, "waiting for rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, common.WrapError(err, fmt.Sprintf("creating request for %s", url))
	}
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, common.NewNetworkError(url, "HTTP request failed", err)
	}
	defer resp.Body.Close()

	result := &FetchResult{
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		FetchedAt:   time.Now().UTC(),
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		f.logger.Warn().Str("url", url).Int("status_code", resp.StatusCode).Msg("Received non-2xx HTTP status")
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, common.NewHTTPErrorWithURL(resp.StatusCode, string(bodyBytes), url)
	}

	maxSize := int64(f.cfg.MaxContentSize)
	if maxSize <= 0 {
		maxSize = int64(config.DefaultMaxContentSize)
	}
	if resp.ContentLength > maxSize {
		return nil, common.NewError("content too large: %d bytes (max: %d bytes)", resp.ContentLength, maxSize)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, common.NewNetworkError(url, "reading response body", err)
	}
	if int64(len(bodyBytes)) > maxSize {
		return nil, common.NewError("content too large: %d bytes (max: %d bytes)", len(bodyBytes), maxSize)
	}

	result.Content = bodyBytes

	f.logger.Debug().
		Str("url", url).
		Str("content_type", result.ContentType).
		Int("size", len(result.Content)).
		Msg("Site content fetched")

	return result, nil
}
