package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/aleister1102/sitewatch/internal/common/contextutils"
	"github.com/aleister1102/sitewatch/internal/datastore"
	"github.com/aleister1102/sitewatch/internal/differ"
	"github.com/aleister1102/sitewatch/internal/extractor"
	"github.com/aleister1102/sitewatch/internal/models"
	"github.com/aleister1102/sitewatch/internal/notifier"
)

// CheckOutcome reports what one check cycle observed so the runner can
// compute the next delay.
type CheckOutcome struct {
	Changed   bool
	Failed    bool
	Cancelled bool
	Err       error
}

// SiteChecker executes one poll cycle for a site: fetch, normalize,
// hash, compare against the previous hash, and on change record the
// update and publish it. It holds no per-site state, so one checker
// serves every runner.
type SiteChecker struct {
	fetcher     *Fetcher
	processor   *ContentProcessor
	differ      *differ.ContentDiffer
	extractor   *extractor.PreviewExtractor
	siteStore   *datastore.SiteStore
	updateStore *datastore.UpdateStore
	broadcaster *notifier.Broadcaster
	logger      zerolog.Logger
}

// NewSiteChecker creates a new SiteChecker.
func NewSiteChecker(
	fetcher *Fetcher,
	processor *ContentProcessor,
	contentDiffer *differ.ContentDiffer,
	previewExtractor *extractor.PreviewExtractor,
	siteStore *datastore.SiteStore,
	updateStore *datastore.UpdateStore,
	broadcaster *notifier.Broadcaster,
	logger zerolog.Logger,
) *SiteChecker {
	return &SiteChecker{
		fetcher:     fetcher,
		processor:   processor,
		differ:      contentDiffer,
		extractor:   previewExtractor,
		siteStore:   siteStore,
		updateStore: updateStore,
		broadcaster: broadcaster,
		logger:      logger.With().Str("component", "SiteChecker").Logger(),
	}
}

// Check runs one poll cycle for the site. Nothing is persisted or
// published once ctx has been cancelled, so a removed site cannot write
// state after its runner was told to stop. The first successful check of
// a site counts as a change and establishes the baseline snapshot.
func (sc *SiteChecker) Check(ctx context.Context, site *models.Site) CheckOutcome {
	fetchResult, err := sc.fetcher.Fetch(ctx, site.URL)
	if err != nil {
		if contextutils.CheckCancellation(ctx).Cancelled {
			return CheckOutcome{Cancelled: true, Err: err}
		}

		sc.logger.Warn().Err(err).Int64("site_id", site.ID).Str("url", site.URL).Msg("Site check failed")
		sc.recordCheck(ctx, site, models.SiteStatusError, time.Now().UTC())
		return CheckOutcome{Failed: true, Err: err}
	}

	if contextutils.CheckCancellationWithLog(ctx, sc.logger, "site check").Cancelled {
		return CheckOutcome{Cancelled: true}
	}

	_, newHash := sc.processor.Process(fetchResult.Content, fetchResult.ContentType)

	previous, err := sc.updateStore.LatestUpdate(ctx, site.ID)
	if err != nil && !errors.Is(err, models.ErrUpdateNotFound) {
		sc.logger.Error().Err(err).Int64("site_id", site.ID).Msg("Failed to load previous update")
		sc.recordCheck(ctx, site, models.SiteStatusError, fetchResult.FetchedAt)
		return CheckOutcome{Failed: true, Err: err}
	}

	if previous != nil && previous.ContentHash == newHash {
		sc.recordCheck(ctx, site, models.SiteStatusOK, fetchResult.FetchedAt)
		sc.logger.Debug().Int64("site_id", site.ID).Str("url", site.URL).Msg("Site content unchanged")
		return CheckOutcome{}
	}

	return sc.recordChange(ctx, site, previous, fetchResult, newHash)
}

func (sc *SiteChecker) recordChange(
	ctx context.Context,
	site *models.Site,
	previous *models.Update,
	fetchResult *FetchResult,
	newHash string,
) CheckOutcome {
	previousContent := ""
	if previous != nil {
		previousContent = previous.Content
	}
	diffResult := sc.differ.Diff(previousContent, string(fetchResult.Content))

	update := &models.Update{
		SiteID:       site.ID,
		Timestamp:    fetchResult.FetchedAt,
		ContentHash:  newHash,
		Content:      string(fetchResult.Content),
		LinesAdded:   diffResult.LinesAdded,
		LinesRemoved: diffResult.LinesRemoved,
	}

	id, err := sc.updateStore.AppendUpdate(ctx, site, update)
	if err != nil {
		sc.logger.Error().Err(err).Int64("site_id", site.ID).Msg("Failed to store update")
		sc.recordCheck(ctx, site, models.SiteStatusError, fetchResult.FetchedAt)
		return CheckOutcome{Failed: true, Err: err}
	}
	update.ID = id

	if err := sc.siteStore.RecordChange(ctx, site.ID, fetchResult.FetchedAt); err != nil {
		sc.logger.Error().Err(err).Int64("site_id", site.ID).Msg("Failed to record site change")
	}

	preview := sc.extractor.Extract(fetchResult.Content, fetchResult.ContentType, site.URL)
	sc.broadcaster.Publish(notifier.NewUpdateEvent(site, update, preview))

	sc.logger.Info().
		Int64("site_id", site.ID).
		Str("url", site.URL).
		Str("hash", newHash).
		Int("lines_added", diffResult.LinesAdded).
		Int("lines_removed", diffResult.LinesRemoved).
		Msg("Site content changed")

	return CheckOutcome{Changed: true}
}

func (sc *SiteChecker) recordCheck(ctx context.Context, site *models.Site, status models.SiteStatus, ts time.Time) {
	if err := sc.siteStore.RecordCheck(ctx, site.ID, status, ts); err != nil {
		sc.logger.Error().Err(err).Int64("site_id", site.ID).Msg("Failed to record site check")
	}
}
