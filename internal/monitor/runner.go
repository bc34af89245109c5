package monitor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aleister1102/sitewatch/internal/common/contextutils"
	"github.com/aleister1102/sitewatch/internal/models"
)

// siteRunner drives the poll loop for a single site. Each runner owns a
// cancellable child context so one site can be stopped without touching
// the others.
type siteRunner struct {
	site    *models.Site
	checker *SiteChecker
	policy  *DelayPolicy
	cancel  context.CancelFunc
	done    chan struct{}
	logger  zerolog.Logger
}

func newSiteRunner(site *models.Site, checker *SiteChecker, policy *DelayPolicy, logger zerolog.Logger) *siteRunner {
	return &siteRunner{
		site:    site,
		checker: checker,
		policy:  policy,
		done:    make(chan struct{}),
		logger: logger.With().
			Str("component", "SiteRunner").
			Int64("site_id", site.ID).
			Str("url", site.URL).
			Logger(),
	}
}

// start spawns the poll loop under a child of parent.
func (r *siteRunner) start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	go r.run(ctx)
}

// run checks the site immediately, then sleeps per the delay policy
// between cycles until ctx is cancelled.
func (r *siteRunner) run(ctx context.Context) {
	defer close(r.done)

	delay := r.site.Interval()
	for {
		outcome := r.checker.Check(ctx, r.site)
		if outcome.Cancelled {
			r.logger.Debug().Msg("Site runner stopped mid-check")
			return
		}

		delay = r.policy.NextDelay(r.site.Style, r.site.Interval(), delay, outcome.Failed)
		r.logger.Debug().Dur("delay", delay).Msg("Next check scheduled")

		if !contextutils.Sleep(ctx, delay) {
			r.logger.Debug().Msg("Site runner stopped")
			return
		}
	}
}

// stop cancels the runner and waits for its loop to exit.
func (r *siteRunner) stop() {
	if r.cancel != nil {
		r.cancel()
	}
	<-r.done
}
