package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/config"
	"github.com/aleister1102/sitewatch/internal/datastore"
	"github.com/aleister1102/sitewatch/internal/models"
	"github.com/aleister1102/sitewatch/internal/urlhandler"
)

// ErrServiceClosed is returned by mutating calls made after Stop.
var ErrServiceClosed = errors.New("monitoring service closed")

// stopTimeout bounds how long Stop waits for runners to exit.
const stopTimeout = 10 * time.Second

// AddSiteInput holds parameters for Service.AddSite.
type AddSiteInput struct {
	URL          string `json:"url"`
	IntervalSecs int    `json:"interval_secs"`
	Style        string `json:"style"`
}

// Service owns the set of running site monitors. All runner lifecycle
// goes through its mutex, so exactly one runner exists per site.
type Service struct {
	cfg         *config.MonitorConfig
	db          *datastore.DB
	siteStore   *datastore.SiteStore
	updateStore *datastore.UpdateStore
	checker     *SiteChecker
	policy      *DelayPolicy
	logger      zerolog.Logger

	mu      sync.Mutex
	closed  bool
	runners map[int64]*siteRunner

	serviceCtx    context.Context
	serviceCancel context.CancelFunc
}

// NewService creates the monitoring service.
func NewService(
	cfg *config.MonitorConfig,
	db *datastore.DB,
	siteStore *datastore.SiteStore,
	updateStore *datastore.UpdateStore,
	checker *SiteChecker,
	logger zerolog.Logger,
) *Service {
	serviceCtx, serviceCancel := context.WithCancel(context.Background())

	return &Service{
		cfg:           cfg,
		db:            db,
		siteStore:     siteStore,
		updateStore:   updateStore,
		checker:       checker,
		policy:        NewDelayPolicy(cfg.IntervalJitterMaxMs),
		logger:        logger.With().Str("component", "MonitorService").Logger(),
		runners:       make(map[int64]*siteRunner),
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}
}

// Start loads persisted sites and spawns a runner for each. An empty
// store is seeded from monitor.initial_sites first.
func (s *Service) Start(ctx context.Context) error {
	sites, err := s.siteStore.ListSites(ctx)
	if err != nil {
		return common.WrapError(err, "loading persisted sites")
	}

	if len(sites) == 0 && len(s.cfg.InitialSites) > 0 {
		sites = s.seedInitialSites(ctx)
	}

	s.mu.Lock()
	for i := range sites {
		s.spawnRunnerLocked(&sites[i])
	}
	s.mu.Unlock()

	s.logger.Info().Int("sites", len(sites)).Msg("Monitoring service started")
	return nil
}

// Stop cancels every runner and waits for them to exit, bounded by
// stopTimeout. The service accepts no new sites afterwards.
func (s *Service) Stop() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	runners := s.drainRunners()

	s.serviceCancel()

	finished := make(chan struct{})
	go func() {
		for _, runner := range runners {
			<-runner.done
		}
		close(finished)
	}()

	select {
	case <-finished:
		s.logger.Info().Msg("Monitoring service stopped")
	case <-time.After(stopTimeout):
		s.logger.Warn().Msg("Timed out waiting for site runners to stop")
	}
}

// Reset wipes all persisted state and starts over from the configured
// initial sites. Runners are stopped first so no check can write into
// the fresh schema with a stale site id.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrServiceClosed
	}
	s.mu.Unlock()

	runners := s.drainRunners()
	for _, runner := range runners {
		runner.stop()
		s.updateStore.ReleaseSite(runner.site.ID)
	}

	if err := s.db.ResetAll(ctx); err != nil {
		return err
	}

	s.logger.Info().Msg("Database reset, reloading sites")
	return s.Start(ctx)
}

func (s *Service) drainRunners() []*siteRunner {
	s.mu.Lock()
	defer s.mu.Unlock()

	runners := make([]*siteRunner, 0, len(s.runners))
	for id, runner := range s.runners {
		delete(s.runners, id)
		runners = append(runners, runner)
	}

	return runners
}

// AddSite validates and persists a new site, then spawns its runner.
// The mutex is held across the insert so a concurrent Stop cannot leave
// a freshly persisted site without a runner decision.
func (s *Service) AddSite(ctx context.Context, input AddSiteInput) (*models.Site, error) {
	site, err := s.buildSite(input)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrServiceClosed
	}

	id, err := s.siteStore.CreateSite(ctx, site)
	if err != nil {
		return nil, err
	}
	site.ID = id

	s.spawnRunnerLocked(site)
	return site, nil
}

// RemoveSite cancels the site's runner, waits for it to exit, and then
// deletes persisted state. Removing an unknown site is a no-op.
func (s *Service) RemoveSite(ctx context.Context, id int64) error {
	s.mu.Lock()
	runner, running := s.runners[id]
	if running {
		delete(s.runners, id)
	}
	s.mu.Unlock()

	if running {
		runner.stop()
		s.logger.Info().Int64("site_id", id).Msg("Site monitor stopped")
	}

	if err := s.siteStore.DeleteSite(ctx, id); err != nil {
		return err
	}
	s.updateStore.ReleaseSite(id)

	return nil
}

// ListSites returns all persisted sites.
func (s *Service) ListSites(ctx context.Context) ([]models.Site, error) {
	return s.siteStore.ListSites(ctx)
}

// RunnerCount reports how many site runners are live.
func (s *Service) RunnerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.runners)
}

func (s *Service) buildSite(input AddSiteInput) (*models.Site, error) {
	normalized, err := urlhandler.NormalizeURL(input.URL)
	if err != nil {
		return nil, common.NewValidationError("url", input.URL, err.Error())
	}
	if err := urlhandler.ValidateURLFormat(normalized); err != nil {
		return nil, common.NewValidationError("url", input.URL, err.Error())
	}

	interval := input.IntervalSecs
	if interval == 0 {
		interval = s.cfg.DefaultIntervalSecs
	}
	if interval < config.MinIntervalSecs || interval > config.MaxIntervalSecs {
		return nil, common.NewValidationError("interval_secs", input.IntervalSecs, "interval out of range")
	}

	style, ok := models.ParseCheckStyle(input.Style)
	if !ok {
		return nil, common.NewValidationError("style", input.Style, "unknown check style")
	}

	return &models.Site{
		URL:          normalized,
		IntervalSecs: interval,
		Style:        style,
		Status:       models.SiteStatusPending,
	}, nil
}

func (s *Service) seedInitialSites(ctx context.Context) []models.Site {
	seeded := make([]models.Site, 0, len(s.cfg.InitialSites))

	for _, seed := range s.cfg.InitialSites {
		site, err := s.buildSite(AddSiteInput{
			URL:          seed.URL,
			IntervalSecs: seed.IntervalSecs,
			Style:        seed.Style,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("url", seed.URL).Msg("Skipping invalid initial site")
			continue
		}

		id, err := s.siteStore.CreateSite(ctx, site)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", site.URL).Msg("Failed to seed initial site")
			continue
		}
		site.ID = id
		seeded = append(seeded, *site)
	}

	s.logger.Info().Int("seeded", len(seeded)).Msg("Seeded initial sites into empty store")
	return seeded
}

// spawnRunnerLocked registers and starts a runner. Caller holds s.mu.
func (s *Service) spawnRunnerLocked(site *models.Site) {
	runner := newSiteRunner(site, s.checker, s.policy, s.logger)
	s.runners[site.ID] = runner
	runner.start(s.serviceCtx)

	s.logger.Info().
		Int64("site_id", site.ID).
		Str("url", site.URL).
		Str("style", string(site.Style)).
		Int("interval_secs", site.IntervalSecs).
		Msg("Site monitor started")
}
