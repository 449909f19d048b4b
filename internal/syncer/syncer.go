// Package syncer keeps the local anime catalog populated for a rolling
// three-quarter horizon against the remote metadata provider.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/user/anime-notify-bot/internal/config"
	"github.com/user/anime-notify-bot/internal/mal"
	"github.com/user/anime-notify-bot/internal/model"
	"github.com/user/anime-notify-bot/internal/server"
	"github.com/user/anime-notify-bot/internal/store"
	"golang.org/x/sync/errgroup"
)

// maxDetailFetches bounds concurrent in-flight detail requests per sync run.
const maxDetailFetches = 8

// MetadataAPI is the remote metadata provider consumed by the sync engine.
type MetadataAPI interface {
	GetSeasonalAnime(ctx context.Context, year int, season string) (*mal.SeasonalAnime, error)
	GetAnimeDetail(ctx context.Context, animeID int) (*mal.AnimeDetail, error)
}

// Engine synchronizes the catalog store with the metadata provider.
type Engine struct {
	api     MetadataAPI
	catalog store.CatalogStore
	config  *config.SyncConfig
	running atomic.Bool
	mu      sync.Mutex // prevents overlapping sync runs
	stopCh  chan struct{}
	wg      sync.WaitGroup
	now     func() time.Time
}

// NewEngine creates a new sync engine instance
func NewEngine(api MetadataAPI, catalog store.CatalogStore, cfg *config.SyncConfig) *Engine {
	return &Engine{
		api:     api,
		catalog: catalog,
		config:  cfg,
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
}

// Sync brings the catalog up to the three-quarter horizon. It is idempotent
// and safe to call repeatedly: summaries and details already present are
// never touched. A single failed fetch aborts the remaining batch; the next
// run retries from scratch.
func (e *Engine) Sync(ctx context.Context) error {
	now := e.now()

	seasons, err := e.catalog.ListSeasons(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect stored seasons: %w", err)
	}

	if latest, ok := model.MaxSeason(seasons); ok {
		horizon := now.Add(time.Duration(e.config.HorizonDays) * 24 * time.Hour)
		if latest.Compare(model.SeasonOf(horizon)) >= 0 {
			log.Info().
				Int("year", latest.Year).
				Str("season", latest.Name).
				Msg("Catalog already covers the horizon, skipping fetch")
			return nil
		}
	}

	// Always re-fetch starting at the current quarter, not the stored
	// maximum: the near horizon is the part users subscribe against.
	quarters := make([]model.Season, 0, 3)
	q := model.SeasonOf(now)
	for i := 0; i < 3; i++ {
		quarters = append(quarters, q)
		q = q.Next()
	}

	log.Info().
		Int("year", quarters[0].Year).
		Str("season", quarters[0].Name).
		Msg("Fetching seasonal listings")

	listings := make([]*mal.SeasonalAnime, len(quarters))
	g, gctx := errgroup.WithContext(ctx)
	for i, quarter := range quarters {
		i, quarter := i, quarter
		g.Go(func() error {
			listing, err := e.api.GetSeasonalAnime(gctx, quarter.Year, quarter.Name)
			if err != nil {
				return err
			}
			listings[i] = listing
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("seasonal fetch failed: %w", err)
	}

	var summaries []*model.AnimeSummary
	for _, listing := range listings {
		summaries = append(summaries, mal.SummaryRecords(listing, now)...)
	}

	saved, err := e.catalog.SaveSummaries(ctx, summaries)
	if err != nil {
		return fmt.Errorf("failed to save summaries: %w", err)
	}
	log.Info().
		Int("fetched", len(summaries)).
		Int("saved", saved).
		Msg("Seasonal summaries stored")

	missing, err := e.missingDetailIDs(ctx, summaries)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		log.Info().Msg("Detail catalog already current")
		return nil
	}

	log.Info().Int("count", len(missing)).Msg("Fetching anime details")

	details := make([]*mal.AnimeDetail, len(missing))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(maxDetailFetches)
	for i, animeID := range missing {
		i, animeID := i, animeID
		g.Go(func() error {
			detail, err := e.api.GetAnimeDetail(gctx, animeID)
			if err != nil {
				return err
			}
			details[i] = detail
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("detail fetch failed: %w", err)
	}

	for _, detail := range details {
		if err := e.catalog.SaveDetail(ctx, detail.Record()); err != nil {
			return fmt.Errorf("failed to save detail %d: %w", detail.ID, err)
		}
	}

	log.Info().Int("details", len(details)).Msg("Anime details stored")
	return nil
}

// missingDetailIDs returns the unique summary ids that have no detail row.
func (e *Engine) missingDetailIDs(ctx context.Context, summaries []*model.AnimeSummary) ([]int, error) {
	detailIDs, err := e.catalog.ListDetailIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list detail ids: %w", err)
	}

	have := make(map[int]struct{}, len(detailIDs))
	for _, id := range detailIDs {
		have[id] = struct{}{}
	}

	var missing []int
	for _, summary := range summaries {
		if _, ok := have[summary.ID]; ok {
			continue
		}
		have[summary.ID] = struct{}{}
		missing = append(missing, summary.ID)
	}
	return missing, nil
}

// Start begins the sync loop: one run after a short initial delay, then a
// recurring daily trigger.
func (e *Engine) Start(ctx context.Context) {
	if !e.config.Enabled {
		log.Info().Msg("Catalog sync is disabled")
		return
	}

	e.wg.Add(1)
	go e.run(ctx)
}

// run is the main sync loop
func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	log.Info().Dur("delay", e.config.InitialDelay).Msg("Sync engine starting with initial delay")

	select {
	case <-time.After(e.config.InitialDelay):
		e.executeSync(ctx)
	case <-e.stopCh:
		log.Info().Msg("Sync engine stopped during initial delay")
		return
	case <-ctx.Done():
		log.Info().Msg("Sync engine context cancelled during initial delay")
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(e.config.Cron, func() { e.executeSync(ctx) }); err != nil {
		log.Error().Err(err).Str("spec", e.config.Cron).Msg("Failed to register sync trigger")
		return
	}
	c.Start()

	log.Info().Str("spec", e.config.Cron).Msg("Sync engine started recurring trigger")

	select {
	case <-e.stopCh:
	case <-ctx.Done():
	}

	<-c.Stop().Done()
	log.Info().Msg("Sync engine stopped")
}

// executeSync runs a single sync with overlap protection.
func (e *Engine) executeSync(ctx context.Context) {
	if !e.mu.TryLock() {
		log.Warn().Msg("Sync already running, skipping this trigger")
		return
	}
	defer e.mu.Unlock()

	e.running.Store(true)
	defer e.running.Store(false)

	startTime := time.Now()
	log.Info().Msg("Starting catalog sync")

	if err := e.Sync(ctx); err != nil {
		server.RecordError("sync")
		log.Error().Err(err).Msg("Catalog sync failed")
	}

	duration := time.Since(startTime)
	server.RecordSyncDuration(duration)
	log.Info().Dur("duration", duration).Msg("Catalog sync completed")
}

// Stop gracefully stops the sync loop
func (e *Engine) Stop() {
	log.Info().Msg("Stopping sync engine...")
	close(e.stopCh)
	e.wg.Wait()
	log.Info().Msg("Sync engine stopped")
}

// IsRunning returns true if a sync is currently in flight
func (e *Engine) IsRunning() bool {
	return e.running.Load()
}
