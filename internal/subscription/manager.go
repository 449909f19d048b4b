// Package subscription orchestrates subscribe/unsubscribe/list/search,
// keeping the subscription store and the notification scheduler consistent.
package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/user/anime-notify-bot/internal/jikan"
	"github.com/user/anime-notify-bot/internal/mal"
	"github.com/user/anime-notify-bot/internal/match"
	"github.com/user/anime-notify-bot/internal/model"
	"github.com/user/anime-notify-bot/internal/notify"
	"github.com/user/anime-notify-bot/internal/store"
)

// Sentinel errors surfaced to the command layer.
var (
	// ErrBadInput marks an empty or malformed command argument.
	ErrBadInput = errors.New("invalid argument")

	// ErrNotFound marks an unknown anime id or a missing subscription.
	ErrNotFound = errors.New("not found")

	// ErrUnschedulable marks a subscribe attempt for a title whose
	// broadcast slot is unknown.
	ErrUnschedulable = errors.New("broadcast slot unknown")
)

// MetadataAPI is the on-demand detail fetch boundary.
type MetadataAPI interface {
	GetAnimeDetail(ctx context.Context, animeID int) (*mal.AnimeDetail, error)
}

// SearchAPI is the remote fuzzy-search variant.
type SearchAPI interface {
	SearchAnime(ctx context.Context, query string, limit int) ([]jikan.Result, error)
}

// Scheduler is the notification job registry kept in lockstep with the
// subscription store.
type Scheduler interface {
	Rebuild(jobs []notify.Job)
	Add(job notify.Job)
	Remove(key notify.Key)
}

// Candidate is one ranked fuzzy-search result.
type Candidate struct {
	ID       int
	Title    string
	Score    float64
	ImageURL string
}

// SearchResult is either a direct detail hit (numeric query) or a ranked
// candidate list (free-text query).
type SearchResult struct {
	Detail     *model.AnimeDetail
	Candidates []Candidate
}

// Manager implements the subscription operations.
type Manager struct {
	store     store.Store
	api       MetadataAPI
	search    SearchAPI // nil selects the local fuzzy-match variant
	scheduler Scheduler
	limit     int
}

// NewManager creates a subscription manager. Pass a nil search client to
// match free-text queries against the locally cached alternative titles.
func NewManager(st store.Store, api MetadataAPI, search SearchAPI, scheduler Scheduler, limit int) *Manager {
	if limit <= 0 {
		limit = 3
	}
	return &Manager{
		store:     st,
		api:       api,
		search:    search,
		scheduler: scheduler,
		limit:     limit,
	}
}

// Search resolves a numeric argument as a direct id lookup (fetching
// on-demand from the provider when absent) and a free-text argument through
// the configured fuzzy-search variant.
func (m *Manager) Search(ctx context.Context, arg string) (*SearchResult, error) {
	if arg == "" {
		return nil, ErrBadInput
	}

	if animeID, err := strconv.Atoi(arg); err == nil {
		detail, err := m.ensureDetail(ctx, animeID)
		if err != nil {
			return nil, err
		}
		return &SearchResult{Detail: detail}, nil
	}

	if m.search != nil {
		return m.searchRemote(ctx, arg)
	}
	return m.searchLocal(ctx, arg)
}

// searchRemote delegates to the remote fuzzy-search provider.
func (m *Manager) searchRemote(ctx context.Context, query string) (*SearchResult, error) {
	results, err := m.search.SearchAnime(ctx, query, m.limit)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Remote search failed")
		return nil, fmt.Errorf("remote search failed: %w", err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, Candidate{
			ID:       r.ID,
			Title:    r.Title,
			ImageURL: r.ImageURL,
		})
	}
	return &SearchResult{Candidates: candidates}, nil
}

// searchLocal ranks the cached alternative titles against the query.
func (m *Manager) searchLocal(ctx context.Context, query string) (*SearchResult, error) {
	details, err := m.store.ListDetails(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog for search: %w", err)
	}

	titles := make(map[int][]string, len(details))
	for _, detail := range details {
		names := []string{detail.Title}

		var alt mal.AlternativeTitles
		if len(detail.AlternativeTitles) > 0 {
			if err := json.Unmarshal(detail.AlternativeTitles, &alt); err == nil {
				if alt.En != "" {
					names = append(names, alt.En)
				}
				if alt.Ja != "" {
					names = append(names, alt.Ja)
				}
				names = append(names, alt.Synonyms...)
			}
		}
		titles[detail.ID] = names
	}

	matches := match.TopN(query, titles, m.limit)
	candidates := make([]Candidate, 0, len(matches))
	for _, hit := range matches {
		candidates = append(candidates, Candidate{
			ID:    hit.ID,
			Title: hit.Matched,
			Score: hit.Score,
		})
	}
	return &SearchResult{Candidates: candidates}, nil
}

// Subscribe creates the subscription and registers its weekly trigger.
// It fails with ErrUnschedulable, creating nothing, when the broadcast day
// is unknown. Duplicate (user, anime) subscribes are not guarded against.
func (m *Manager) Subscribe(ctx context.Context, userID int64, animeID int, groupID int64) (*model.AnimeDetail, error) {
	detail, err := m.ensureDetail(ctx, animeID)
	if err != nil {
		return nil, err
	}

	day, hour, minute, ok := detail.Broadcast().Slot()
	if !ok {
		return nil, ErrUnschedulable
	}

	if err := m.store.EnsureUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	sub := &model.Subscription{
		UserID:  userID,
		AnimeID: animeID,
		GroupID: groupID,
	}
	if err := m.store.CreateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	m.scheduler.Add(notify.Job{
		AnimeID: animeID,
		GroupID: groupID,
		UserID:  userID,
		Day:     day,
		Hour:    hour,
		Minute:  minute,
	})

	log.Info().
		Int64("userID", userID).
		Int("animeID", animeID).
		Int64("groupID", groupID).
		Msg("Subscription created")
	return detail, nil
}

// Unsubscribe deletes the subscription matching (user, anime) and removes
// its trigger. ErrNotFound when no such subscription exists.
func (m *Manager) Unsubscribe(ctx context.Context, userID int64, animeID int) error {
	sub, err := m.store.FindSubscription(ctx, userID, animeID)
	if err != nil {
		return fmt.Errorf("failed to look up subscription: %w", err)
	}
	if sub == nil {
		return ErrNotFound
	}

	if err := m.store.DeleteSubscription(ctx, sub.ID); err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	m.scheduler.Remove(notify.Key{
		AnimeID: animeID,
		GroupID: sub.GroupID,
		UserID:  userID,
	})

	log.Info().
		Int64("userID", userID).
		Int("animeID", animeID).
		Msg("Subscription removed")
	return nil
}

// ListSubscriptions returns the user's subscriptions joined with details.
// An empty list is a valid, non-error result.
func (m *Manager) ListSubscriptions(ctx context.Context, userID int64) ([]*store.SubscribedAnime, error) {
	rows, err := m.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return rows, nil
}

// RestoreJobs rebuilds the scheduler's whole job set from the persisted
// subscriptions joined with their broadcast slots. Called at startup; the
// job set is a derived cache with no independent durability.
func (m *Manager) RestoreJobs(ctx context.Context) error {
	rows, err := m.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load subscriptions: %w", err)
	}

	var jobs []notify.Job
	for _, row := range rows {
		if row.Detail == nil {
			log.Warn().
				Int("animeID", row.Subscription.AnimeID).
				Msg("Subscription has no catalog detail, skipping job")
			continue
		}
		day, hour, minute, ok := row.Detail.Broadcast().Slot()
		if !ok {
			continue
		}
		jobs = append(jobs, notify.Job{
			AnimeID: row.Subscription.AnimeID,
			GroupID: row.Subscription.GroupID,
			UserID:  row.Subscription.UserID,
			Day:     day,
			Hour:    hour,
			Minute:  minute,
		})
	}

	m.scheduler.Rebuild(jobs)
	log.Info().Int("jobs", len(jobs)).Msg("Notification jobs restored from store")
	return nil
}

// ensureDetail returns the catalog detail for an id, fetching and inserting
// it on-demand when absent. Remote failures are caught here and reported as
// structured errors, unlike the bulk sync path.
func (m *Manager) ensureDetail(ctx context.Context, animeID int) (*model.AnimeDetail, error) {
	detail, err := m.store.GetDetail(ctx, animeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get detail: %w", err)
	}
	if detail != nil {
		return detail, nil
	}

	fetched, err := m.api.GetAnimeDetail(ctx, animeID)
	if err != nil {
		var apiErr *mal.APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int("animeID", animeID).Msg("On-demand detail fetch failed")
		return nil, fmt.Errorf("remote fetch failed: %w", err)
	}

	rec := fetched.Record()
	if err := m.store.SaveDetail(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save fetched detail: %w", err)
	}
	return rec, nil
}
