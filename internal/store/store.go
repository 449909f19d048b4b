package store

import (
	"context"

	"github.com/user/anime-notify-bot/internal/model"
)

// SubscribedAnime is a subscription row joined with its catalog detail.
// Detail is nil when the catalog has no record for the subscribed id.
type SubscribedAnime struct {
	Subscription *model.Subscription
	Detail       *model.AnimeDetail
}

// CatalogStore persists anime metadata. All inserts are first-write-wins:
// inserting an id that already exists changes nothing and is not an error.
type CatalogStore interface {
	// SaveSummaries inserts seasonal stubs, skipping ids already present.
	// Returns the number of rows actually inserted.
	SaveSummaries(ctx context.Context, summaries []*model.AnimeSummary) (saved int, err error)

	// ListSeasons returns the distinct (year, season) tags present among
	// the stored summaries.
	ListSeasons(ctx context.Context) ([]model.Season, error)

	// SaveDetail inserts a detail record if its id is absent.
	SaveDetail(ctx context.Context, detail *model.AnimeDetail) error

	// GetDetail returns the detail for an id, or nil when unknown.
	GetDetail(ctx context.Context, animeID int) (*model.AnimeDetail, error)

	// ListDetails returns every stored detail record.
	ListDetails(ctx context.Context) ([]*model.AnimeDetail, error)

	// ListDetailIDs returns the ids of every stored detail record.
	ListDetailIDs(ctx context.Context) ([]int, error)

	// CountSummaries and CountDetails report catalog sizes.
	CountSummaries(ctx context.Context) (int64, error)
	CountDetails(ctx context.Context) (int64, error)
}

// SubscriptionStore persists user/subscription linkage.
type SubscriptionStore interface {
	// EnsureUser creates the user row if it does not exist.
	EnsureUser(ctx context.Context, userID int64) error

	// CreateSubscription inserts a subscription row. Duplicate
	// (user, anime) pairs are not guarded against.
	CreateSubscription(ctx context.Context, sub *model.Subscription) error

	// FindSubscription returns the first subscription matching
	// (user, anime), or nil when none exists.
	FindSubscription(ctx context.Context, userID int64, animeID int) (*model.Subscription, error)

	// DeleteSubscription removes one subscription row by identity.
	DeleteSubscription(ctx context.Context, id uint) error

	// ListByUser returns a user's subscriptions joined with their details.
	ListByUser(ctx context.Context, userID int64) ([]*SubscribedAnime, error)

	// ListAll returns every subscription joined with its detail, used to
	// rebuild the scheduler's job set at startup.
	ListAll(ctx context.Context) ([]*SubscribedAnime, error)
}

// Store defines the interface for data persistence operations
type Store interface {
	CatalogStore
	SubscriptionStore

	// Health check
	Ping(ctx context.Context) error
	Close() error
}
