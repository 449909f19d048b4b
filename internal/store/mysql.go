package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/anime-notify-bot/internal/config"
	"github.com/user/anime-notify-bot/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// MySQLStore implements Store interface using MySQL database
type MySQLStore struct {
	db *gorm.DB
}

// NewMySQLStore creates a new MySQL store instance
func NewMySQLStore(cfg *config.DBConfig) (*MySQLStore, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Create tables if absent
	if err := db.AutoMigrate(
		&model.AnimeSummary{},
		&model.AnimeDetail{},
		&model.User{},
		&model.Subscription{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &MySQLStore{db: db}, nil
}

// SaveSummaries inserts seasonal stubs in batch. Ids already present are
// left untouched (first-write-wins).
func (s *MySQLStore) SaveSummaries(ctx context.Context, summaries []*model.AnimeSummary) (int, error) {
	if len(summaries) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).CreateInBatches(summaries, 100)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to save summaries: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// ListSeasons returns the distinct season tags among stored summaries.
func (s *MySQLStore) ListSeasons(ctx context.Context) ([]model.Season, error) {
	var rows []struct {
		SeasonYear int
		SeasonName string
	}
	result := s.db.WithContext(ctx).
		Model(&model.AnimeSummary{}).
		Distinct("season_year", "season_name").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list seasons: %w", result.Error)
	}

	seasons := make([]model.Season, 0, len(rows))
	for _, row := range rows {
		seasons = append(seasons, model.Season{Year: row.SeasonYear, Name: row.SeasonName})
	}
	return seasons, nil
}

// SaveDetail inserts a detail record if its id is absent.
func (s *MySQLStore) SaveDetail(ctx context.Context, detail *model.AnimeDetail) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(detail)

	if result.Error != nil {
		return fmt.Errorf("failed to save detail: %w", result.Error)
	}
	return nil
}

// GetDetail retrieves a detail record by anime id
func (s *MySQLStore) GetDetail(ctx context.Context, animeID int) (*model.AnimeDetail, error) {
	var detail model.AnimeDetail
	result := s.db.WithContext(ctx).Where("id = ?", animeID).First(&detail)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get detail: %w", result.Error)
	}
	return &detail, nil
}

// ListDetails returns every stored detail record
func (s *MySQLStore) ListDetails(ctx context.Context) ([]*model.AnimeDetail, error) {
	var details []*model.AnimeDetail
	result := s.db.WithContext(ctx).Find(&details)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list details: %w", result.Error)
	}
	return details, nil
}

// ListDetailIDs returns the ids of every stored detail record
func (s *MySQLStore) ListDetailIDs(ctx context.Context) ([]int, error) {
	var ids []int
	result := s.db.WithContext(ctx).
		Model(&model.AnimeDetail{}).
		Pluck("id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list detail ids: %w", result.Error)
	}
	return ids, nil
}

// CountSummaries returns the total count of summary stubs
func (s *MySQLStore) CountSummaries(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.AnimeSummary{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count summaries: %w", result.Error)
	}
	return count, nil
}

// CountDetails returns the total count of detail records
func (s *MySQLStore) CountDetails(ctx context.Context) (int64, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&model.AnimeDetail{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count details: %w", result.Error)
	}
	return count, nil
}

// EnsureUser creates the user row if it does not exist
func (s *MySQLStore) EnsureUser(ctx context.Context, userID int64) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.User{UserID: userID})

	if result.Error != nil {
		return fmt.Errorf("failed to ensure user: %w", result.Error)
	}
	return nil
}

// CreateSubscription inserts a subscription row
func (s *MySQLStore) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// FindSubscription returns the first subscription matching (user, anime)
func (s *MySQLStore) FindSubscription(ctx context.Context, userID int64, animeID int) (*model.Subscription, error) {
	var sub model.Subscription
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND anime_id = ?", userID, animeID).
		First(&sub)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find subscription: %w", result.Error)
	}
	return &sub, nil
}

// DeleteSubscription removes one subscription row by identity
func (s *MySQLStore) DeleteSubscription(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&model.Subscription{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete subscription: %w", result.Error)
	}
	return nil
}

// ListByUser returns a user's subscriptions joined with their details
func (s *MySQLStore) ListByUser(ctx context.Context, userID int64) ([]*SubscribedAnime, error) {
	var subs []*model.Subscription
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&subs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", result.Error)
	}
	return s.joinDetails(ctx, subs)
}

// ListAll returns every subscription joined with its detail
func (s *MySQLStore) ListAll(ctx context.Context) ([]*SubscribedAnime, error) {
	var subs []*model.Subscription
	result := s.db.WithContext(ctx).Find(&subs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list all subscriptions: %w", result.Error)
	}
	return s.joinDetails(ctx, subs)
}

// joinDetails resolves the subscription→detail relation in one IN query.
func (s *MySQLStore) joinDetails(ctx context.Context, subs []*model.Subscription) ([]*SubscribedAnime, error) {
	if len(subs) == 0 {
		return []*SubscribedAnime{}, nil
	}

	ids := make([]int, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.AnimeID)
	}

	var details []*model.AnimeDetail
	result := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&details)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load details for subscriptions: %w", result.Error)
	}

	byID := make(map[int]*model.AnimeDetail, len(details))
	for _, d := range details {
		byID[d.ID] = d
	}

	joined := make([]*SubscribedAnime, 0, len(subs))
	for _, sub := range subs {
		joined = append(joined, &SubscribedAnime{
			Subscription: sub,
			Detail:       byID[sub.AnimeID],
		})
	}
	return joined, nil
}

// Ping checks database connectivity
func (s *MySQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db: %w", err)
	}
	return sqlDB.Close()
}

// DB returns the underlying gorm.DB instance (for testing purposes)
func (s *MySQLStore) DB() *gorm.DB {
	return s.db
}
