package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/user/anime-notify-bot/internal/config"
	"github.com/user/anime-notify-bot/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestStore creates a store against a real MySQL database, skipping the
// test when none is reachable.
func setupTestStore(t *testing.T) (*MySQLStore, func()) {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		host = "localhost"
	}
	user := os.Getenv("TEST_DB_USER")
	if user == "" {
		user = "root"
	}
	password := os.Getenv("TEST_DB_PASSWORD")
	if password == "" {
		password = "root"
	}
	database := os.Getenv("TEST_DB_NAME")
	if database == "" {
		database = "anime_notify_bot_test"
	}

	cfg := &config.DBConfig{
		Host:     host,
		Port:     3306,
		User:     user,
		Password: password,
		Database: database,
		MaxConns: 5,
	}

	// First connect without database to create it if needed
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("Skipping test: cannot connect to MySQL: %v", err)
	}

	db.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database))

	sqlDB, _ := db.DB()
	sqlDB.Close()

	store, err := NewMySQLStore(cfg)
	if err != nil {
		t.Skipf("Skipping test: cannot create store: %v", err)
	}

	cleanup := func() {
		store.db.Exec("DELETE FROM subscriptions")
		store.db.Exec("DELETE FROM users")
		store.db.Exec("DELETE FROM anime_details")
		store.db.Exec("DELETE FROM anime_summaries")
		store.Close()
	}

	return store, cleanup
}

func testSummary(id int, season model.Season) *model.AnimeSummary {
	return &model.AnimeSummary{
		ID:         id,
		Node:       []byte(fmt.Sprintf(`{"id":%d,"title":"anime %d"}`, id, id)),
		SeasonYear: season.Year,
		SeasonName: season.Name,
		LastSync:   time.Now(),
	}
}

func testDetail(id int, title string) *model.AnimeDetail {
	return &model.AnimeDetail{
		ID:            id,
		Title:         title,
		Status:        "currently_airing",
		MediaType:     "tv",
		SeasonYear:    2024,
		SeasonName:    model.SeasonWinter,
		BroadcastDay:  "friday",
		BroadcastTime: "23:00",
	}
}

// Re-inserting the same summary id any number of times leaves exactly one row
// and reports zero additional saves.
func TestProperty_SummaryFirstWriteWins(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("saving a summary repeatedly keeps one row", prop.ForAll(
		func(id int, saveCount int) bool {
			ctx := context.Background()

			store.db.Where("id = ?", id).Delete(&model.AnimeSummary{})

			season := model.Season{Year: 2024, Name: model.SeasonWinter}
			saved, err := store.SaveSummaries(ctx, []*model.AnimeSummary{testSummary(id, season)})
			if err != nil || saved != 1 {
				return false
			}

			for i := 0; i < saveCount; i++ {
				saved, err = store.SaveSummaries(ctx, []*model.AnimeSummary{testSummary(id, season)})
				if err != nil || saved != 0 {
					return false
				}
			}

			var count int64
			store.db.Model(&model.AnimeSummary{}).Where("id = ?", id).Count(&count)

			store.db.Where("id = ?", id).Delete(&model.AnimeSummary{})

			return count == 1
		},
		gen.IntRange(1, 1_000_000),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}

func TestSaveDetailFirstWriteWins(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	original := testDetail(52991, "original title")
	if err := store.SaveDetail(ctx, original); err != nil {
		t.Fatalf("SaveDetail() error: %v", err)
	}

	// A second insert for the same id is silently ignored.
	if err := store.SaveDetail(ctx, testDetail(52991, "replacement title")); err != nil {
		t.Fatalf("second SaveDetail() error: %v", err)
	}

	got, err := store.GetDetail(ctx, 52991)
	if err != nil {
		t.Fatalf("GetDetail() error: %v", err)
	}
	if got == nil || got.Title != "original title" {
		t.Errorf("GetDetail() = %+v, want original title", got)
	}
}

func TestGetDetailAbsent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	got, err := store.GetDetail(context.Background(), 999999999)
	if err != nil {
		t.Fatalf("GetDetail() error: %v", err)
	}
	if got != nil {
		t.Errorf("GetDetail() = %+v, want nil for unknown id", got)
	}
}

func TestListSeasonsDistinct(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	winter := model.Season{Year: 2024, Name: model.SeasonWinter}
	spring := model.Season{Year: 2024, Name: model.SeasonSpring}
	_, err := store.SaveSummaries(ctx, []*model.AnimeSummary{
		testSummary(1, winter),
		testSummary(2, winter),
		testSummary(3, spring),
	})
	if err != nil {
		t.Fatalf("SaveSummaries() error: %v", err)
	}

	seasons, err := store.ListSeasons(ctx)
	if err != nil {
		t.Fatalf("ListSeasons() error: %v", err)
	}

	seen := make(map[model.Season]bool)
	for _, s := range seasons {
		seen[s] = true
	}
	if !seen[winter] || !seen[spring] {
		t.Errorf("ListSeasons() = %v, want winter and spring 2024", seasons)
	}
	if len(seasons) != 2 {
		t.Errorf("ListSeasons() returned %d seasons, want 2 distinct", len(seasons))
	}
}

func TestEnsureUserIdempotent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.EnsureUser(ctx, 424242); err != nil {
			t.Fatalf("EnsureUser() call %d error: %v", i, err)
		}
	}

	var count int64
	store.db.Model(&model.User{}).Where("user_id = ?", 424242).Count(&count)
	if count != 1 {
		t.Errorf("user rows = %d, want 1", count)
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.EnsureUser(ctx, 7); err != nil {
		t.Fatalf("EnsureUser() error: %v", err)
	}

	sub := &model.Subscription{UserID: 7, AnimeID: 52991, GroupID: -100}
	if err := store.CreateSubscription(ctx, sub); err != nil {
		t.Fatalf("CreateSubscription() error: %v", err)
	}
	if sub.ID == 0 {
		t.Fatal("subscription id was not assigned")
	}

	found, err := store.FindSubscription(ctx, 7, 52991)
	if err != nil {
		t.Fatalf("FindSubscription() error: %v", err)
	}
	if found == nil || found.ID != sub.ID || found.GroupID != -100 {
		t.Errorf("FindSubscription() = %+v", found)
	}

	if err := store.DeleteSubscription(ctx, sub.ID); err != nil {
		t.Fatalf("DeleteSubscription() error: %v", err)
	}

	found, err = store.FindSubscription(ctx, 7, 52991)
	if err != nil {
		t.Fatalf("FindSubscription() after delete error: %v", err)
	}
	if found != nil {
		t.Errorf("FindSubscription() after delete = %+v, want nil", found)
	}
}

func TestListByUserJoinsDetails(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.SaveDetail(ctx, testDetail(52991, "Sousou no Frieren")); err != nil {
		t.Fatalf("SaveDetail() error: %v", err)
	}
	if err := store.EnsureUser(ctx, 7); err != nil {
		t.Fatalf("EnsureUser() error: %v", err)
	}

	// One subscription with a catalog detail, one without.
	subs := []*model.Subscription{
		{UserID: 7, AnimeID: 52991, GroupID: -100},
		{UserID: 7, AnimeID: 888888, GroupID: -100},
	}
	for _, sub := range subs {
		if err := store.CreateSubscription(ctx, sub); err != nil {
			t.Fatalf("CreateSubscription() error: %v", err)
		}
	}

	rows, err := store.ListByUser(ctx, 7)
	if err != nil {
		t.Fatalf("ListByUser() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ListByUser() rows = %d, want 2", len(rows))
	}

	byAnime := make(map[int]*SubscribedAnime)
	for _, row := range rows {
		byAnime[row.Subscription.AnimeID] = row
	}
	if byAnime[52991] == nil || byAnime[52991].Detail == nil || byAnime[52991].Detail.Title != "Sousou no Frieren" {
		t.Errorf("joined row for 52991 = %+v", byAnime[52991])
	}
	if byAnime[888888] == nil || byAnime[888888].Detail != nil {
		t.Errorf("row for uncataloged id should have nil detail, got %+v", byAnime[888888])
	}

	other, err := store.ListByUser(ctx, 99)
	if err != nil {
		t.Fatalf("ListByUser(99) error: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("ListByUser(99) rows = %d, want 0", len(other))
	}
}

func TestListAllForRestore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.SaveDetail(ctx, testDetail(1, "A")); err != nil {
		t.Fatalf("SaveDetail() error: %v", err)
	}
	for _, userID := range []int64{7, 8} {
		if err := store.EnsureUser(ctx, userID); err != nil {
			t.Fatalf("EnsureUser() error: %v", err)
		}
		sub := &model.Subscription{UserID: userID, AnimeID: 1, GroupID: -100}
		if err := store.CreateSubscription(ctx, sub); err != nil {
			t.Fatalf("CreateSubscription() error: %v", err)
		}
	}

	rows, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ListAll() rows = %d, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Detail == nil || row.Detail.ID != 1 {
			t.Errorf("joined detail = %+v", row.Detail)
		}
	}
}
