package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Bot    BotConfig
	DB     DBConfig
	MAL    MALConfig
	Jikan  JikanConfig
	Search SearchConfig
	Sync   SyncConfig
	Server ServerConfig
}

// BotConfig holds Telegram bot configuration
type BotConfig struct {
	Token    string `envconfig:"BOT_TOKEN" required:"true"`
	Username string `envconfig:"BOT_USERNAME" default:"AnimeNotifyBot"`
}

// DBConfig holds database configuration
type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	Database string `envconfig:"DB_NAME" default:"anime_notify_bot"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"10"`
}

// MALConfig holds MyAnimeList API client configuration
type MALConfig struct {
	ClientID  string        `envconfig:"MAL_CLIENT_ID" required:"true"`
	BaseURL   string        `envconfig:"MAL_BASE_URL" default:"https://api.myanimelist.net/v2"`
	RateLimit float64       `envconfig:"MAL_RATE_LIMIT" default:"1"`
	Timeout   time.Duration `envconfig:"MAL_TIMEOUT" default:"30s"`
}

// JikanConfig holds Jikan API client configuration
type JikanConfig struct {
	BaseURL string        `envconfig:"JIKAN_BASE_URL" default:"https://api.jikan.moe/v4"`
	Timeout time.Duration `envconfig:"JIKAN_TIMEOUT" default:"30s"`
}

// SearchConfig selects the fuzzy-search variant for free-text queries
type SearchConfig struct {
	// Provider is "local" (ratio match over cached alternative titles)
	// or "jikan" (remote search API)
	Provider string `envconfig:"SEARCH_PROVIDER" default:"local"`
	Limit    int    `envconfig:"SEARCH_LIMIT" default:"3"`
}

// SyncConfig holds catalog sync configuration
type SyncConfig struct {
	Enabled      bool          `envconfig:"SYNC_ENABLED" default:"true"`
	Cron         string        `envconfig:"SYNC_CRON" default:"@daily"`
	InitialDelay time.Duration `envconfig:"SYNC_INITIAL_DELAY" default:"5s"`
	HorizonDays  int           `envconfig:"SYNC_HORIZON_DAYS" default:"90"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

// DSN returns the MySQL data source name
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg.Bot); err != nil {
		return nil, fmt.Errorf("failed to load bot config: %w", err)
	}

	if err := envconfig.Process("", &cfg.DB); err != nil {
		return nil, fmt.Errorf("failed to load db config: %w", err)
	}

	if err := envconfig.Process("", &cfg.MAL); err != nil {
		return nil, fmt.Errorf("failed to load mal config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Jikan); err != nil {
		return nil, fmt.Errorf("failed to load jikan config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Search); err != nil {
		return nil, fmt.Errorf("failed to load search config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Sync); err != nil {
		return nil, fmt.Errorf("failed to load sync config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.DB.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.MAL.ClientID == "" {
		return fmt.Errorf("MAL_CLIENT_ID is required")
	}
	if c.MAL.RateLimit <= 0 {
		return fmt.Errorf("MAL_RATE_LIMIT must be positive")
	}
	if c.Search.Provider != "local" && c.Search.Provider != "jikan" {
		return fmt.Errorf("SEARCH_PROVIDER must be \"local\" or \"jikan\"")
	}
	if c.Search.Limit <= 0 {
		return fmt.Errorf("SEARCH_LIMIT must be positive")
	}
	if c.Sync.HorizonDays <= 0 {
		return fmt.Errorf("SYNC_HORIZON_DAYS must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	return nil
}
