package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Postgres struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"5432"`
		Database string `yaml:"database" default:"whalewatch"`
		User     string `yaml:"user" default:"postgres"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"ssl_mode" default:"disable"`
		MinConns int    `yaml:"min_conns" default:"2"`
		MaxConns int    `yaml:"max_conns" default:"10"`
	} `yaml:"postgres"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"whalewatch"`
	} `yaml:"redis"`
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Polymarket struct {
		DataAPIURL  string        `yaml:"data_api_url" default:"https://data-api.polymarket.com"`
		GammaAPIURL string        `yaml:"gamma_api_url" default:"https://gamma-api.polymarket.com"`
		Timeout     time.Duration `yaml:"timeout" default:"15s"`
	} `yaml:"polymarket"`
	Ingest struct {
		PageSize     int           `yaml:"page_size" default:"500"`
		MaxPages     int           `yaml:"max_pages" default:"10"`
		MinTradeSize float64       `yaml:"min_trade_size" default:"1000"`
		TakerOnly    bool          `yaml:"taker_only" default:"true"`
		Interval     time.Duration `yaml:"interval" default:"5m"`
	} `yaml:"ingest"`
	Alerts struct {
		RankCutoff             int           `yaml:"rank_cutoff" default:"50"`
		MinROI                 float64       `yaml:"min_roi" default:"0.2"`
		MinPnL                 float64       `yaml:"min_pnl" default:"10000"`
		MinMedianBet           float64       `yaml:"min_median_bet" default:"500"`
		MinCopyAmount          float64       `yaml:"min_copy_amount" default:"2000"`
		CooldownHours          int           `yaml:"cooldown_hours" default:"6"`
		StalenessHours         int           `yaml:"staleness_hours" default:"24"`
		HourlyLimit            int           `yaml:"hourly_limit" default:"10"`
		IsolatedMinSize        float64       `yaml:"isolated_min_size" default:"5000"`
		IsolatedMinSizeExtreme float64       `yaml:"isolated_min_size_extreme" default:"15000"`
		IsolatedExtremeLow     float64       `yaml:"isolated_extreme_low" default:"0.10"`
		IsolatedExtremeHigh    float64       `yaml:"isolated_extreme_high" default:"0.90"`
		ExcludePriceLow        float64       `yaml:"exclude_price_low" default:"0.05"`
		ExcludePriceHigh       float64       `yaml:"exclude_price_high" default:"0.95"`
		TraderTradeWindow      time.Duration `yaml:"trader_trade_window" default:"168h"`
	} `yaml:"alerts"`
	Resolution struct {
		RecheckHours   int           `yaml:"recheck_hours" default:"6"`
		LookbackDays   int           `yaml:"lookback_days" default:"3"`
		BatchSize      int           `yaml:"batch_size" default:"5"`
		BatchPause     time.Duration `yaml:"batch_pause" default:"500ms"`
		CandidateLimit int           `yaml:"candidate_limit" default:"200"`
		Interval       time.Duration `yaml:"interval" default:"30m"`
		Mode           string        `yaml:"mode" default:"due"`
		LeaguePrefixes []string      `yaml:"league_prefixes"`
	} `yaml:"resolution"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if len(c.Resolution.LeaguePrefixes) == 0 {
		c.Resolution.LeaguePrefixes = []string{"nba", "nfl", "mlb", "nhl", "epl", "ucl", "laliga", "cfb"}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		c.Postgres.Host = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		c.Postgres.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("RESOLUTION_MODE"); v != "" {
		c.Resolution.Mode = v
	}
	if v := os.Getenv("LEAGUE_PREFIXES"); v != "" {
		c.Resolution.LeaguePrefixes = strings.Split(v, ",")
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Postgres.Database == "" {
		return fmt.Errorf("postgres.database is required")
	}
	if c.Ingest.PageSize <= 0 {
		return fmt.Errorf("ingest.page_size must be positive")
	}
	if c.Ingest.MaxPages <= 0 {
		return fmt.Errorf("ingest.max_pages must be positive")
	}
	if c.Alerts.HourlyLimit <= 0 {
		return fmt.Errorf("alerts.hourly_limit must be positive")
	}
	if c.Alerts.ExcludePriceLow >= c.Alerts.ExcludePriceHigh {
		return fmt.Errorf("alerts.exclude_price_low must be below exclude_price_high")
	}
	if c.Resolution.BatchSize <= 0 {
		return fmt.Errorf("resolution.batch_size must be positive")
	}
	switch c.Resolution.Mode {
	case "recent", "due", "all", "events_recent":
	default:
		return fmt.Errorf("resolution.mode must be one of recent, due, all, events_recent, got %q", c.Resolution.Mode)
	}
	return nil
}
