package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// BrowserConfig controls the stealth browser session.
type BrowserConfig struct {
	// Visible opens a real window; headless mode is the inverse of this.
	Visible      bool   `mapstructure:"visible"`
	StealthLevel string `mapstructure:"stealth_level"`
	Bin          string `mapstructure:"bin"`
}

type TimingConfig struct {
	MinDelayMs int `mapstructure:"min_delay_ms"`
	// MaxDelayMs controls the upper bound for human-like pacing between actions.
	MaxDelayMs int `mapstructure:"max_delay_ms"`
}

// ScraperConfig controls discovery volume and keyword batching.
type ScraperConfig struct {
	Keywords            []string `mapstructure:"keywords"`
	MaxVideosPerKeyword int      `mapstructure:"max_videos_per_keyword"`
	MinVideosRequired   int      `mapstructure:"min_videos_required"`
	ConcurrentKeywords  int      `mapstructure:"concurrent_keywords"`
	DiscoveryMethods    []string `mapstructure:"discovery_methods"`
}

// TrendingConfig controls which videos survive the trending filter.
type TrendingConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	MinViews          int     `mapstructure:"min_views"`
	MinEngagementRate float64 `mapstructure:"min_engagement_rate"`
	SortByPerformance bool    `mapstructure:"sort_by_performance"`
	MaxTotalVideos    int     `mapstructure:"max_total_videos"`
}

type OutputConfig struct {
	Formats []string `mapstructure:"formats"`
	Dir     string   `mapstructure:"dir"`
}

// SheetsConfig holds Google Sheets export settings (OAuth installed-app flow).
type SheetsConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	Range           string `mapstructure:"range"`
}

// ScheduleConfig controls the in-process cron scheduler.
type ScheduleConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Interval string   `mapstructure:"interval"` // hourly, daily, weekly, custom
	Hour     int      `mapstructure:"hour"`
	Minute   int      `mapstructure:"minute"`
	Days     []string `mapstructure:"days"`
	CronExpr string   `mapstructure:"cron_expr"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type Config struct {
	Browser  BrowserConfig  `mapstructure:"browser"`
	Timing   TimingConfig   `mapstructure:"timing"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Trending TrendingConfig `mapstructure:"trending"`
	Output   OutputConfig   `mapstructure:"output"`
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("browser.visible", false)
	v.SetDefault("browser.stealth_level", "high")
	v.SetDefault("browser.bin", "")

	v.SetDefault("timing.min_delay_ms", 750)
	v.SetDefault("timing.max_delay_ms", 2250)

	v.SetDefault("scraper.keywords", []string{
		"budgeting",
		"personal finance",
		"passive income",
		"side hustle",
	})
	v.SetDefault("scraper.max_videos_per_keyword", 50)
	v.SetDefault("scraper.min_videos_required", 5)
	v.SetDefault("scraper.concurrent_keywords", 2)
	v.SetDefault("scraper.discovery_methods", []string{"search", "hashtag", "explore"})

	v.SetDefault("trending.enabled", true)
	v.SetDefault("trending.min_views", 10000)
	v.SetDefault("trending.min_engagement_rate", 0.05)
	v.SetDefault("trending.sort_by_performance", true)
	v.SetDefault("trending.max_total_videos", 100)

	v.SetDefault("output.formats", []string{"json", "csv"})
	v.SetDefault("output.dir", "data")

	v.SetDefault("sheets.enabled", false)
	v.SetDefault("sheets.credentials_file", "client_secret.json")
	v.SetDefault("sheets.token_file", "token.json")
	v.SetDefault("sheets.range", "A1:Z1000")

	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.interval", "daily")
	v.SetDefault("schedule.hour", 3)
	v.SetDefault("schedule.minute", 0)
	v.SetDefault("schedule.days", []string{"monday", "wednesday", "friday"})
	v.SetDefault("schedule.cron_expr", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "scraper.log")
}

var validLevels = map[string]bool{"low": true, "medium": true, "high": true}

func (c *Config) validate() error {
	c.Browser.StealthLevel = strings.ToLower(c.Browser.StealthLevel)
	if !validLevels[c.Browser.StealthLevel] {
		return fmt.Errorf("browser.stealth_level must be low, medium or high, got %q", c.Browser.StealthLevel)
	}
	if len(c.Scraper.Keywords) == 0 {
		return fmt.Errorf("scraper.keywords must include at least one value")
	}
	if c.Scraper.MaxVideosPerKeyword <= 0 {
		return fmt.Errorf("scraper.max_videos_per_keyword must be positive")
	}
	if c.Scraper.ConcurrentKeywords <= 0 {
		c.Scraper.ConcurrentKeywords = 1
	}
	if c.Timing.MinDelayMs <= 0 || c.Timing.MaxDelayMs <= 0 {
		return fmt.Errorf("timing delays must be positive")
	}
	if c.Timing.MaxDelayMs < c.Timing.MinDelayMs {
		return fmt.Errorf("timing.max_delay_ms must be >= min_delay_ms")
	}
	if c.Trending.MinViews < 0 || c.Trending.MinEngagementRate < 0 {
		return fmt.Errorf("trending thresholds must not be negative")
	}
	for _, f := range c.Output.Formats {
		switch f {
		case "json", "csv", "google_sheets":
		default:
			return fmt.Errorf("unknown output format %q", f)
		}
	}
	if c.Sheets.Enabled && c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("sheets.spreadsheet_id is required when sheets.enabled is true")
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)

	return nil
}
