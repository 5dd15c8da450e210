package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"videobot"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"PORT" envDefault:"3000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	VideosDir       string        `env:"VIDEOS_DIR" envDefault:"videos"`
	VideosURLPrefix string        `env:"VIDEOS_URL_PREFIX" envDefault:"/videos"`
	VideoExtensions []string      `env:"VIDEO_EXTENSIONS" envDefault:".mp4,.avi,.mov" envSeparator:","`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"30s"`
	WatchDir        bool          `env:"WATCH_DIR" envDefault:"false"`
	CreateVideosDir bool          `env:"CREATE_VIDEOS_DIR" envDefault:"true"`

	// KeepCatalogOnMissingDir preserves the last known catalog when the
	// videos directory disappears instead of emptying it.
	KeepCatalogOnMissingDir bool `env:"KEEP_CATALOG_ON_MISSING_DIR" envDefault:"false"`

	PublicDir string `env:"PUBLIC_DIR" envDefault:"public"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	WebAppURL        string `env:"WEB_APP_URL"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env config: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize trims and validates fields; it must be called again after
// overriding fields by hand.
func (c *Config) Normalize() error {
	c.VideosDir = strings.TrimSpace(c.VideosDir)
	c.VideosURLPrefix = strings.TrimRight(strings.TrimSpace(c.VideosURLPrefix), "/")
	c.TelegramBotToken = strings.TrimSpace(c.TelegramBotToken)
	c.WebAppURL = strings.TrimSpace(c.WebAppURL)
	c.VideoExtensions = NormalizeExtensions(c.VideoExtensions)

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}
	if c.VideosDir == "" {
		return fmt.Errorf("VIDEOS_DIR must not be empty")
	}
	if !strings.HasPrefix(c.VideosURLPrefix, "/") {
		return fmt.Errorf("VIDEOS_URL_PREFIX must start with / and not be the root, got %q", c.VideosURLPrefix)
	}
	if len(c.VideoExtensions) == 0 {
		return fmt.Errorf("VIDEO_EXTENSIONS must list at least one extension")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.RefreshInterval)
	}
	return nil
}

// NormalizeExtensions lowercases, adds the leading dot and drops empty or
// duplicate entries while keeping the input order.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func (c *Config) BotEnabled() bool {
	return c.TelegramBotToken != ""
}
