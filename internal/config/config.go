package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override credentials from the config file
const (
	EnvConsumerKey    = "XSWEEP_CONSUMER_KEY"
	EnvConsumerSecret = "XSWEEP_CONSUMER_SECRET"
	EnvAccessToken    = "XSWEEP_ACCESS_TOKEN"
	EnvAccessSecret   = "XSWEEP_ACCESS_SECRET"
	EnvLogLevel       = "XSWEEP_LOG_LEVEL"
)

// MaxPageSize is the largest page the user timeline endpoint returns
const MaxPageSize = 100

// Config holds all application configuration
type Config struct {
	Version  int            `toml:"version"`
	API      APIConfig      `toml:"api"`
	Preserve PreserveConfig `toml:"preserve"`
	Cleanup  CleanupConfig  `toml:"cleanup"`
	Schedule ScheduleConfig `toml:"schedule"`
	Log      LogConfig      `toml:"log"`
}

type APIConfig struct {
	BaseURL          string   `toml:"base_url"`
	ConsumerKey      string   `toml:"consumer_key"`
	ConsumerSecret   string   `toml:"consumer_secret"`
	RateLimitRetries int      `toml:"rate_limit_retries"`
	MaxRateLimitWait Duration `toml:"max_rate_limit_wait"`
	RequestTimeout   Duration `toml:"request_timeout"`
}

type PreserveConfig struct {
	// Usernames without the leading @
	Usernames []string `toml:"usernames"`
}

type CleanupConfig struct {
	DryRun      bool     `toml:"dry_run"`
	DeleteDelay Duration `toml:"delete_delay"`
	MaxPosts    int      `toml:"max_posts"`
	PageSize    int      `toml:"page_size"`
	PageDelay   Duration `toml:"page_delay"`
}

type ScheduleConfig struct {
	Cron       string `toml:"cron"`
	Timezone   string `toml:"timezone"`
	Unattended bool   `toml:"unattended"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration that reads and writes as "1s", "500ms", ...
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		API: APIConfig{
			BaseURL:          "https://api.x.com/2",
			RateLimitRetries: 3,
			MaxRateLimitWait: Duration{15 * time.Minute},
			RequestTimeout:   Duration{30 * time.Second},
		},
		Preserve: PreserveConfig{
			Usernames: []string{},
		},
		Cleanup: CleanupConfig{
			DryRun:      true,
			DeleteDelay: Duration{time.Second},
			MaxPosts:    0,
			PageSize:    MaxPageSize,
			PageDelay:   Duration{500 * time.Millisecond},
		},
		Schedule: ScheduleConfig{
			Cron:     "0 3 * * *",
			Timezone: "Local",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Normalize clamps values the API would reject and fills zero values
func (c *Config) Normalize() {
	d := Default()
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.RateLimitRetries < 0 {
		c.API.RateLimitRetries = 0
	}
	if c.API.RequestTimeout.Duration <= 0 {
		c.API.RequestTimeout = d.API.RequestTimeout
	}
	if c.Cleanup.PageSize <= 0 || c.Cleanup.PageSize > MaxPageSize {
		c.Cleanup.PageSize = MaxPageSize
	}
	if c.Cleanup.MaxPosts < 0 {
		c.Cleanup.MaxPosts = 0
	}
	if c.Cleanup.DeleteDelay.Duration < 0 {
		c.Cleanup.DeleteDelay.Duration = 0
	}
	if c.Cleanup.PageDelay.Duration < 0 {
		c.Cleanup.PageDelay.Duration = 0
	}
}

// Credentials returns the OAuth1 consumer key and secret, preferring the
// environment (and a .env file in the working directory) over the config file.
func (c *Config) Credentials() (key, secret string) {
	_ = godotenv.Load()

	key = os.Getenv(EnvConsumerKey)
	if key == "" {
		key = c.API.ConsumerKey
	}
	secret = os.Getenv(EnvConsumerSecret)
	if secret == "" {
		secret = c.API.ConsumerSecret
	}
	return key, secret
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "xsweep"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from the default location
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Keys missing from the file keep their
// default values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes config to the default location
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
