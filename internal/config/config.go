package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type TelegramConfig struct {
	Token string `yaml:"token"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // trace|debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

type JournalConfig struct {
	Path  string `yaml:"path"`
	Limit int    `yaml:"limit"` // entries kept per user, <= 0 keeps everything
}

// Config holds everything the bot needs at start up. It is built once in
// main and handed to constructors.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Log      LogConfig      `yaml:"log"`
	Journal  JournalConfig  `yaml:"journal"`

	// BaseURL is prefixed to fragment paths in replies, e.g.
	// "https://example.org/" + "embeds/42.html".
	BaseURL        string `yaml:"base_url"`
	DataDir        string `yaml:"data_dir"`
	StylesheetURL  string `yaml:"stylesheet_url"`
	FeedMaxEntries int    `yaml:"feed_max_entries"` // 0 = unbounded
	HTTPAddr       string `yaml:"http_addr"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Log:           LogConfig{Level: "info", Format: "json"},
		Journal:       JournalConfig{Path: "fragments.db", Limit: 100},
		DataDir:       ".",
		StylesheetURL: "style.css",
	}
}

// Load builds the configuration from defaults, the optional yaml file at
// path, a .env file in the working directory and finally the environment.
// A missing yaml or .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	if cfg.FeedMaxEntries < 0 {
		return nil, errors.New("feed_max_entries must not be negative")
	}
	return &cfg, nil
}

// Validate checks the settings required to talk to Telegram.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("TELEGRAM_API_KEY (telegram.token) is required")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"TELEGRAM_API_KEY": &cfg.Telegram.Token,
		"BASE_URL":         &cfg.BaseURL,
		"DATA_DIR":         &cfg.DataDir,
		"STYLESHEET_URL":   &cfg.StylesheetURL,
		"JOURNAL_PATH":     &cfg.Journal.Path,
		"HTTP_ADDR":        &cfg.HTTPAddr,
		"LOG_LEVEL":        &cfg.Log.Level,
		"LOG_FORMAT":       &cfg.Log.Format,
	}
	for name, dst := range str {
		if v, ok := os.LookupEnv(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		"FEED_MAX_ENTRIES": &cfg.FeedMaxEntries,
		"JOURNAL_LIMIT":    &cfg.Journal.Limit,
	}
	for name, dst := range ints {
		v, ok := os.LookupEnv(name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}
	return nil
}
