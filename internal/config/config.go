// Package config loads the bot configuration from the environment and an
// optional .env file.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/keshon/dsda-bot/internal/storage"
	"github.com/keshon/dsda-bot/internal/watcher"
)

// ErrNoToken is returned by Token when neither the variable nor the token file
// provide a Discord token.
var ErrNoToken = errors.New("DISCORD_TOKEN is not set and no token file was found")

type Config struct {
	DiscordToken     string   `env:"DISCORD_TOKEN"`
	DiscordTokenFile string   `env:"DISCORD_TOKEN_FILE" envDefault:"token.txt"`
	CommandPrefixes  []string `env:"COMMAND_PREFIXES" envDefault:"!,❗" envSeparator:","`
	CommandGroup     string   `env:"COMMAND_GROUP" envDefault:"dsda"`

	NotifyChannel string        `env:"NOTIFY_CHANNEL" envDefault:"speed"`
	UpdatesURL    string        `env:"UPDATES_URL" envDefault:"http://doomedsda.us/updates.html"`
	PollInterval  time.Duration `env:"POLL_INTERVAL" envDefault:"5m"`
	PollDays      string        `env:"POLL_DAYS" envDefault:"Saturday,Sunday,Monday"`

	MarkerBackend string `env:"MARKER_BACKEND" envDefault:"file"`
	MarkerPath    string `env:"MARKER_PATH" envDefault:"latest_update.txt"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"dsda"`

	DSDABaseURL string        `env:"DSDA_BASE_URL" envDefault:"https://dsdarchive.com"`
	DSDARate    float64       `env:"DSDA_RATE" envDefault:"2"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"20s"`

	MetricsAddr       string `env:"METRICS_ADDR"`
	InitSlashCommands bool   `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`

	// Days is PollDays parsed by Load.
	Days []time.Weekday
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return parse(env.Options{})
}

// FromMap builds a Config from an explicit variable set, ignoring the process
// environment.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	prefixes := c.CommandPrefixes[:0]
	for _, p := range c.CommandPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	if len(prefixes) == 0 {
		return errors.New("COMMAND_PREFIXES must contain at least one prefix")
	}
	c.CommandPrefixes = prefixes
	c.CommandGroup = strings.ToLower(strings.TrimSpace(c.CommandGroup))

	days, err := watcher.ParseDays(c.PollDays)
	if err != nil {
		return fmt.Errorf("POLL_DAYS: %w", err)
	}
	c.Days = days

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.DSDARate <= 0 {
		return fmt.Errorf("DSDA_RATE must be positive, got %v", c.DSDARate)
	}

	c.MarkerBackend = strings.ToLower(strings.TrimSpace(c.MarkerBackend))
	switch c.MarkerBackend {
	case storage.BackendFile, storage.BackendDatastore:
	case storage.BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis marker backend")
		}
	default:
		return fmt.Errorf("unknown MARKER_BACKEND %q", c.MarkerBackend)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// Token returns DISCORD_TOKEN, or the first non-empty line of the token file.
func (c *Config) Token() (string, error) {
	if t := strings.TrimSpace(c.DiscordToken); t != "" {
		return t, nil
	}
	if c.DiscordTokenFile == "" {
		return "", ErrNoToken
	}
	f, err := os.Open(c.DiscordTokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if t := strings.TrimSpace(sc.Text()); t != "" {
			return t, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return "", ErrNoToken
}

// StorageOptions maps the marker settings to storage.Options.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:     c.MarkerBackend,
		Path:        c.MarkerPath,
		RedisAddr:   c.RedisAddr,
		RedisPrefix: c.RedisPrefix,
	}
}

// NotificationText is the message posted when a new update is found.
func (c *Config) NotificationText() string {
	return fmt.Sprintf(watcher.DefaultMessage, c.UpdatesURL)
}

// Logger builds the root logger at the configured level.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return log
}
