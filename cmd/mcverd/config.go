package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pgaskin/mcver"
	"github.com/spf13/pflag"
)

type Config struct {
	Addr       string   `toml:"addr"`
	Scheme     string   `toml:"scheme"`
	Timeout    Duration `toml:"timeout"`
	CacheLimit int64    `toml:"cache_limit"`
	CacheTTL   Duration `toml:"cache_ttl"`
	RateLimit  float64  `toml:"rate_limit"`
	RateBurst  int      `toml:"rate_burst"`
	Verbose    bool     `toml:"verbose"`

	Latest   LatestConfig   `toml:"latest"`
	Telegram TelegramConfig `toml:"telegram"`
}

type LatestConfig struct {
	Source   string   `toml:"source"` // manifest, html, or empty to disable
	URL      string   `toml:"url"`
	Selector string   `toml:"selector"`
	Interval Duration `toml:"interval"`
}

type TelegramConfig struct {
	Token       string   `toml:"token"`
	Chats       []string `toml:"chats"`
	ForcedChats []string `toml:"forced_chats"`
}

// Duration is a time.Duration written as a string like "5m" in the config.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

const defaultManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

func DefaultConfig() *Config {
	return &Config{
		Addr:       ":8080",
		Scheme:     mcver.Historical.Name(),
		Timeout:    Duration{time.Second * 4},
		CacheLimit: 50,
		CacheTTL:   Duration{time.Hour * 6},
		RateLimit:  20,
		RateBurst:  40,
		Latest: LatestConfig{
			Source:   "manifest",
			URL:      defaultManifestURL,
			Interval: Duration{time.Minute * 5},
		},
	}
}

// Validate checks the config after the file and flags have been applied.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if _, err := mcver.LookupScheme(c.Scheme); err != nil {
		return fmt.Errorf("scheme: %w", err)
	}
	if c.CacheLimit <= 0 {
		return fmt.Errorf("cache_limit must be positive")
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("rate_limit and rate_burst must be positive")
	}
	switch c.Latest.Source {
	case "":
	case "manifest":
		if c.Latest.URL == "" {
			return fmt.Errorf("latest: url must not be empty")
		}
	case "html":
		if c.Latest.URL == "" || c.Latest.Selector == "" {
			return fmt.Errorf("latest: url and selector must not be empty for the html source")
		}
	default:
		return fmt.Errorf("latest: unknown source %q", c.Latest.Source)
	}
	if c.Latest.Source != "" && c.Latest.Interval.Duration < time.Second {
		return fmt.Errorf("latest: interval must be at least 1s")
	}
	if len(c.Telegram.ForcedChats) != 0 && c.Telegram.Token == "" {
		return fmt.Errorf("telegram: forced_chats set without a token")
	}
	for _, fc := range c.Telegram.ForcedChats {
		var f bool
		for _, ch := range c.Telegram.Chats {
			if fc == ch {
				f = true
				break
			}
		}
		if !f {
			return fmt.Errorf("telegram: forced chat %#v is not in chats", fc)
		}
	}
	return nil
}

// LoadConfig parses the command line, reads the config file (if one was
// given), and then applies any flags which were explicitly set on top.
func LoadConfig(fs *pflag.FlagSet, args []string) (*Config, error) {
	d := DefaultConfig()

	file := fs.StringP("config", "c", "", "TOML config file")
	addr := fs.StringP("addr", "a", d.Addr, "The address to listen on")
	scheme := fs.StringP("scheme", "s", d.Scheme, "Default version scheme (historical, custom)")
	timeout := fs.DurationP("timeout", "t", d.Timeout.Duration, "Timeout for upstream requests")
	cacheLimit := fs.Int64P("cache-limit", "l", d.CacheLimit, "Limit for cache size in MB")
	cacheTTL := fs.Duration("cache-ttl", d.CacheTTL.Duration, "How long rendered responses are cached")
	rateLimit := fs.Float64("rate-limit", d.RateLimit, "Requests per second")
	rateBurst := fs.Int("rate-burst", d.RateBurst, "Request burst size")
	latestSource := fs.String("latest-source", d.Latest.Source, "Where to look for new releases (manifest, html, or empty to disable)")
	latestURL := fs.String("latest-url", d.Latest.URL, "URL of the latest release source")
	latestSelector := fs.String("latest-selector", d.Latest.Selector, "CSS selector for the html source")
	latestInterval := fs.Duration("latest-interval", d.Latest.Interval.Duration, "How often to check for new releases")
	telegramToken := fs.String("telegram-token", "", "Telegram bot token")
	telegramChats := fs.StringSlice("telegram-chat", nil, "Telegram chat to notify (can be repeated)")
	telegramForced := fs.StringSlice("telegram-forced-chat", nil, "Telegram chat to notify even about the first version seen after starting")
	verbose := fs.BoolP("verbose", "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if *file != "" {
		buf, err := os.ReadFile(*file)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		md, err := toml.Decode(string(buf), c)
		if err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if unknown := md.Undecoded(); len(unknown) > 0 {
			return nil, fmt.Errorf("parse config: unknown keys %v", unknown)
		}
	}

	for n, fn := range map[string]func(){
		"addr":                 func() { c.Addr = *addr },
		"scheme":               func() { c.Scheme = *scheme },
		"timeout":              func() { c.Timeout.Duration = *timeout },
		"cache-limit":          func() { c.CacheLimit = *cacheLimit },
		"cache-ttl":            func() { c.CacheTTL.Duration = *cacheTTL },
		"rate-limit":           func() { c.RateLimit = *rateLimit },
		"rate-burst":           func() { c.RateBurst = *rateBurst },
		"latest-source":        func() { c.Latest.Source = *latestSource },
		"latest-url":           func() { c.Latest.URL = *latestURL },
		"latest-selector":      func() { c.Latest.Selector = *latestSelector },
		"latest-interval":      func() { c.Latest.Interval.Duration = *latestInterval },
		"telegram-token":       func() { c.Telegram.Token = *telegramToken },
		"telegram-chat":        func() { c.Telegram.Chats = *telegramChats },
		"telegram-forced-chat": func() { c.Telegram.ForcedChats = *telegramForced },
		"verbose":              func() { c.Verbose = *verbose },
	} {
		if fs.Changed(n) {
			fn()
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}
