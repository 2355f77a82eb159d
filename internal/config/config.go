package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCalendarEmbedURL is the demo calendar embed with its fixed viewing
// parameters (timezone, week view, hidden chrome). The panel appends a
// cache-busting token to this on every refresh.
const DefaultCalendarEmbedURL = "https://calendar.google.com/calendar/embed?src=ff2ab0b36339f9dba9e7b5fd13852e648885a49269c22b6826b0c569500ec6c4%40group.calendar.google.com&ctz=Europe%2FParis&showTitle=0&showPrint=0&showCalendars=0&showTz=0&mode=WEEK"

// Config is the process-wide configuration, loaded once at startup and
// injected into the components that need it (never referenced as an ambient
// global after load).
type Config struct {
	// APIBaseURL is the assistant backend's base address.
	APIBaseURL string `yaml:"api_url"`

	// CalendarEmbedURL is the embedded calendar's base address.
	CalendarEmbedURL string `yaml:"calendar_url"`

	// CalendarFeedURL is an ICS feed for the agenda pane. When empty, the
	// feed served by the backend at /calendar.ics is used.
	CalendarFeedURL string `yaml:"feed_url"`

	// Listen is the HTTP listen address for `planiq serve`.
	Listen string `yaml:"listen"`

	// DBPath is the SQLite event store path for the backend.
	DBPath string `yaml:"db"`

	// Timezone is the IANA zone used for parsing and displaying event times.
	Timezone string `yaml:"timezone"`
}

func Default() *Config {
	return &Config{
		APIBaseURL:       "http://localhost:8080",
		CalendarEmbedURL: DefaultCalendarEmbedURL,
		Listen:           "127.0.0.1:8080",
		DBPath:           defaultDBPath(),
		Timezone:         "Europe/Paris",
	}
}

// FeedURL resolves the agenda feed address: the explicit feed when set,
// otherwise the backend's own calendar feed.
func (c *Config) FeedURL() string {
	if strings.TrimSpace(c.CalendarFeedURL) != "" {
		return c.CalendarFeedURL
	}
	return strings.TrimRight(c.APIBaseURL, "/") + "/calendar.ics"
}

// Load builds the effective configuration: defaults, then the optional YAML
// config file, then environment overrides. A missing file is fine; an
// unreadable or malformed one is an error (silently ignoring a config the
// user wrote is worse than failing).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = defaultConfigPath()
	}
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// No config file; defaults + env apply.
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PLANIQ_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("PLANIQ_CALENDAR_URL"); v != "" {
		cfg.CalendarEmbedURL = v
	}
	if v := os.Getenv("PLANIQ_FEED_URL"); v != "" {
		cfg.CalendarFeedURL = v
	}
	if v := os.Getenv("PLANIQ_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("PLANIQ_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PLANIQ_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".planiq", "config.yaml")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "planiq.sqlite"
	}
	return filepath.Join(home, ".planiq", "events.sqlite")
}
