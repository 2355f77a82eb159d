package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PLANIQ_API_URL", "PLANIQ_CALENDAR_URL", "PLANIQ_FEED_URL", "PLANIQ_LISTEN", "PLANIQ_DB", "PLANIQ_TIMEZONE"} {
		t.Setenv(k, "")
	}
	// t.Setenv with "" still sets the variable; unset explicitly.
	for _, k := range []string{"PLANIQ_API_URL", "PLANIQ_CALENDAR_URL", "PLANIQ_FEED_URL", "PLANIQ_LISTEN", "PLANIQ_DB", "PLANIQ_TIMEZONE"} {
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.CalendarEmbedURL != DefaultCalendarEmbedURL {
		t.Fatalf("CalendarEmbedURL = %q", cfg.CalendarEmbedURL)
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "api_url: http://file.example\nlisten: 127.0.0.1:9999\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PLANIQ_API_URL", "http://env.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "http://env.example" {
		t.Fatalf("env should override file: APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.Listen != "127.0.0.1:9999" {
		t.Fatalf("file value lost: Listen = %q", cfg.Listen)
	}
}

func TestLoad_MalformedFileFails(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_url: [oops"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed config")
	}
}

func TestFeedURL(t *testing.T) {
	cfg := Default()
	cfg.APIBaseURL = "http://brain.example/"
	if got := cfg.FeedURL(); got != "http://brain.example/calendar.ics" {
		t.Fatalf("derived FeedURL = %q", got)
	}

	cfg.CalendarFeedURL = "https://feed.example/cal.ics"
	if got := cfg.FeedURL(); got != "https://feed.example/cal.ics" {
		t.Fatalf("explicit FeedURL = %q", got)
	}
}
