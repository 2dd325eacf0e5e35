package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Window.MinWidth != 768 {
		t.Fatalf("min_width = %d, want 768", cfg.Window.MinWidth)
	}
	if cfg.Window.ID != "main" {
		t.Fatalf("id = %q, want main", cfg.Window.ID)
	}
	if cfg.Window.TopbarColor != "#000000" {
		t.Fatalf("topbar_color = %q, want #000000", cfg.Window.TopbarColor)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Window.URL != DefaultWindowURL {
		t.Fatalf("url = %q, want %q", cfg.Window.URL, DefaultWindowURL)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("# empty\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Window.AspectRatio != DefaultAspectRatio {
		t.Fatalf("aspect_ratio = %v, want %v", cfg.Window.AspectRatio, DefaultAspectRatio)
	}
}

func TestLoadFromPath_PartialOverrideKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := strings.Join([]string{
		"window:",
		"  min_width: 1024",
		"log_level: debug",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Window.MinWidth != 1024 {
		t.Fatalf("min_width = %d, want 1024", cfg.Window.MinWidth)
	}
	if cfg.Window.ID != DefaultWindowID {
		t.Fatalf("id = %q, want %q", cfg.Window.ID, DefaultWindowID)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log_level = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("unknown_key: 1\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"empty url", func(c *Config) { c.Window.URL = " " }, "window.url"},
		{"empty id", func(c *Config) { c.Window.ID = "" }, "window.id"},
		{"bad colour", func(c *Config) { c.Window.TopbarColor = "black" }, "window.topbar_color"},
		{"bad hex", func(c *Config) { c.Window.TopbarColor = "#00zz00" }, "window.topbar_color"},
		{"zero width", func(c *Config) { c.Window.MinWidth = 0 }, "window.min_width"},
		{"negative aspect", func(c *Config) { c.Window.AspectRatio = -1 }, "window.aspect_ratio"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("path = %q, want %q", verr.Path, tt.path)
			}
		})
	}
}

func TestParseHexColor(t *testing.T) {
	got, err := ParseHexColor("#1a2B3c")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != 0x1a2b3c {
		t.Fatalf("got %#x, want 0x1a2b3c", got)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestResolvedStoragePath(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	cfg := DefaultConfig()
	got, err := cfg.ResolvedStoragePath()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := filepath.Join(dataHome, "winlaunch", "local-storage.json")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	cfg.StoragePath = "/var/tmp/placement.json"
	got, err = cfg.ResolvedStoragePath()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "/var/tmp/placement.json" {
		t.Fatalf("got %q, want explicit path", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Window.TopbarColor = "#202124"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Window.TopbarColor != "#202124" {
		t.Fatalf("topbar_color = %q, want #202124", loaded.Window.TopbarColor)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			select {
			case changes <- c:
			default:
			}
		}, nil)
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("window:\n  min_width: 900\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Create and Write may arrive separately; the first reload can see an
	// empty file.
	deadline := time.After(5 * time.Second)
	for got := false; !got; {
		select {
		case cfg := <-changes:
			got = cfg.Window.MinWidth == 900
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch returned %v", err)
	}
}
