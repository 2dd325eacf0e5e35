package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWindowURL   = "views/main.html"
	DefaultWindowID    = "main"
	DefaultTopbarColor = "#000000"

	// DefaultMinWidth is the fixed minimum inner width of the window in pixels.
	DefaultMinWidth = 768

	// DefaultAspectRatio is the initial aspect ratio of the window inner bounds.
	// The content resizes itself once its video stream is known.
	DefaultAspectRatio = 1.7777777777
)

// WindowConfig describes the single application window.
type WindowConfig struct {
	URL         string  `yaml:"url"`
	ID          string  `yaml:"id"`
	TopbarColor string  `yaml:"topbar_color"`
	MinWidth    int     `yaml:"min_width"`
	AspectRatio float64 `yaml:"aspect_ratio"`
}

// Config is the effective winlaunch configuration.
type Config struct {
	Window      WindowConfig `yaml:"window"`
	StoragePath string       `yaml:"storage_path,omitempty"`
	LogLevel    string       `yaml:"log_level"`
	Display     string       `yaml:"display,omitempty"`
	XAuthority  string       `yaml:"xauthority,omitempty"`
	// LaunchHotkey launches the window, or shows it when one is live.
	// Uses xgbutil key sequence syntax, e.g. "Mod4-shift-w". Empty disables it.
	LaunchHotkey string `yaml:"launch_hotkey,omitempty"`
}

type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			URL:         DefaultWindowURL,
			ID:          DefaultWindowID,
			TopbarColor: DefaultTopbarColor,
			MinWidth:    DefaultMinWidth,
			AspectRatio: DefaultAspectRatio,
		},
		LogLevel: "info",
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Window.URL) == "" {
		return &ValidationError{Path: "window.url", Err: fmt.Errorf("url is required")}
	}
	if strings.TrimSpace(c.Window.ID) == "" {
		return &ValidationError{Path: "window.id", Err: fmt.Errorf("id is required")}
	}
	if _, err := ParseHexColor(c.Window.TopbarColor); err != nil {
		return &ValidationError{Path: "window.topbar_color", Err: err}
	}
	if c.Window.MinWidth <= 0 {
		return &ValidationError{Path: "window.min_width", Err: fmt.Errorf("min_width must be > 0")}
	}
	if c.Window.AspectRatio <= 0 {
		return &ValidationError{Path: "window.aspect_ratio", Err: fmt.Errorf("aspect_ratio must be > 0")}
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	return nil
}

// SlogLevel maps log_level onto a slog level. Unknown values read as info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ResolvedStoragePath returns the placement store location, falling back to
// the default data directory when storage_path is unset.
func (c *Config) ResolvedStoragePath() (string, error) {
	if c != nil && strings.TrimSpace(c.StoragePath) != "" {
		return expandHome(c.StoragePath)
	}
	return DefaultStoragePath()
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ParseHexColor parses a "#rrggbb" colour into a 0xRRGGBB value.
func ParseHexColor(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[0] != '#' {
		return 0, fmt.Errorf("colour %q must have the form #rrggbb", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("colour %q is not valid hex: %w", s, err)
	}
	return uint32(v), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
