package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings.
type Config struct {
	APIURL            string
	RequestTimeout    time.Duration
	RequestsPerSecond float64 `validate:"gte=0"`
	KeepUnusedFor     time.Duration
	RefreshInterval   time.Duration `validate:"gte=0"`
	PrefsPath         string
	LogFile           string
	LogLevel          string `validate:"oneof=debug info warn error"`
	LogFormat         string `validate:"oneof=text json"`
}

const (
	defaultConfigPath     = "~/.config/shelf/config.toml"
	defaultAPIURL         = "https://phl-2-b5-mission04-assignment04-ser.vercel.app"
	defaultRequestTimeout = 15 * time.Second
	defaultKeepUnusedFor  = 60 * time.Second
	defaultPrefsPath      = "~/.config/shelf/prefs.toml"
	defaultLogFile        = "~/.local/state/shelf/shelf.log"
	defaultLogLevel       = "info"
	defaultLogFormat      = "text"

	// EnvAPIURL and EnvLogLevel override the file when set.
	EnvAPIURL   = "SHELF_API_URL"
	EnvLogLevel = "SHELF_LOG_LEVEL"
)

var validate = validator.New()

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		RequestTimeout: defaultRequestTimeout,
		KeepUnusedFor:  defaultKeepUnusedFor,
		PrefsPath:      mustExpand(defaultPrefsPath),
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
	}
}

// Load reads the config at path (or the default path), falling back to
// defaults when the file is missing, then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer func() { _ = file.Close() }()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := apply(&cfg, bytes); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func apply(cfg *Config, bytes []byte) error {
	var raw struct {
		APIURL            string  `toml:"api_url"`
		RequestTimeout    string  `toml:"request_timeout"`
		RequestsPerSecond float64 `toml:"requests_per_second"`
		KeepUnusedFor     string  `toml:"keep_unused_for"`
		RefreshInterval   string  `toml:"refresh_interval"`
		PrefsPath         string  `toml:"prefs_path"`
		LogFile           string  `toml:"log_file"`
		LogLevel          string  `toml:"log_level"`
		LogFormat         string  `toml:"log_format"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	cfg.RequestsPerSecond = raw.RequestsPerSecond

	durations := []struct {
		name string
		raw  string
		dest *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"keep_unused_for", raw.KeepUnusedFor, &cfg.KeepUnusedFor},
		{"refresh_interval", raw.RefreshInterval, &cfg.RefreshInterval},
	}
	for _, d := range durations {
		v := strings.TrimSpace(d.raw)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.dest = parsed
	}

	if v := strings.TrimSpace(raw.PrefsPath); v != "" {
		cfg.PrefsPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFormat); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
