// Package config handles configuration loading and defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultAPIURL      = "https://destiny-screwdriver.glitch.me/"
	DefaultDir         = "~/.tada"
	DefaultStorageFile = "~/.tada/storage.json"
	DefaultLogFile     = "~/.tada/tada.log"
	DefaultTheme       = "classic"
	DefaultLogLevel    = "info"
	ConfigFileName     = "config.toml"
)

// Config holds the full configuration for tada.
type Config struct {
	APIURL       string `toml:"api_url"`
	StorageFile  string `toml:"storage_file"`
	TemplatesDir string `toml:"templates_dir"`
	Theme        string `toml:"theme"`
	LogLevel     string `toml:"log_level"`
	LogFile      string `toml:"log_file"`
	ShowErrors   bool   `toml:"show_errors"`
	Group        bool   `toml:"group"`

	// File is the config file that was read, if any.
	File string `toml:"-"`
}

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. Config file (TADA_CONFIG or ~/.tada/config.toml)
// 3. Environment variables
// 4. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if file := findConfigFile(); file != "" {
		if err := loadConfigFile(cfg, file); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", file, err)
		}
		cfg.File = file
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	finalize(cfg)
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.APIURL = DefaultAPIURL
	cfg.StorageFile = DefaultStorageFile
	cfg.LogFile = DefaultLogFile
	cfg.Theme = DefaultTheme
	cfg.LogLevel = DefaultLogLevel
}

func findConfigFile() string {
	if p := os.Getenv("TADA_CONFIG"); p != "" {
		return expandPath(p)
	}
	p := expandPath(filepath.Join(DefaultDir, ConfigFileName))
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

func loadConfigFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// loadFromEnv overrides config from environment variables.
// TADA_TOKEN is read by the session, not here.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TADA_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TADA_STORAGE"); v != "" {
		cfg.StorageFile = v
	}
	if v := os.Getenv("TADA_TEMPLATES"); v != "" {
		cfg.TemplatesDir = v
	}
	if v := os.Getenv("TADA_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("TADA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("TADA_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v := os.Getenv("TADA_SHOW_ERRORS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TADA_SHOW_ERRORS: %w", err)
		}
		cfg.ShowErrors = b
	}
	return nil
}

// parseFlags registers the root flags on fs and parses args into cfg.
// A nil fs skips flag parsing.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return nil
	}
	fs.StringVar(&cfg.APIURL, "api", cfg.APIURL, "base URL of the to-do API")
	fs.StringVar(&cfg.StorageFile, "storage", cfg.StorageFile, "file holding the session token")
	fs.StringVar(&cfg.TemplatesDir, "templates", cfg.TemplatesDir, "directory of *.tmpl overrides")
	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "color theme: classic, neon or mono")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log destination (empty disables logging)")
	fs.BoolVar(&cfg.ShowErrors, "show-errors", cfg.ShowErrors, "show failed requests in the UI")
	fs.BoolVar(&cfg.Group, "group", cfg.Group, "group output by pending/done")
	return fs.Parse(args)
}

func finalize(cfg *Config) {
	cfg.StorageFile = expandPath(cfg.StorageFile)
	cfg.LogFile = expandPath(cfg.LogFile)
	cfg.TemplatesDir = expandPath(cfg.TemplatesDir)
	cfg.Theme = strings.ToLower(strings.TrimSpace(cfg.Theme))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
}

// expandPath expands ~/ and environment variables in paths.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	expanded := os.ExpandEnv(p)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") ||
		(runtime.GOOS == "windows" && strings.HasPrefix(expanded, "~\\")) {
		home, err := os.UserHomeDir()
		if err != nil {
			return expanded
		}
		if expanded == "~" {
			return home
		}
		return filepath.Join(home, expanded[2:])
	}
	return expanded
}
