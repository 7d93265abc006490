// Package config loads quoteclip settings from a TOML file, with
// QUOTECLIP_* environment variables overriding file values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"quoteclip/internal/extract"
	"quoteclip/internal/playback"
)

// Environment keys that override file values. Loading .env files is
// the caller's concern.
const (
	EnvBind            = "QUOTECLIP_BIND"
	EnvCacheDB         = "QUOTECLIP_CACHE_DB"
	EnvGuardMs         = "QUOTECLIP_GUARD_MS"
	EnvOffsetMs        = "QUOTECLIP_OFFSET_MS"
	EnvExtractProvider = "QUOTECLIP_EXTRACT_PROVIDER"
	EnvExtractModel    = "QUOTECLIP_EXTRACT_MODEL"
)

// Playback contains window padding and timing correction settings.
type Playback struct {
	GuardMs  int `toml:"guard_ms"`  // padding added around aligned windows
	OffsetMs int `toml:"offset_ms"` // signed correction applied to every window
}

// Paths contains file locations.
type Paths struct {
	CacheDB string `toml:"cache_db"`
}

// Server contains the HTTP API settings.
type Server struct {
	Bind string `toml:"bind"`
}

// Extract contains LLM quote extraction settings.
type Extract struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	MaxQuotes int    `toml:"max_quotes"`
}

// Config encapsulates all configuration values for quoteclip.
type Config struct {
	Playback Playback `toml:"playback"`
	Paths    Paths    `toml:"paths"`
	Server   Server   `toml:"server"`
	Extract  Extract  `toml:"extract"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Playback: Playback{
			GuardMs: int(playback.DefaultGuard / time.Millisecond),
		},
		Paths: Paths{
			CacheDB: defaultCacheDBPath(),
		},
		Server: Server{
			Bind: "127.0.0.1:8750",
		},
		Extract: Extract{
			Provider:  string(extract.ProviderGemini),
			MaxQuotes: extract.DefaultMaxQuotes,
		},
	}
}

// Guard returns the configured window padding as a duration.
func (c *Config) Guard() time.Duration {
	return time.Duration(c.Playback.GuardMs) * time.Millisecond
}

// Offset returns the configured timing correction as a duration.
func (c *Config) Offset() time.Duration {
	return time.Duration(c.Playback.OffsetMs) * time.Millisecond
}

// DefaultConfigPath returns the absolute path to the default
// configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/quoteclip/config.toml")
}

// Load locates and parses a configuration file. It reports the
// resolved path and whether a file was found; when none is, the
// defaults are returned.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func (c *Config) applyEnv() {
	c.Server.Bind = getEnv(EnvBind, c.Server.Bind)
	c.Paths.CacheDB = getEnv(EnvCacheDB, c.Paths.CacheDB)
	c.Playback.GuardMs = getEnvInt(EnvGuardMs, c.Playback.GuardMs)
	c.Playback.OffsetMs = getEnvInt(EnvOffsetMs, c.Playback.OffsetMs)
	c.Extract.Provider = getEnv(EnvExtractProvider, c.Extract.Provider)
	c.Extract.Model = getEnv(EnvExtractModel, c.Extract.Model)
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is unset or empty.
func getEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// getEnvInt returns the integer value of the environment variable
// named by key, or fallback if it is unset, empty, or not an integer.
func getEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("quoteclip.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	minGuard := int(playback.MinGuard / time.Millisecond)
	maxGuard := int(playback.MaxGuard / time.Millisecond)
	if c.Playback.GuardMs < minGuard {
		c.Playback.GuardMs = minGuard
	}
	if c.Playback.GuardMs > maxGuard {
		c.Playback.GuardMs = maxGuard
	}

	if strings.TrimSpace(c.Server.Bind) == "" {
		c.Server.Bind = "127.0.0.1:8750"
	}

	c.Extract.Provider = strings.ToLower(strings.TrimSpace(c.Extract.Provider))
	switch extract.Provider(c.Extract.Provider) {
	case extract.ProviderGemini, extract.ProviderOpenAI, extract.ProviderAnthropic:
	case "":
		c.Extract.Provider = string(extract.ProviderGemini)
	default:
		return fmt.Errorf("unknown extract provider %q", c.Extract.Provider)
	}
	if c.Extract.MaxQuotes <= 0 {
		c.Extract.MaxQuotes = extract.DefaultMaxQuotes
	}

	expanded, err := expandPath(c.Paths.CacheDB)
	if err != nil {
		return err
	}
	c.Paths.CacheDB = expanded

	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

func defaultCacheDBPath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "quoteclip", "windows.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "windows.db"
	}
	return filepath.Join(home, ".cache", "quoteclip", "windows.db")
}
