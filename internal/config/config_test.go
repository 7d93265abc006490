package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Error("expected exists=false for missing file")
	}
	if resolved != path {
		t.Errorf("got resolved path %q, want %q", resolved, path)
	}
	if cfg.Playback.GuardMs != 400 {
		t.Errorf("got guard %d, want default 400", cfg.Playback.GuardMs)
	}
	if cfg.Server.Bind != "127.0.0.1:8750" {
		t.Errorf("got bind %q, want default", cfg.Server.Bind)
	}
	if cfg.Extract.Provider != "gemini" {
		t.Errorf("got provider %q, want gemini default", cfg.Extract.Provider)
	}
	if cfg.Extract.MaxQuotes != 10 {
		t.Errorf("got max quotes %d, want 10", cfg.Extract.MaxQuotes)
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[playback]
guard_ms = 350
offset_ms = -120

[paths]
cache_db = "` + filepath.Join(dir, "cache.db") + `"

[server]
bind = "0.0.0.0:9000"

[extract]
provider = "OpenAI"
model = "gpt-5-mini"
max_quotes = 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Playback.GuardMs != 350 {
		t.Errorf("got guard %d, want 350", cfg.Playback.GuardMs)
	}
	if cfg.Offset() != -120*time.Millisecond {
		t.Errorf("got offset %v, want -120ms", cfg.Offset())
	}
	if cfg.Guard() != 350*time.Millisecond {
		t.Errorf("got guard duration %v, want 350ms", cfg.Guard())
	}
	if cfg.Server.Bind != "0.0.0.0:9000" {
		t.Errorf("got bind %q, want 0.0.0.0:9000", cfg.Server.Bind)
	}
	if cfg.Extract.Provider != "openai" {
		t.Errorf("got provider %q, want lowercased openai", cfg.Extract.Provider)
	}
	if cfg.Extract.MaxQuotes != 5 {
		t.Errorf("got max quotes %d, want 5", cfg.Extract.MaxQuotes)
	}
	if cfg.Paths.CacheDB != filepath.Join(dir, "cache.db") {
		t.Errorf("got cache db %q, want configured path", cfg.Paths.CacheDB)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[playback]
guard_ms = 350

[server]
bind = "127.0.0.1:9000"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(EnvBind, "0.0.0.0:8080")
	t.Setenv(EnvGuardMs, "480")
	t.Setenv(EnvOffsetMs, "-90")
	t.Setenv(EnvCacheDB, filepath.Join(dir, "env.db"))

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Bind != "0.0.0.0:8080" {
		t.Errorf("got bind %q, want env override", cfg.Server.Bind)
	}
	if cfg.Playback.GuardMs != 480 {
		t.Errorf("got guard %d, want 480 from env", cfg.Playback.GuardMs)
	}
	if cfg.Playback.OffsetMs != -90 {
		t.Errorf("got offset %d, want -90 from env", cfg.Playback.OffsetMs)
	}
	if cfg.Paths.CacheDB != filepath.Join(dir, "env.db") {
		t.Errorf("got cache db %q, want env override", cfg.Paths.CacheDB)
	}
}

func TestLoadEnvIgnoresBadInteger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[playback]\nguard_ms = 350\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(EnvGuardMs, "not-a-number")

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Playback.GuardMs != 350 {
		t.Errorf("got guard %d, want file value 350", cfg.Playback.GuardMs)
	}
}

func TestLoadClampsGuard(t *testing.T) {
	tests := []struct {
		guardMs int
		want    int
	}{
		{50, 300},
		{900, 500},
		{450, 450},
	}

	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := "[playback]\nguard_ms = " + strconv.Itoa(tt.guardMs) + "\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cfg, _, _, err := Load(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.Playback.GuardMs != tt.want {
			t.Errorf("guard_ms=%d: got %d, want %d", tt.guardMs, cfg.Playback.GuardMs, tt.want)
		}
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[extract]\nprovider = \"frobnicator\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "frobnicator") {
		t.Errorf("expected provider named in error, got %v", err)
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("this is not toml ["), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid TOML")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got, err := expandPath("~/quoteclip/config.toml")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if !strings.HasPrefix(got, home) {
		t.Errorf("got %q, want path under %q", got, home)
	}
}

func TestDefaultCacheDBPathHonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	got := defaultCacheDBPath()
	want := filepath.Join(dir, "quoteclip", "windows.db")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
