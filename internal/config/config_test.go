package config

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func skipIfNotUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip(
			"skipping: Unix permissions not reliable on Windows",
		)
	}
	if os.Getuid() == 0 {
		t.Skip(
			"skipping: running as root bypasses permissions",
		)
	}
}

// setupConfigDir creates a temp data dir, points the env var at
// it, clears the other env overrides, and returns the dir.
func setupConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LEADSVIEW_DATA_DIR", dir)
	for _, k := range []string{
		"LEADSVIEW_TIMEZONE", "LEADSVIEW_INBOX_DIR",
		"LEADSVIEW_DEFAULT_USER", "LEADSVIEW_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func writeConfig(t *testing.T, dir string, data any) {
	t.Helper()
	b, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	writeConfigRaw(t, dir, string(b))
}

// writeConfigRaw writes raw string content to config.json.
func writeConfigRaw(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func readConfigMap(t *testing.T, dir string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("reading config file: %v", err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("parsing config file: %v", err)
	}
	return m
}

func loadConfigFromFlags(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterServeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return Load(fs)
}

func TestDefaults(t *testing.T) {
	dir := setupConfigDir(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 8080 {
		t.Errorf("listen = %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.DataDir != dir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dir)
	}
	if want := filepath.Join(dir, "leads.db"); cfg.DBPath != want {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, want)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.WriteTimeout != 30*time.Second {
		t.Errorf("WriteTimeout = %v", cfg.WriteTimeout)
	}
}

func TestLayering(t *testing.T) {
	tests := []struct {
		name  string
		file  map[string]any
		env   map[string]string
		flags []string
		check func(t *testing.T, c Config)
	}{
		{
			name: "file overrides defaults",
			file: map[string]any{"port": 9090, "timezone": "Europe/Rome", "default_user": "acme"},
			check: func(t *testing.T, c Config) {
				if c.Port != 9090 || c.Timezone != "Europe/Rome" || c.DefaultUser != "acme" {
					t.Errorf("got %+v", c)
				}
			},
		},
		{
			name: "env overrides file",
			file: map[string]any{"inbox_dir": "/from/file", "default_user": "acme"},
			env:  map[string]string{"LEADSVIEW_INBOX_DIR": "/from/env"},
			check: func(t *testing.T, c Config) {
				if c.InboxDir != "/from/env" {
					t.Errorf("InboxDir = %q", c.InboxDir)
				}
				if c.DefaultUser != "acme" {
					t.Errorf("DefaultUser = %q", c.DefaultUser)
				}
			},
		},
		{
			name:  "flags override env",
			env:   map[string]string{"LEADSVIEW_DEFAULT_USER": "env-user"},
			flags: []string{"-user", "flag-user", "-port", "7000"},
			check: func(t *testing.T, c Config) {
				if c.DefaultUser != "flag-user" || c.Port != 7000 {
					t.Errorf("got %+v", c)
				}
			},
		},
		{
			name:  "unset flags keep lower layers",
			file:  map[string]any{"host": "0.0.0.0"},
			flags: []string{"-inbox", "/drop"},
			check: func(t *testing.T, c Config) {
				if c.Host != "0.0.0.0" || c.InboxDir != "/drop" {
					t.Errorf("got %+v", c)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupConfigDir(t)
			if tt.file != nil {
				writeConfig(t, dir, tt.file)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := loadConfigFromFlags(t, tt.flags...)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadInvalidConfigFile(t *testing.T) {
	dir := setupConfigDir(t)
	writeConfigRaw(t, dir, "{invalid-json")

	_, err := LoadMinimal()
	if err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Fatalf("err = %v, want parse error", err)
	}
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	setupConfigDir(t)
	_, err := loadConfigFromFlags(t, "-timezone", "Mars/Olympus")
	if err == nil || !strings.Contains(err.Error(), "Mars/Olympus") {
		t.Fatalf("err = %v, want timezone error", err)
	}
}

func TestLocation(t *testing.T) {
	loc, err := Config{}.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("empty timezone: loc=%v err=%v", loc, err)
	}
	loc, err = Config{Timezone: " Europe/Rome "}.Location()
	if err != nil {
		t.Fatalf("Europe/Rome: %v", err)
	}
	if loc.String() != "Europe/Rome" {
		t.Errorf("loc = %v", loc)
	}
}

func TestSaveDefaultUserPreservesOtherKeys(t *testing.T) {
	dir := setupConfigDir(t)
	writeConfigRaw(t, dir, `{"timezone": "Europe/Rome", "custom": 1}`)

	cfg, err := LoadMinimal()
	if err != nil {
		t.Fatalf("LoadMinimal: %v", err)
	}
	if err := cfg.SaveDefaultUser("acme"); err != nil {
		t.Fatalf("SaveDefaultUser: %v", err)
	}
	if cfg.DefaultUser != "acme" {
		t.Errorf("DefaultUser = %q", cfg.DefaultUser)
	}

	m := readConfigMap(t, dir)
	if m["default_user"] != "acme" || m["timezone"] != "Europe/Rome" || m["custom"] != float64(1) {
		t.Errorf("config file = %v", m)
	}

	reloaded, err := LoadMinimal()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.DefaultUser != "acme" {
		t.Errorf("reloaded DefaultUser = %q", reloaded.DefaultUser)
	}
}

func TestSaveDefaultUserCreatesPrivateFile(t *testing.T) {
	skipIfNotUnix(t)
	dir := filepath.Join(t.TempDir(), "fresh")
	cfg := Config{DataDir: dir}
	if err := cfg.SaveDefaultUser("acme"); err != nil {
		t.Fatalf("SaveDefaultUser: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o600 {
		t.Errorf("perm = %o, want 600", got)
	}
}

func TestSaveDefaultUserRefusesInvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigRaw(t, dir, "not json")
	cfg := Config{DataDir: dir}
	if err := cfg.SaveDefaultUser("acme"); err == nil {
		t.Fatal("expected error for invalid existing config")
	}
}
