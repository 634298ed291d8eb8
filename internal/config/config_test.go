package config

import (
	"os"
	"path/filepath"
	"testing"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.CacheBackend != "file" || c.ForecastPeriods != 7 || c.LogFormat != "console" {
		t.Fatalf("defaults = %+v", c)
	}
	if c.CacheDir != filepath.Join(home, ".ledgerloom", "cache") {
		t.Fatalf("cache_dir = %s", c.CacheDir)
	}
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	in := &Global{CacheBackend: "sqlite", CacheDir: "/tmp/x", ForecastPeriods: 14, LogLevel: "debug", LogFormat: "json", StrictQuotes: true}
	if err := Save(in, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *out != *in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestEnvOverridesAndDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	wd := t.TempDir()
	chdir(t, wd)
	if err := os.WriteFile(filepath.Join(wd, ".env"), []byte("LEDGERLOOM_FORECAST_PERIODS=21\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("LEDGERLOOM_CACHE_BACKEND", "badger")
	// keep godotenv's export from leaking into other tests
	t.Setenv("LEDGERLOOM_FORECAST_PERIODS", "")
	os.Unsetenv("LEDGERLOOM_FORECAST_PERIODS")
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.CacheBackend != "badger" {
		t.Fatalf("cache_backend = %s", c.CacheBackend)
	}
	if c.ForecastPeriods != 21 {
		t.Fatalf("forecast_periods = %d", c.ForecastPeriods)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	c := &Global{CacheBackend: "redis", LogFormat: "console", ForecastPeriods: 7}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error")
	}
}
