package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.DefaultLatitude != 25.7566 || cfg.DefaultLongitude != 28.1914 {
		t.Errorf("default fix = %v,%v", cfg.DefaultLatitude, cfg.DefaultLongitude)
	}
	if cfg.IsProd() {
		t.Error("defaults should not be prod")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ETAG_ADDR", ":9999")
	t.Setenv("ETAG_API_BASE_URL", "https://api.test/api")
	t.Setenv("ETAG_DEFAULT_LATITUDE", "-33.9")
	t.Setenv("ETAG_ENV", "prod")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.APIBaseURL != "https://api.test/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.DefaultLatitude != -33.9 {
		t.Errorf("DefaultLatitude = %v", cfg.DefaultLatitude)
	}
	if !cfg.IsProd() {
		t.Error("env override should select prod")
	}
	// Untouched fields keep their defaults.
	if cfg.DBPath != "etag.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoadFileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etag.yaml")
	yaml := "addr: \":7000\"\ndb_path: from-file.db\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ETAG_CONFIG", path)
	t.Setenv("ETAG_ADDR", ":7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7001" {
		t.Errorf("env should win over file: Addr = %q", cfg.Addr)
	}
	if cfg.DBPath != "from-file.db" {
		t.Errorf("file value lost: DBPath = %q", cfg.DBPath)
	}
}

func TestLoadRejectsBadCSRFKey(t *testing.T) {
	t.Setenv("ETAG_CSRF_KEY", "short")
	if _, err := Load(); err == nil {
		t.Error("want error for short csrf key")
	}
}
