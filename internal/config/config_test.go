package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"scaffolder/internal/config"
)

// withTempHome redirects os.UserHomeDir to a temp directory for the duration of the test.
func withTempHome(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)
	return tmp
}

func TestLoadDefaultsWhenAbsent(t *testing.T) {
	withTempHome(t)
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, config.Default()) {
		t.Errorf("Load = %+v, want defaults", cfg)
	}
}

func TestInitCreatesDir(t *testing.T) {
	tmp := withTempHome(t)
	dir, err := config.Init()
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if dir != filepath.Join(tmp, ".scaffolder") {
		t.Errorf("dir = %s", dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("config dir not created: %v", err)
	}
	// Init again is fine.
	if _, err := config.Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmp := withTempHome(t)
	cfg := config.Default()
	cfg.Source = config.Source{Kind: "gcs", Settings: map[string]string{"bucket": "tmpl", "prefix": "v1/"}}
	cfg.Concurrency = 3
	cfg.Log.Mode = "prod"

	if err := config.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmp, ".scaffolder", config.FileName)); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	got, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("Load = %+v, want %+v", got, cfg)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	tmp := withTempHome(t)
	dir := filepath.Join(tmp, ".scaffolder")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	body := "source:\n  kind: http\n  settings:\n    base_url: https://example.com/t\n"
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := map[string]string{"base_url": "https://example.com/t"}
	if cfg.Source.Kind != "http" || !reflect.DeepEqual(cfg.Source.Settings, want) {
		t.Errorf("source = %+v", cfg.Source)
	}
	if cfg.ArchiveName != "mini_lisp.zip" || cfg.Concurrency != 8 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	withTempHome(t)
	t.Setenv("SCAFFOLDER_SOURCE_KIND", "http")
	t.Setenv("SCAFFOLDER_SOURCE_ROOT", "https://cdn.example.com/scaffold")
	t.Setenv("SCAFFOLDER_OUTPUT", "/tmp/out")
	t.Setenv("SCAFFOLDER_LOG_MODE", "off")
	t.Setenv("SCAFFOLDER_ADDR", "127.0.0.1:9000")
	t.Setenv("SCAFFOLDER_CONCURRENCY", "2")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := map[string]string{"base_url": "https://cdn.example.com/scaffold"}
	if cfg.Source.Kind != "http" || !reflect.DeepEqual(cfg.Source.Settings, want) {
		t.Errorf("source = %+v", cfg.Source)
	}
	if cfg.Output != "/tmp/out" || cfg.Log.Mode != "off" || cfg.Server.Addr != "127.0.0.1:9000" || cfg.Concurrency != 2 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"unknown kind", func(c *config.Config) { c.Source.Kind = "ftp" }, "unknown source kind"},
		{"zero concurrency", func(c *config.Config) { c.Concurrency = 0 }, "concurrency"},
		{"empty archive", func(c *config.Config) { c.ArchiveName = " " }, "archive_name"},
		{"archive with dir", func(c *config.Config) { c.ArchiveName = "out/x.zip" }, "archive_name"},
		{"bad log mode", func(c *config.Config) { c.Log.Mode = "loud" }, "log mode"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Validate err = %v, want containing %q", err, tc.want)
			}
		})
	}
	if err := config.Default().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	tmp := withTempHome(t)
	dir := filepath.Join(tmp, ".scaffolder")
	os.MkdirAll(dir, 0o755)
	os.WriteFile(filepath.Join(dir, config.FileName), []byte("source: [unterminated"), 0o644)
	if _, err := config.Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
