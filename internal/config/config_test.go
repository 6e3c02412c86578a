package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "frontdesk.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.HTTP.Addr != want.HTTP.Addr || cfg.Members.Driver != "sqlite" || cfg.Audit.FlushInterval != 30*time.Second {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Kiosk.ResetThreshold != 2*time.Second {
		t.Errorf("expected 2s reset threshold, got %v", cfg.Kiosk.ResetThreshold)
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	p := writeYAML(t, `
env: prod
http:
  addr: "127.0.0.1:9000"
members:
  lookup_timeout: 750ms
audit:
  fallback_capacity: 50
stations:
  known: [desk-1, desk-2]
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "prod" || cfg.HTTP.Addr != "127.0.0.1:9000" {
		t.Errorf("yaml not applied: %+v", cfg)
	}
	if cfg.Members.LookupTimeout != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %v", cfg.Members.LookupTimeout)
	}
	if cfg.Audit.FallbackCapacity != 50 {
		t.Errorf("expected capacity 50, got %d", cfg.Audit.FallbackCapacity)
	}
	// Untouched keys keep their defaults.
	if cfg.DB.Path != Default().DB.Path {
		t.Errorf("expected default db path, got %q", cfg.DB.Path)
	}
	if strings.Join(cfg.Stations.Known, ",") != "desk-1,desk-2" {
		t.Errorf("unexpected stations %v", cfg.Stations.Known)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	p := writeYAML(t, "http:\n  addr: \":7000\"\n")
	t.Setenv("FRONTDESK_HTTP__ADDR", ":7100")
	t.Setenv("FRONTDESK_AUDIT__FLUSH_INTERVAL", "5s")
	t.Setenv("FRONTDESK_STATIONS__KNOWN", "desk-1, desk-3")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":7100" {
		t.Errorf("expected env to win, got %q", cfg.HTTP.Addr)
	}
	if cfg.Audit.FlushInterval != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.Audit.FlushInterval)
	}
	if strings.Join(cfg.Stations.Known, ",") != "desk-1,desk-3" {
		t.Errorf("unexpected stations %v", cfg.Stations.Known)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown driver":    "members:\n  driver: oracle\n",
		"mysql without dsn": "members:\n  driver: mysql\n",
		"bad env":           "env: staging\n",
		"bad profile":       "kiosk:\n  profile: turbo\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeYAML(t, body)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEnvKey(t *testing.T) {
	if got := envKey("FRONTDESK_MEMBERS__LOOKUP_TIMEOUT"); got != "members.lookup_timeout" {
		t.Errorf("unexpected key %q", got)
	}
}
