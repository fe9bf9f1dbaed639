package config

import (
	"os"
	"testing"
	"time"
)

func unsetEnv() {
	for _, k := range []string{
		"ITINERARY_DEBOUNCE", "ITINERARY_DEV_DB_DRIVER", "ITINERARY_DEV_POSTGRES_DSN",
		"ITINERARY_DEV_SQLITE_PATH", "ITINERARY_API_USER", "ITINERARY_ERROR_DISPLAY",
	} {
		_ = os.Unsetenv(k)
	}
}

func TestConfigLoad_Defaults(t *testing.T) {
	unsetEnv()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.Debounce != time.Second || cfg.SavedDisplay != 2*time.Second || cfg.ErrorDisplay != 4*time.Second {
		t.Fatalf("unexpected timing defaults: %+v", cfg)
	}
	if cfg.RedirectDelay != 1500*time.Millisecond || cfg.LoadMaxAttempts != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DevDBDriver != "sqlite" || cfg.DevSQLitePath != "itineraries.db" {
		t.Fatalf("expected sqlite dev store by default, got %s %q", cfg.DevDBDriver, cfg.DevSQLitePath)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	unsetEnv()
	_ = os.Setenv("ITINERARY_DEBOUNCE", "250ms")
	_ = os.Setenv("ITINERARY_DEV_POSTGRES_DSN", "postgres://localhost/itin")
	defer unsetEnv()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.Debounce != 250*time.Millisecond {
		t.Fatalf("debounce override failed, got %s", cfg.Debounce)
	}
	if cfg.DevDBDriver != "postgres" {
		t.Fatalf("expected postgres to be derived from DSN, got %s", cfg.DevDBDriver)
	}
}

func TestResolveDefaults_Rejects(t *testing.T) {
	cases := map[string]Config{
		"unknown driver":   {DevDBDriver: "mysql", Debounce: time.Second, LoadMaxAttempts: 1},
		"postgres no dsn":  {DevDBDriver: "postgres", Debounce: time.Second, LoadMaxAttempts: 1},
		"zero debounce":    {DevDBDriver: "sqlite", LoadMaxAttempts: 1},
		"negative window":  {DevDBDriver: "sqlite", Debounce: time.Second, ErrorDisplay: -time.Second, LoadMaxAttempts: 1},
		"no load attempts": {DevDBDriver: "sqlite", Debounce: time.Second},
	}
	for name, cfg := range cases {
		cfg := cfg
		if err := cfg.ResolveDefaults(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestNewForTesting_Resolves(t *testing.T) {
	cfg := NewForTesting(t.TempDir() + "/test.db")
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("testing config should resolve: %v", err)
	}
	if cfg.Environment != EnvTesting {
		t.Fatalf("expected testing environment")
	}
}
