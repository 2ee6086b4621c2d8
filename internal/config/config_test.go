package config

import (
	"testing"
	"time"

	"github.com/langchou/ridegazer/internal/geo"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_DIRS", "data/a, data/b.db,")
	for _, key := range []string{"PORT", "DISTANCE_MODE", "WORKERS", "REFRESH_INTERVAL", "REFRESH_TIMEOUT", "TOKEN_TTL", "AUTH_USERS", "DATABASE_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerPort != "4000" || cfg.Workers != 4 || cfg.DistanceMode != geo.ModeStandard {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.DataDirs) != 2 || cfg.DataDirs[1] != "data/b.db" {
		t.Fatalf("unexpected data dirs %v", cfg.DataDirs)
	}
	if cfg.RefreshInterval != 0 || cfg.RefreshTimeout != 2*time.Minute || cfg.TokenTTL != 8*time.Hour {
		t.Fatalf("unexpected durations %+v", cfg)
	}
	if cfg.AuthUsers["bob"] != "secret" || cfg.AuthUsers["alice"] != "secret2" {
		t.Fatalf("unexpected users %v", cfg.AuthUsers)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing data dirs", map[string]string{"DATA_DIRS": ""}},
		{"bad distance mode", map[string]string{"DISTANCE_MODE": "flat"}},
		{"bad workers", map[string]string{"WORKERS": "many"}},
		{"zero workers", map[string]string{"WORKERS": "0"}},
		{"bad interval", map[string]string{"REFRESH_INTERVAL": "often"}},
		{"negative timeout", map[string]string{"REFRESH_TIMEOUT": "-1s"}},
		{"bad users", map[string]string{"AUTH_USERS": "bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATA_DIRS", "data")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
