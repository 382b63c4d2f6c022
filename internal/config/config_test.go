package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("BUSINESS_TIMEZONE", "")
	t.Setenv("FREEBUSY_INTERVAL_MINUTES", "")
	t.Setenv("ROOM_EXCLUDE", " do not book , ,test ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BusinessTimezone.String() != "Europe/London" {
		t.Fatalf("unexpected tz %s", cfg.BusinessTimezone)
	}
	if cfg.FreeBusyInterval != 30*time.Minute || cfg.ExternalCallTimeout != 10*time.Second {
		t.Fatalf("unexpected durations %s %s", cfg.FreeBusyInterval, cfg.ExternalCallTimeout)
	}
	if len(cfg.RoomExclude) != 2 || cfg.RoomExclude[0] != "do not book" || cfg.RoomExclude[1] != "test" {
		t.Fatalf("unexpected exclusion list %q", cfg.RoomExclude)
	}
	if cfg.GoogleConfigured() {
		t.Fatal("google should not be configured")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"postgres without url", "DATABASE_URL", ""},
		{"unknown store", "STORE", "mongo"},
		{"bad timezone", "BUSINESS_TIMEZONE", "Mars/Olympus"},
		{"zero interval", "FREEBUSY_INTERVAL_MINUTES", "0"},
		{"bad duration", "EXTERNAL_CALL_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORE", "memory")
			if tt.name == "postgres without url" {
				t.Setenv("STORE", "postgres")
			}
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
