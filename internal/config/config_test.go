package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address() != ":42067" {
		t.Fatalf("expected :42067, got %s", cfg.Address())
	}
	if cfg.OTP.TTL != 10*time.Minute {
		t.Fatalf("expected 10m otp ttl, got %s", cfg.OTP.TTL)
	}
	if cfg.Proximity.ThresholdMeters != 3.048 {
		t.Fatalf("expected 3.048 threshold, got %v", cfg.Proximity.ThresholdMeters)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("PORT", ":9000")
	t.Setenv("OTP_TTL", "0s")
	t.Setenv("PROXIMITY_THRESHOLD_METERS", "12.5")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")
	t.Setenv("LOGIN_ATTEMPTS_PER_HOUR", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address() != ":9000" {
		t.Fatalf("expected :9000, got %s", cfg.Address())
	}
	if cfg.OTP.TTL != 0 {
		t.Fatalf("expected otp ttl disabled, got %s", cfg.OTP.TTL)
	}
	if cfg.Proximity.ThresholdMeters != 12.5 {
		t.Fatalf("expected 12.5 threshold, got %v", cfg.Proximity.ThresholdMeters)
	}
	if cfg.ShutdownPeriod != 3*time.Second {
		t.Fatalf("expected 3s shutdown, got %s", cfg.ShutdownPeriod)
	}
	if cfg.Accounts.LoginAttemptsPerHour != 4 {
		t.Fatalf("expected 4 login attempts, got %d", cfg.Accounts.LoginAttemptsPerHour)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PROXIMITY_THRESHOLD_METERS", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative threshold")
	}
}

func TestLoadRequiresSecretsOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("ADMIN_PASSWORD_HASH", "")
	t.Setenv("ADMIN_JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when admin credentials are missing in production")
	}
}
