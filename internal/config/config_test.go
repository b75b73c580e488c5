package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	orig := os.Getenv("JWT_SECRET")
	os.Unsetenv("JWT_SECRET")
	defer restoreEnv("JWT_SECRET", orig)

	if _, err := Load(); err == nil {
		t.Fatal("Load without JWT_SECRET: want error, got nil")
	}
}

func TestLoad_Defaults(t *testing.T) {
	orig := os.Getenv("JWT_SECRET")
	os.Setenv("JWT_SECRET", "test-secret")
	defer restoreEnv("JWT_SECRET", orig)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port: want 8080, got %d", cfg.Port)
	}
	if cfg.MediaStorage != "local" {
		t.Errorf("MediaStorage: want 'local', got %q", cfg.MediaStorage)
	}
	if cfg.UploadsRoot != "./data" {
		t.Errorf("UploadsRoot: want './data', got %q", cfg.UploadsRoot)
	}
	if cfg.SweepGrace != 15*time.Minute {
		t.Errorf("SweepGrace: want 15m, got %v", cfg.SweepGrace)
	}
}

func TestLoad_S3RequiresBucket(t *testing.T) {
	origSecret := os.Getenv("JWT_SECRET")
	origStorage := os.Getenv("MEDIA_STORAGE")
	origBucket := os.Getenv("S3_BUCKET")
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("MEDIA_STORAGE", "s3")
	os.Unsetenv("S3_BUCKET")
	defer func() {
		restoreEnv("JWT_SECRET", origSecret)
		restoreEnv("MEDIA_STORAGE", origStorage)
		restoreEnv("S3_BUCKET", origBucket)
	}()

	if _, err := Load(); err == nil {
		t.Fatal("MEDIA_STORAGE=s3 without bucket: want error, got nil")
	}
}

func TestGetEnvDuration(t *testing.T) {
	os.Setenv("TEST_SWEEP_GRACE", "45m")
	defer os.Unsetenv("TEST_SWEEP_GRACE")

	if got := getEnvDuration("TEST_SWEEP_GRACE", time.Minute); got != 45*time.Minute {
		t.Errorf("getEnvDuration: want 45m, got %v", got)
	}
	if got := getEnvDuration("TEST_MISSING_KEY", time.Minute); got != time.Minute {
		t.Errorf("getEnvDuration fallback: want 1m, got %v", got)
	}
}

func restoreEnv(key, val string) {
	if val != "" {
		os.Setenv(key, val)
	} else {
		os.Unsetenv(key)
	}
}
