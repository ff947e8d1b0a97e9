package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
http:
  addr: ":9090"
telegram:
  bot_token: "123:abc"
  max_auth_age: 1h
auth:
  cookie_name: sid
bot:
  orphan_retention: 48h
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Telegram.BotToken != "123:abc" {
		t.Fatalf("unexpected telegram bot token: %q", cfg.Telegram.BotToken)
	}
	if cfg.Telegram.MaxAuthAge != time.Hour {
		t.Fatalf("unexpected telegram max auth age: %s", cfg.Telegram.MaxAuthAge)
	}
	if cfg.Auth.CookieName != "sid" {
		t.Fatalf("unexpected cookie name: %s", cfg.Auth.CookieName)
	}
	if cfg.Bot.OrphanRetention != 48*time.Hour {
		t.Fatalf("unexpected orphan retention: %s", cfg.Bot.OrphanRetention)
	}

	if cfg.Auth.SessionTTL != 30*24*time.Hour {
		t.Fatalf("session ttl default should stay 720h, got %s", cfg.Auth.SessionTTL)
	}
	if !cfg.Metrics.Enabled {
		t.Fatalf("metrics should stay enabled by default")
	}
	if cfg.BotToken() != "123:abc" {
		t.Fatalf("bot token should fall back to the widget token, got %q", cfg.BotToken())
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.Env != "dev" {
		t.Fatalf("unexpected default env: %s", cfg.Env)
	}
	if cfg.Telegram.MaxAuthAge != 24*time.Hour {
		t.Fatalf("unexpected default max auth age: %s", cfg.Telegram.MaxAuthAge)
	}
	if cfg.S3.Bucket != "orgreviews-files" {
		t.Fatalf("unexpected default bucket: %s", cfg.S3.Bucket)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("TELEGRAM_MAX_AUTH_AGE", "0s")
	t.Setenv("BOT_TOKEN", "bot-token")
	t.Setenv("TELEGRAM_BOT_TOKEN", "widget-token")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":7070" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Telegram.MaxAuthAge != 0 {
		t.Fatalf("max auth age override should disable the check, got %s", cfg.Telegram.MaxAuthAge)
	}
	if cfg.Redis.DB != 3 {
		t.Fatalf("unexpected redis db: %d", cfg.Redis.DB)
	}
	if cfg.BotToken() != "bot-token" {
		t.Fatalf("explicit bot token should win, got %q", cfg.BotToken())
	}
}

func TestLoadRejectsInvalidEnvValue(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("REDIS_DB", "not-a-number")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for malformed REDIS_DB")
	}
}

func TestLoadRejectsDefaultSecretsInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error when secrets are left at defaults in production")
	}

	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("SESSION_HASH_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	if _, err := Load(""); err != nil {
		t.Fatalf("production config with secrets should load: %v", err)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"POSTGRES_MIGRATE_ON_STARTUP",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_USE_SSL",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"SESSION_TTL",
		"SESSION_HASH_KEY",
		"SESSION_BLOCK_KEY",
		"SESSION_COOKIE_SECURE",
		"TELEGRAM_BOT_TOKEN",
		"TELEGRAM_BOT_NAME",
		"TELEGRAM_MAX_AUTH_AGE",
		"BOT_TOKEN",
		"BOT_NOTIFY_DECISIONS",
		"BOT_CLEANUP_INTERVAL",
		"BOT_ORPHAN_RETENTION",
		"METRICS_ENABLED",
	} {
		t.Setenv(key, "")
	}
}
