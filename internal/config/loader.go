package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BETLINK_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known BETLINK_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.ClobHost, "BETLINK_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.WsHost, "BETLINK_POLYMARKET_WS_HOST")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "BETLINK_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "BETLINK_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "BETLINK_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "BETLINK_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "BETLINK_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "BETLINK_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "BETLINK_POSTGRES_SSLMODE")
	setStr(&cfg.Postgres.SSLMode, "BETLINK_POSTGRES_SSL_MODE") // compatibility alias
	setInt(&cfg.Postgres.PoolMaxConns, "BETLINK_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "BETLINK_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "BETLINK_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "BETLINK_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BETLINK_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BETLINK_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BETLINK_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BETLINK_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BETLINK_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "BETLINK_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "BETLINK_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "BETLINK_S3_REGION")
	setStr(&cfg.S3.Bucket, "BETLINK_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "BETLINK_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "BETLINK_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "BETLINK_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "BETLINK_S3_FORCE_PATH_STYLE")

	// ── Watch ──
	setDuration(&cfg.Watch.Interval, "BETLINK_WATCH_INTERVAL")
	setInt(&cfg.Watch.Concurrency, "BETLINK_WATCH_CONCURRENCY")
	setInt(&cfg.Watch.PageSize, "BETLINK_WATCH_PAGE_SIZE")
	setDuration(&cfg.Watch.ArchiveInterval, "BETLINK_WATCH_ARCHIVE_INTERVAL")
	setBool(&cfg.Watch.UseWebsocket, "BETLINK_WATCH_USE_WEBSOCKET")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "BETLINK_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "BETLINK_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "BETLINK_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "BETLINK_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "BETLINK_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "BETLINK_SERVER_RATE_LIMIT_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "BETLINK_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BETLINK_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "BETLINK_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "BETLINK_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "BETLINK_MODE")
	setStr(&cfg.LogLevel, "BETLINK_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
