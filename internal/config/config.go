// Package config loads FederationServer's typed, layered configuration:
// defaults overridden by FEDERATION_* (and DATABASE_*/REDIS_*) environment
// variables, with an optional .env file loaded first for local development.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the root configuration object.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	Maintenance MaintenanceConfig
	Logging     LoggingConfig
}

// LoggingConfig controls zerolog construction.
type LoggingConfig struct {
	Level  string
	Format string // "json" or "console"
}

// ServerConfig holds server-level behavior and the per-kind public-read toggles.
type ServerConfig struct {
	Port            string
	BaseURL         string
	Name            string
	APIKey          string // master operator API key
	MaxUploadSize   int64  // bytes
	StoragePath     string
	MaxItemsPerKind int
	MinBlacklistTime time.Duration

	PublicAuditLogs  bool
	PublicEvidence   bool
	PublicBlacklist  bool
	PublicEntities   bool
	PublicAuditTypes []string // audit entry types exposed to anonymous listers

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string
	Port            string
	Username        string
	Password        string
	Name            string
	Charset         string
	Collation       string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN builds a pgx-compatible connection string from the parts above.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.Username, d.Password, d.Host, d.Port, d.Name,
	)
}

// CacheConfig holds Redis settings and per-kind cache policy.
type CacheConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	Database int

	ThrowOnErrors        bool
	PreCacheEnabled      bool
	SystemCachingEnabled bool

	Kinds map[string]CacheKindConfig // "operators", "entities", "evidence", "attachments", "blacklist", "audit"
}

// CacheKindConfig is the per-record-kind cache policy.
type CacheKindConfig struct {
	Enabled bool
	Limit   int
	TTL     time.Duration
}

// Addr returns host:port for the redis client.
func (c CacheConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// MaintenanceConfig controls the scheduled/CLI-driven cleanup operations.
type MaintenanceConfig struct {
	Enabled             bool
	CleanAuditLogsDays  int
	CleanBlacklistDays  int
}

var cacheKindNames = []string{"operators", "entities", "evidence", "attachments", "blacklist", "audit"}

// Load reads configuration from the environment, optionally preceded by a
// .env file in the working directory (ignored if absent — this mirrors the
// teacher's local-development convenience, not a production requirement).
func Load() (*Config, error) {
	_ = godotenv.Load()

	masterKey := getEnv("FEDERATION_API_KEY", "")
	if masterKey == "" {
		generated, err := randomAlnum(32)
		if err != nil {
			return nil, fmt.Errorf("generate master api key: %w", err)
		}
		masterKey = generated
	}
	if len(masterKey) != 32 {
		return nil, fmt.Errorf("FEDERATION_API_KEY must be exactly 32 characters, got %d", len(masterKey))
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:              getEnv("PORT", "8080"),
			BaseURL:           getEnv("FEDERATION_BASE_URL", "http://localhost:8080"),
			Name:              getEnv("FEDERATION_NAME", "FederationServer"),
			APIKey:            masterKey,
			MaxUploadSize:     getInt64Env("FEDERATION_MAX_UPLOAD_SIZE", 50*1024*1024),
			StoragePath:       getEnv("FEDERATION_STORAGE_PATH", "./storage"),
			MaxItemsPerKind:   getIntEnv("FEDERATION_MAX_ITEMS_PER_KIND", 100),
			MinBlacklistTime:  getDurationSecondsEnv("FEDERATION_MIN_BLACKLIST_TIME", 30*time.Minute),
			PublicAuditLogs:   getBoolEnv("FEDERATION_PUBLIC_AUDIT_LOGS", false),
			PublicEvidence:    getBoolEnv("FEDERATION_PUBLIC_EVIDENCE", false),
			PublicBlacklist:   getBoolEnv("FEDERATION_PUBLIC_BLACKLIST", true),
			PublicEntities:    getBoolEnv("FEDERATION_PUBLIC_ENTITIES", true),
			PublicAuditTypes:  getListEnv("FEDERATION_PUBLIC_AUDIT_ENTRIES", []string{}),
			ReadTimeout:       getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:   getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("FEDERATION_DATABASE_HOST", "localhost"),
			Port:            getEnv("FEDERATION_DATABASE_PORT", "5432"),
			Username:        getEnv("FEDERATION_DATABASE_USERNAME", "federation"),
			Password:        getEnv("FEDERATION_DATABASE_PASSWORD", "federation"),
			Name:            getEnv("FEDERATION_DATABASE_NAME", "federation"),
			Charset:         getEnv("FEDERATION_DATABASE_CHARSET", "utf8mb4"),
			Collation:       getEnv("FEDERATION_DATABASE_COLLATION", "utf8mb4_unicode_ci"),
			MaxOpenConns:    getIntEnv("FEDERATION_DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("FEDERATION_DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("FEDERATION_DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Cache: CacheConfig{
			Enabled:              getBoolEnv("FEDERATION_REDIS_ENABLED", false),
			Host:                 getEnv("FEDERATION_REDIS_HOST", "localhost"),
			Port:                 getEnv("FEDERATION_REDIS_PORT", "6379"),
			Password:             getEnv("FEDERATION_REDIS_PASSWORD", ""),
			Database:             getIntEnv("FEDERATION_REDIS_DATABASE", 0),
			ThrowOnErrors:        getBoolEnv("FEDERATION_CACHE_THROW_ON_ERRORS", false),
			PreCacheEnabled:      getBoolEnv("FEDERATION_CACHE_PRE_CACHE_ENABLED", false),
			SystemCachingEnabled: getBoolEnv("FEDERATION_CACHE_SYSTEM_CACHING_ENABLED", true),
			Kinds:                make(map[string]CacheKindConfig, len(cacheKindNames)),
		},
		Maintenance: MaintenanceConfig{
			Enabled:            getBoolEnv("FEDERATION_MAINTENANCE_ENABLED", true),
			CleanAuditLogsDays: getIntEnv("FEDERATION_MAINTENANCE_CLEAN_AUDIT_LOGS_DAYS", 365),
			CleanBlacklistDays: getIntEnv("FEDERATION_MAINTENANCE_CLEAN_BLACKLIST_DAYS", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	for _, kind := range cacheKindNames {
		prefix := "FEDERATION_CACHE_" + strings.ToUpper(kind)
		cfg.Cache.Kinds[kind] = CacheKindConfig{
			Enabled: getBoolEnv(prefix+"_ENABLED", true),
			Limit:   getIntEnv(prefix+"_LIMIT", 10000),
			TTL:     getDurationSecondsEnv(prefix+"_TTL", 5*time.Minute),
		}
	}

	return cfg, nil
}

func randomAlnum(n int) (string, error) {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range raw {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getInt64Env(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// getDurationSecondsEnv parses a plain integer count of seconds (the wire
// format used throughout spec.md for things like min_blacklist_time and
// per-kind TTLs) rather than a Go duration literal.
func getDurationSecondsEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

func getListEnv(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// ClampLimit applies the [1, max] clamp spec.md §4.11 requires, defaulting
// to max when requested is <= 0.
func (c ServerConfig) ClampLimit(requested int) int {
	if requested <= 0 {
		return c.MaxItemsPerKind
	}
	if requested > c.MaxItemsPerKind {
		return c.MaxItemsPerKind
	}
	return requested
}

// ClampPage applies the >=1 clamp spec.md §4.11 requires.
func (c ServerConfig) ClampPage(requested int) int {
	if requested < 1 {
		return 1
	}
	return requested
}
