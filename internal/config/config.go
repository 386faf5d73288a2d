package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token media names accepted by TOKEN_MEDIA.
const (
	MediumRedis  = "redis"
	MediumBolt   = "bolt"
	MediumMemory = "memory"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Tokens      TokenConfig
	Guard       GuardConfig
	Notify      NotifyConfig
	Windows     WindowsConfig
	Queue       QueueConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxConn       int
	EnableMetrics bool
}

type DatabaseConfig struct {
	Enabled         bool
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	DefaultTTL time.Duration
}

// TokenConfig selects where the session token lives.
type TokenConfig struct {
	Media    []string
	BoltPath string
}

type GuardConfig struct {
	RecheckInterval time.Duration
	AuthRoute       string
}

type NotifyConfig struct {
	Origin    string
	InboxSize int
}

type WindowsConfig struct {
	AllowOpen     bool
	TTL           time.Duration
	PruneInterval time.Duration
}

type QueueConfig struct {
	Enabled bool
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "dashboard-edge"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:          getString("SERVER_HOST", "0.0.0.0"),
			Port:          getString("SERVER_PORT", "8080"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:       getInt("SERVER_MAX_CONN", 0),
			EnableMetrics: getBool("SERVER_ENABLE_METRICS", false),
		},
		Database: DatabaseConfig{
			Enabled:         getBool("DB_ENABLED", true),
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "dashboard"),
			User:            getString("DB_USER", "dashboard"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 2),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			Issuer:     getString("JWT_ISSUER", "dashboard-edge"),
			DefaultTTL: getDuration("JWT_TTL", time.Hour),
		},
		Tokens: TokenConfig{
			Media:    getList("TOKEN_MEDIA", []string{MediumRedis, MediumBolt}),
			BoltPath: getString("BOLTDB_PATH", "./data/tokens.db"),
		},
		Guard: GuardConfig{
			RecheckInterval: getDuration("GUARD_RECHECK_INTERVAL", 60*time.Second),
			AuthRoute:       getString("GUARD_AUTH_ROUTE", "/auth"),
		},
		Notify: NotifyConfig{
			Origin:    getString("APP_ORIGIN", "http://localhost:3000"),
			InboxSize: getInt("NOTIFY_INBOX_SIZE", 64),
		},
		Windows: WindowsConfig{
			AllowOpen:     getBool("WINDOW_ALLOW_OPEN", true),
			TTL:           getDuration("WINDOW_TTL", 2*time.Minute),
			PruneInterval: getDuration("WINDOW_PRUNE_INTERVAL", 30*time.Second),
		},
		Queue: QueueConfig{
			Enabled: getBool("QUEUE_ENABLED", false),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// UsesMedium reports whether name is among the configured token media.
func (c *Config) UsesMedium(name string) bool {
	for _, m := range c.Tokens.Media {
		if m == name {
			return true
		}
	}
	return false
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}

func (c *Config) validate() error {
	if len(c.Tokens.Media) == 0 {
		return fmt.Errorf("TOKEN_MEDIA must name at least one medium")
	}
	for _, m := range c.Tokens.Media {
		switch m {
		case MediumRedis, MediumBolt, MediumMemory:
		default:
			return fmt.Errorf("unknown token medium %q", m)
		}
	}
	if !strings.HasPrefix(c.Guard.AuthRoute, "/") {
		return fmt.Errorf("GUARD_AUTH_ROUTE must start with '/'")
	}
	if c.Guard.RecheckInterval <= 0 {
		return fmt.Errorf("GUARD_RECHECK_INTERVAL must be positive")
	}
	return nil
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
