package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"studiobook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers accepted in store.driver.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Store      StoreConfig      `yaml:"store"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Backup     BackupConfig     `yaml:"backup"`
	Studio     StudioConfig     `yaml:"studio"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Exports    ExportConfig     `yaml:"exports"`
	Bot        BotConfig        `yaml:"bot"`
}

type BotConfig struct {
	// Operators lists Telegram user ids allowed to drive the bot. Empty means everyone.
	Operators         []int64 `yaml:"operators"`
	RateLimitMessages int     `yaml:"rate_limit_messages"`
	RateLimitWindow   int     `yaml:"rate_limit_window"`
	// Sessions selects where conversation state lives: memory or redis.
	Sessions string `yaml:"sessions"`
}

type StudioConfig struct {
	TimeSlots []string `yaml:"time_slots"`
	// APIDelay is awaited before every booking service call touches the store.
	APIDelay       time.Duration `yaml:"api_delay"`
	StrictBookings bool          `yaml:"strict_bookings"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	// Path is the SQLite database file.
	Path        string `yaml:"path"`
	RedisPrefix string `yaml:"redis_prefix"`
	// Failover keeps the service usable on an in-memory copy while the primary is down.
	Failover bool `yaml:"failover"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type PostgresConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`
}

// DSN renders the connection URL understood by pgx.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   p.Host + ":" + strconv.Itoa(p.Port),
		Path:   "/" + p.DBName,
	}
	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	q := url.Values{}
	if p.SSLMode != "" {
		q.Set("sslmode", p.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; values already in the environment win
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.Path == "" {
			return errors.New("store path is required for the sqlite driver")
		}
	case StoreRedis:
		if c.Redis.Address == "" {
			return errors.New("redis address is required for the redis driver")
		}
	case StorePostgres:
		if c.Postgres.Host == "" || c.Postgres.DBName == "" {
			return errors.New("postgres host and dbname are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Studio.APIDelay < 0 {
		return errors.New("studio api_delay must not be negative")
	}

	if c.Bot.Sessions != "memory" && c.Bot.Sessions != "redis" {
		return fmt.Errorf("unknown bot sessions backend %q", c.Bot.Sessions)
	}

	return ValidateTimeSlots(c.Studio.TimeSlots)
}

// ValidateTelegram checks the settings only the bot binary needs.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}
	return nil
}

func ValidateTimeSlots(slots []string) error {
	if len(slots) == 0 {
		return errors.New("at least one time slot is required")
	}
	seen := make(map[string]bool, len(slots))
	for i, slot := range slots {
		if strings.TrimSpace(slot) == "" {
			return fmt.Errorf("time slot #%d is blank", i+1)
		}
		if seen[slot] {
			return fmt.Errorf("duplicate time slot found: %q", slot)
		}
		seen[slot] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = StoreSQLite
	}
	if c.Store.Driver == StoreSQLite && c.Store.Path == "" {
		c.Store.Path = "data/studiobook.db"
	}
	if c.Store.RedisPrefix == "" {
		c.Store.RedisPrefix = "studiobook"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}

	if len(c.Studio.TimeSlots) == 0 {
		c.Studio.TimeSlots = append([]string(nil), models.DefaultTimeSlots...)
	}

	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	// auth follows the key list: no keys, no auth
	if len(c.API.Auth.APIKeys) > 0 {
		c.API.Auth.Enabled = true
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}

	if c.Backup.Schedule == "" {
		c.Backup.Schedule = "24h"
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}

	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = models.RateLimitWindow
	}
	if c.Bot.Sessions == "" {
		c.Bot.Sessions = "memory"
	}
}
