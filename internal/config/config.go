package config

import (
	"errors"
	"fmt"
	"os"

	"parkhub/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig            `yaml:"app"`
	Database   DatabaseConfig       `yaml:"database"`
	Redis      RedisConfig          `yaml:"redis"`
	Backup     BackupConfig         `yaml:"backup"`
	Monitoring MonitoringConfig     `yaml:"monitoring"`
	Logging    LoggingConfig        `yaml:"logging"`
	API        APIConfig            `yaml:"api"`
	Auth       AuthConfig           `yaml:"auth"`
	Catalog    CatalogConfig        `yaml:"catalog"`
	Spots      []models.ParkingSpot `yaml:"spots"`
	Exports    ExportConfig         `yaml:"exports"`
	Google     GoogleConfig         `yaml:"google"`
	Notify     NotifyConfig         `yaml:"notify"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
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

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Admin     APIAdminConfig     `yaml:"admin"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

// APIAdminConfig guards operational endpoints (exports, failed sync
// tasks) with static API keys, separate from user sessions.
type APIAdminConfig struct {
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AuthConfig struct {
	SessionTTLSeconds int `yaml:"session_ttl"`
	RateLimitRequests int `yaml:"rate_limit_requests"`
	RateLimitWindow   int `yaml:"rate_limit_window"`
}

type CatalogConfig struct {
	// Source selects the catalog implementation: static, remote or
	// failover (remote with static fallback).
	Source         string `yaml:"source"`
	RemoteBaseURL  string `yaml:"remote_base_url"`
	TimeoutSeconds int    `yaml:"timeout"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type GoogleConfig struct {
	GoogleCredentialsFile string `yaml:"credentials_file"`
	BookingSpreadSheetID  string `yaml:"bookings_spreadsheet_id"`
}

type NotifyConfig struct {
	TelegramToken string `yaml:"telegram_token"`
	ChatID        int64  `yaml:"chat_id"`
}

func Load(configPath string) (*Config, error) {
	// .env дополняет окружение, его отсутствие не ошибка
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
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
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	switch c.Catalog.Source {
	case "static":
		if len(c.Spots) == 0 {
			return errors.New("catalog.source=static requires a spots list")
		}
	case "remote":
		if c.Catalog.RemoteBaseURL == "" {
			return errors.New("catalog.source=remote requires catalog.remote_base_url")
		}
	case "failover":
		if c.Catalog.RemoteBaseURL == "" || len(c.Spots) == 0 {
			return errors.New("catalog.source=failover requires both catalog.remote_base_url and a spots list")
		}
	default:
		return fmt.Errorf("unknown catalog source: %s", c.Catalog.Source)
	}

	return ValidateSpots(c.Spots)
}

func ValidateSpots(spots []models.ParkingSpot) error {
	seen := make(map[string]bool)
	for i := range spots {
		if err := spots[i].Validate(); err != nil {
			return err
		}
		if seen[spots[i].ID] {
			return fmt.Errorf("duplicate spot id found: %s", spots[i].ID)
		}
		seen[spots[i].ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Admin.HeaderAPIKey == "" {
		c.API.Admin.HeaderAPIKey = "x-api-key"
	}

	if c.Catalog.Source == "" {
		c.Catalog.Source = "static"
	}
	if c.Catalog.TimeoutSeconds == 0 {
		c.Catalog.TimeoutSeconds = 10
	}

	if c.Auth.SessionTTLSeconds == 0 {
		c.Auth.SessionTTLSeconds = models.DefaultSessionTTL
	}
	if c.Auth.RateLimitRequests == 0 {
		c.Auth.RateLimitRequests = models.RateLimitRequests
	}
	if c.Auth.RateLimitWindow == 0 {
		c.Auth.RateLimitWindow = models.RateLimitWindow
	}
}
