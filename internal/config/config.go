package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"

	EnvPrefix = "SHAREIT"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type RedisConfig struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	PoolSize  int    `yaml:"pool_size"`
	KeyPrefix string `yaml:"key_prefix"`
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
	HTTP          APIHTTPConfig          `yaml:"http"`
	GRPC          APIGRPCConfig          `yaml:"grpc"`
	Auth          APIAuthConfig          `yaml:"auth"`
	RateLimit     APIRateLimitConfig     `yaml:"rate_limit"`
	UserRateLimit APIUserRateLimitConfig `yaml:"user_rate_limit"`
	Pagination    PaginationConfig       `yaml:"pagination"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
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

// APIRateLimitConfig is a token bucket per API key.
type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// APIUserRateLimitConfig is a fixed window per X-Sharer-User-Id.
type APIUserRateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type PaginationConfig struct {
	DefaultSize int `yaml:"default_size"`
	MaxSize     int `yaml:"max_size"`
}

// envOverrides are applied after the YAML file, e.g. SHAREIT_DATABASE_PATH.
type envOverrides struct {
	Environment   string `envconfig:"APP_ENV"`
	DatabaseDrv   string `envconfig:"DATABASE_DRIVER"`
	DatabasePath  string `envconfig:"DATABASE_PATH"`
	RedisAddress  string `envconfig:"REDIS_ADDRESS"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
	HTTPPort      int    `envconfig:"HTTP_PORT"`
	GRPCPort      int    `envconfig:"GRPC_PORT"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("parse env overrides: %w", err)
	}
	if env.Environment != "" {
		c.App.Environment = env.Environment
	}
	if env.DatabaseDrv != "" {
		c.Database.Driver = env.DatabaseDrv
	}
	if env.DatabasePath != "" {
		c.Database.Path = env.DatabasePath
	}
	if env.RedisAddress != "" {
		c.Redis.Address = env.RedisAddress
	}
	if env.RedisPassword != "" {
		c.Redis.Password = env.RedisPassword
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
	if env.HTTPPort != 0 {
		c.API.HTTP.Port = env.HTTPPort
	}
	if env.GRPCPort != 0 {
		c.API.GRPC.Port = env.GRPCPort
	}
	return nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case StorageSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.API.GRPC.TLS.Enabled && (c.API.GRPC.TLS.CertFile == "" || c.API.GRPC.TLS.KeyFile == "") {
		return errors.New("grpc tls requires cert_file and key_file")
	}

	if c.API.Pagination.DefaultSize > c.API.Pagination.MaxSize {
		return fmt.Errorf("pagination default_size %d exceeds max_size %d",
			c.API.Pagination.DefaultSize, c.API.Pagination.MaxSize)
	}

	return validateAPIKeys(c.API.Auth)
}

func validateAPIKeys(auth APIAuthConfig) error {
	if auth.Enabled && len(auth.APIKeys) == 0 {
		return errors.New("api auth enabled but no api_keys configured")
	}
	seen := make(map[string]bool, len(auth.APIKeys))
	for _, k := range auth.APIKeys {
		if k.Key == "" {
			return fmt.Errorf("api key %q has empty key", k.Name)
		}
		if seen[k.Key] {
			return fmt.Errorf("duplicate api key for client %q", k.Name)
		}
		seen[k.Key] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "shareit"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = StorageSQLite
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 9091
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.API.UserRateLimit.Requests > 0 && c.API.UserRateLimit.Window == 0 {
		c.API.UserRateLimit.Window = time.Minute
	}
	if c.API.Pagination.DefaultSize == 0 {
		c.API.Pagination.DefaultSize = 10
	}
	if c.API.Pagination.MaxSize == 0 {
		c.API.Pagination.MaxSize = 100
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = c.App.Name
	}
}
