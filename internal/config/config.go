package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	RequestLog RequestLogConfig `mapstructure:"request_log"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

type AppConfig struct {
	Version string `mapstructure:"version"`
}

// ServerConfig.TrustedProxies names the proxies whose X-Forwarded-For is
// honoured when resolving the client IP. Empty means the socket peer is the
// client.
type ServerConfig struct {
	Port                   string   `mapstructure:"port"`
	Mode                   string   `mapstructure:"mode"` // gin mode: debug, release, test
	ShutdownTimeoutSeconds int      `mapstructure:"shutdown_timeout_seconds"`
	TrustedProxies         []string `mapstructure:"trusted_proxies"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

type DatabaseConfig struct {
	Driver               string `mapstructure:"driver"` // postgres or sqlite
	DSN                  string `mapstructure:"dsn"`
	MaxRetries           int    `mapstructure:"max_retries"`
	MaxRetryDelaySeconds int    `mapstructure:"max_retry_delay_seconds"`
	MaxOpenConns         int    `mapstructure:"max_open_conns"`
	MaxIdleConns         int    `mapstructure:"max_idle_conns"`
}

type StorageConfig struct {
	Backend        string      `mapstructure:"backend"` // local or minio
	UploadDir      string      `mapstructure:"upload_dir"`
	URLPrefix      string      `mapstructure:"url_prefix"`
	ScratchDir     string      `mapstructure:"scratch_dir"`
	MaxUploadBytes int64       `mapstructure:"max_upload_bytes"`
	Minio          MinioConfig `mapstructure:"minio"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type RequestLogConfig struct {
	MaxBodyChars int `mapstructure:"max_body_chars"`
}

type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	LogListKey string `mapstructure:"log_list_key"`
	LogListMax int    `mapstructure:"log_list_max"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// Load reads config.yaml (from . or ./configs), then CLIENTS_* environment
// variables, e.g. CLIENTS_DATABASE_DSN. A .env file is applied to the
// environment first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("clients")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Keys without a default are invisible to AutomaticEnv during Unmarshal,
	// so every key gets one, even if empty.
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_retries", 5)
	v.SetDefault("database.max_retry_delay_seconds", 30)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.upload_dir", "./UploadedFiles")
	v.SetDefault("storage.url_prefix", "/UploadedFiles")
	v.SetDefault("storage.scratch_dir", os.TempDir())
	v.SetDefault("storage.max_upload_bytes", 100<<20)
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.bucket", "")
	v.SetDefault("storage.minio.use_ssl", false)

	v.SetDefault("request_log.max_body_chars", 4000)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.log_list_key", "api_logs")
	v.SetDefault("redis.log_list_max", 10000)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 20)
	v.SetDefault("rate_limit.burst", 40)
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.New("database.driver must be postgres or sqlite")
	}
	switch c.Storage.Backend {
	case "local":
		if strings.TrimSpace(c.Storage.UploadDir) == "" {
			return errors.New("storage.upload_dir is required for the local backend")
		}
	case "minio":
		m := c.Storage.Minio
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" || m.Bucket == "" {
			return errors.New("minio configuration incomplete")
		}
	default:
		return errors.New("storage.backend must be local or minio")
	}
	if !strings.HasPrefix(c.Storage.URLPrefix, "/") {
		return errors.New("storage.url_prefix must start with /")
	}
	if c.RequestLog.MaxBodyChars <= 0 {
		return errors.New("request_log.max_body_chars must be positive")
	}
	return nil
}
