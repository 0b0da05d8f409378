package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Version key policies for committed uploads.
const (
	// VersionKeysPerVersion stores every committed version under users/{owner}/{doc}/v{n}.
	VersionKeysPerVersion = "per_version"
	// VersionKeysLegacy reuses the document key for every version, overwriting prior bytes.
	VersionKeysLegacy = "legacy"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO or any S3-compatible endpoint.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// AuthConfig holds the bearer token verification settings.
type AuthConfig struct {
	JWTSecret string
}

// UploadConfig controls the presigned upload lifecycle.
type UploadConfig struct {
	URLTTL           time.Duration
	MaxSize          int64
	VersionKeys      string
	VerifyOnComplete bool
	CommitRetries    int

	// CommitBackoff is the base delay between conflicting commit attempts; it grows
	// exponentially with jitter.
	CommitBackoff time.Duration

	// StageTimeout bounds the server-side copy made while a commit holds the row lock.
	StageTimeout time.Duration
}

// HTTPConfig holds the request-level protections applied to every route.
type HTTPConfig struct {
	BodyLimitMB     int
	CORSOrigins     string
	CORSCredentials bool
	Compress        bool

	// RateLimitMax requests per RateLimitWindow per client IP; zero disables the limiter.
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// SweeperConfig controls the background reclaim of abandoned pending uploads.
type SweeperConfig struct {
	Enabled   bool
	Interval  time.Duration
	Grace     time.Duration
	BatchSize int
}

// LogConfig controls the zap logger and its optional rotating file output.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables and, optionally, a YAML file whose keys are the
// lower-cased variable names (db_host, minio_bucket, ...). Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost         string
	Port            string
	ShutdownTimeout time.Duration
	HTTP            HTTPConfig
	Database        DatabaseConfig
	MinIO           MinIOConfig
	Auth            AuthConfig
	Upload          UploadConfig
	Sweeper         SweeperConfig
	Log             LogConfig
}

// Defaults returns the default value for every known key.
// Keys without a safe default (credentials, hosts) are present with an empty value so that
// generated config files list them.
func Defaults() map[string]any {
	return map[string]any{
		"app_host":         "localhost:8080",
		"port":             "8080",
		"shutdown_timeout": "10s",

		"http_body_limit_mb": 10,
		"cors_origin":        "http://localhost:3000",
		"cors_credentials":   true,
		"http_compress":      true,
		"rate_limit_max":     100,
		"rate_limit_window":  "15m",

		"db_host":                  "",
		"db_port":                  "5432",
		"db_user":                  "",
		"db_password":              "",
		"db_name":                  "",
		"db_sslmode":               "disable",
		"db_max_open_conns":        10,
		"db_max_idle_conns":        5,
		"db_conn_max_lifetime_sec": 300,

		"minio_endpoint":   "",
		"minio_access_key": "",
		"minio_secret_key": "",
		"minio_bucket":     "",
		"minio_region":     "us-east-1",
		"minio_use_ssl":    false,

		"auth_jwt_secret": "",

		"upload_url_ttl":            "15m",
		"upload_max_size":           int64(104857600),
		"upload_version_keys":       VersionKeysPerVersion,
		"upload_verify_on_complete": false,
		"upload_commit_retries":     3,
		"upload_commit_backoff":     "25ms",
		"upload_stage_timeout":      "30s",

		"sweeper_enabled":    true,
		"sweeper_interval":   "5m",
		"sweeper_grace":      "5m",
		"sweeper_batch_size": 100,

		"log_level":        "info",
		"log_file":         "",
		"log_max_size_mb":  128,
		"log_max_backups":  5,
		"log_max_age_days": 16,
		"log_compress":     false,
	}
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return fromViper(newViper())
}

// LoadFile reads configuration from the YAML file at path, with environment variables
// taking precedence over file values. An empty path behaves like Load.
func LoadFile(path string) (*AppConfig, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return fromViper(v), nil
}

// Validate reports configuration that would make the lifecycle unsafe to run.
func (c *AppConfig) Validate() error {
	switch c.Upload.VersionKeys {
	case VersionKeysPerVersion, VersionKeysLegacy:
	default:
		return fmt.Errorf("invalid upload_version_keys %q", c.Upload.VersionKeys)
	}
	if c.Upload.URLTTL <= 0 {
		return fmt.Errorf("upload_url_ttl must be positive")
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload_max_size must be positive")
	}
	if c.Upload.CommitRetries < 0 {
		return fmt.Errorf("upload_commit_retries must not be negative")
	}
	if c.HTTP.RateLimitMax > 0 && c.HTTP.RateLimitWindow <= 0 {
		return fmt.Errorf("rate_limit_window must be positive when rate_limit_max is set")
	}
	if c.HTTP.CORSCredentials && strings.TrimSpace(c.HTTP.CORSOrigins) == "*" {
		return fmt.Errorf("cors_origin cannot be * when cors_credentials is enabled")
	}
	if c.Sweeper.Enabled && c.Sweeper.Interval <= 0 {
		return fmt.Errorf("sweeper_interval must be positive when the sweeper is enabled")
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, def := range Defaults() {
		v.SetDefault(key, def)
	}
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) *AppConfig {
	return &AppConfig{
		AppHost:         v.GetString("app_host"),
		Port:            v.GetString("port"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		HTTP: HTTPConfig{
			BodyLimitMB:     v.GetInt("http_body_limit_mb"),
			CORSOrigins:     v.GetString("cors_origin"),
			CORSCredentials: v.GetBool("cors_credentials"),
			Compress:        v.GetBool("http_compress"),
			RateLimitMax:    v.GetInt("rate_limit_max"),
			RateLimitWindow: v.GetDuration("rate_limit_window"),
		},
		Database: DatabaseConfig{
			Host:               v.GetString("db_host"),
			Port:               v.GetString("db_port"),
			User:               v.GetString("db_user"),
			Password:           v.GetString("db_password"),
			Name:               v.GetString("db_name"),
			SSLMode:            v.GetString("db_sslmode"),
			MaxOpenConns:       v.GetInt("db_max_open_conns"),
			MaxIdleConns:       v.GetInt("db_max_idle_conns"),
			ConnMaxLifetimeSec: v.GetInt("db_conn_max_lifetime_sec"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("minio_endpoint"),
			AccessKey: v.GetString("minio_access_key"),
			SecretKey: v.GetString("minio_secret_key"),
			Bucket:    v.GetString("minio_bucket"),
			Region:    v.GetString("minio_region"),
			UseSSL:    v.GetBool("minio_use_ssl"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth_jwt_secret"),
		},
		Upload: UploadConfig{
			URLTTL:           v.GetDuration("upload_url_ttl"),
			MaxSize:          v.GetInt64("upload_max_size"),
			VersionKeys:      v.GetString("upload_version_keys"),
			VerifyOnComplete: v.GetBool("upload_verify_on_complete"),
			CommitRetries:    v.GetInt("upload_commit_retries"),
			CommitBackoff:    v.GetDuration("upload_commit_backoff"),
			StageTimeout:     v.GetDuration("upload_stage_timeout"),
		},
		Sweeper: SweeperConfig{
			Enabled:   v.GetBool("sweeper_enabled"),
			Interval:  v.GetDuration("sweeper_interval"),
			Grace:     v.GetDuration("sweeper_grace"),
			BatchSize: v.GetInt("sweeper_batch_size"),
		},
		Log: LogConfig{
			Level:      v.GetString("log_level"),
			File:       v.GetString("log_file"),
			MaxSizeMB:  v.GetInt("log_max_size_mb"),
			MaxBackups: v.GetInt("log_max_backups"),
			MaxAgeDays: v.GetInt("log_max_age_days"),
			Compress:   v.GetBool("log_compress"),
		},
	}
}
