package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Env       string          `yaml:"env"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	AWS       AWSConfig       `yaml:"aws"`
	APNs      APNsConfig      `yaml:"apns"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Polling   PollingConfig   `yaml:"polling"`
	Feed      FeedConfig      `yaml:"feed"`
	CORS      CORSConfig      `yaml:"cors"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	Host            string        `yaml:"host"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration.
// URL, when set, takes precedence over the discrete fields.
type DatabaseConfig struct {
	URL         string `yaml:"url"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	DBName      string `yaml:"dbname"`
	SSLMode     string `yaml:"sslmode"`
	MaxConns    int32  `yaml:"max_conns"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AuthConfig holds the phone login settings
type AuthConfig struct {
	MockOTP        string `yaml:"mock_otp"`
	ExposeDebugOTP bool   `yaml:"expose_debug_otp"`
}

// AWSConfig holds S3 configuration for post image uploads
type AWSConfig struct {
	Region        string        `yaml:"region"`
	S3Bucket      string        `yaml:"s3_bucket"`
	AccessKey     string        `yaml:"access_key"`
	SecretKey     string        `yaml:"secret_key"`
	Endpoint      string        `yaml:"endpoint"`
	PublicBaseURL string        `yaml:"public_base_url"`
	PresignTTL    time.Duration `yaml:"presign_ttl"`
}

// APNsConfig holds Apple push configuration. Push is disabled when KeyPath is empty.
type APNsConfig struct {
	KeyPath    string `yaml:"key_path"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// RateLimitConfig limits login attempts per client IP
type RateLimitConfig struct {
	LoginPerMinute int `yaml:"login_per_minute"`
	LoginBurst     int `yaml:"login_burst"`
}

// PollingConfig holds the refresh intervals advertised to clients
type PollingConfig struct {
	Messages      time.Duration `yaml:"messages"`
	Conversations time.Duration `yaml:"conversations"`
}

// FeedConfig tunes feed aggregation
type FeedConfig struct {
	PostLimit       int           `yaml:"post_limit"`
	CommentLimit    int           `yaml:"comment_limit"`
	EventWindow     time.Duration `yaml:"event_window"`
	EventHighlights int           `yaml:"event_highlights"`
	PlaceHighlights int           `yaml:"place_highlights"`
	PlaceScanPosts  int           `yaml:"place_scan_posts"`
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the configuration used when a field is not set
func Default() *Config {
	return &Config{
		Env: "dev",
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			DBName:   "whereat",
			SSLMode:  "disable",
			MaxConns: 20,
		},
		JWT: JWTConfig{
			TTL: 30 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Auth: AuthConfig{
			MockOTP: "000000",
		},
		AWS: AWSConfig{
			Region:     "us-east-1",
			PresignTTL: 5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: 10,
			LoginBurst:     5,
		},
		Polling: PollingConfig{
			Messages:      3 * time.Second,
			Conversations: 10 * time.Second,
		},
		Feed: FeedConfig{
			PostLimit:       20,
			CommentLimit:    10,
			EventWindow:     7 * 24 * time.Hour,
			EventHighlights: 5,
			PlaceHighlights: 4,
			PlaceScanPosts:  100,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults and then
// applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("WHEREAT_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("WHEREAT_DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("WHEREAT_JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("WHEREAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("WHEREAT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WHEREAT_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks the settings that would otherwise fail at request time
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		if c.Env != "dev" {
			return errors.New("jwt.secret is required outside dev")
		}
		c.JWT.Secret = "dev-secret-change-me"
	}
	if len(c.Auth.MockOTP) != 6 {
		return errors.New("auth.mock_otp must be 6 digits")
	}
	for _, r := range c.Auth.MockOTP {
		if r < '0' || r > '9' {
			return errors.New("auth.mock_otp must be 6 digits")
		}
	}
	if c.Polling.Messages <= 0 || c.Polling.Conversations <= 0 {
		return errors.New("polling intervals must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
