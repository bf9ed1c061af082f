package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// Session strategies.
const (
	SessionStrategyRedis = "redis"
	SessionStrategyJWT   = "jwt"
)

// Realtime drivers.
const (
	RealtimeDriverRedis = "redis"
	RealtimeDriverAMQP  = "amqp"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	LogLevel                 string `yaml:"logLevel"`
	DatabaseURL              string `yaml:"databaseURL"`
	RedisAddr                string `yaml:"redisAddr"`
	RedisPassword            string `yaml:"redisPassword"`
	SessionStrategy          string `yaml:"sessionStrategy"`
	SessionTTL               string `yaml:"sessionTTL"`
	JWTSecret                string `yaml:"jwtSecret"`
	MinioEndpoint            string `yaml:"minioEndpoint"`
	MinioAccessKey           string `yaml:"minioAccessKey"`
	MinioSecretKey           string `yaml:"minioSecretKey"`
	MinioBucket              string `yaml:"minioBucket"`
	MinioUseSSL              bool   `yaml:"minioUseSSL"`
	MinioPublicBaseURL       string `yaml:"minioPublicBaseURL"`
	RealtimeDriver           string `yaml:"realtimeDriver"`
	AMQPURL                  string `yaml:"amqpURL"`
	TokenPath                string `yaml:"tokenPath"`
	RequireEmailConfirmation bool   `yaml:"requireEmailConfirmation"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("SESSION_STRATEGY"); v != "" {
		cfg.SessionStrategy = v
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		cfg.SessionTTL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINIO_PUBLIC_BASE_URL"); v != "" {
		cfg.MinioPublicBaseURL = v
	}
	if v := os.Getenv("REALTIME_DRIVER"); v != "" {
		cfg.RealtimeDriver = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.AMQPURL = v
	}
	if v := os.Getenv("FEED_TOKEN_PATH"); v != "" {
		cfg.TokenPath = v
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.SessionStrategy == "" {
		cfg.SessionStrategy = SessionStrategyRedis
	}
	if cfg.RealtimeDriver == "" {
		cfg.RealtimeDriver = RealtimeDriverRedis
	}
	if cfg.MinioBucket == "" {
		cfg.MinioBucket = "post-images"
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml)")
	}
	switch cfg.SessionStrategy {
	case SessionStrategyRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for the redis session strategy")
		}
	case SessionStrategyJWT:
		if cfg.JWTSecret == "" {
			return errors.New("config: jwtSecret is required for the jwt session strategy")
		}
	default:
		return fmt.Errorf("config: unknown sessionStrategy %q", cfg.SessionStrategy)
	}
	switch cfg.RealtimeDriver {
	case RealtimeDriverRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for the redis realtime driver")
		}
	case RealtimeDriverAMQP:
		if cfg.AMQPURL == "" {
			return errors.New("config: amqpURL is required for the amqp realtime driver")
		}
	default:
		return fmt.Errorf("config: unknown realtimeDriver %q", cfg.RealtimeDriver)
	}
	if cfg.MinioEndpoint == "" {
		return errors.New("config: minioEndpoint is required (set MINIO_ENDPOINT)")
	}
	return nil
}

// ParseSessionTTL parses optional session TTL duration string.
func ParseSessionTTL(ttlStr string) (time.Duration, error) {
	if ttlStr == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(ttlStr)
	if err != nil {
		return 0, fmt.Errorf("invalid sessionTTL duration: %w", err)
	}
	return dur, nil
}
