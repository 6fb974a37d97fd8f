package server

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

const (
	defaultPort            = ":3000"
	defaultMaxMessageSize  = 512
	defaultRateLimitBurst  = 5
	defaultRefillInterval  = time.Second
	defaultSendBufferSize  = 256
	defaultLogLevel        = "INFO"
	defaultShutdownTimeout = 10 * time.Second
)

var validate = validator.New()

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the relay settings, read from the environment.
type Config struct {
	Port            string        `env:"SERVER_PORT,default=:3000"`
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS,default=*"`
	MaxMessageSize  int           `env:"MAX_MESSAGE_SIZE,default=512" validate:"gte=0"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST,default=5" validate:"gte=0"`
	RateLimitRefill time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL,default=1s" validate:"gte=0"`
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE,default=256" validate:"gte=0"`
	NamesFile       string        `env:"NAMES_FILE"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO" validate:"omitempty,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gte=0"`
}

// DefaultConfig returns a Config populated with default values for all settings.
func DefaultConfig() Config {
	return Config{
		Port:            defaultPort,
		AllowedOrigins:  "*",
		MaxMessageSize:  defaultMaxMessageSize,
		RateLimitBurst:  defaultRateLimitBurst,
		RateLimitRefill: defaultRefillInterval,
		SendBufferSize:  defaultSendBufferSize,
		LogLevel:        defaultLogLevel,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// LoadConfig reads the configuration from environment variables, validates
// it and fills zero values with defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg.Sanitize(), nil
}

// Validate rejects negative sizes and durations and unknown log levels.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Sanitize returns a copy with zero values replaced by defaults.
func (c Config) Sanitize() Config {
	if strings.TrimSpace(c.Port) == "" {
		c.Port = defaultPort
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = defaultRateLimitBurst
	}
	if c.RateLimitRefill <= 0 {
		c.RateLimitRefill = defaultRefillInterval
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = defaultSendBufferSize
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	return c
}

// Origins splits AllowedOrigins on commas.
func (c Config) Origins() []string {
	return parseOrigins(c.AllowedOrigins)
}

// RateLimit groups the per-connection rate limit settings.
func (c Config) RateLimit() RateLimitConfig {
	return RateLimitConfig{Burst: c.RateLimitBurst, RefillInterval: c.RateLimitRefill}
}

func parseOrigins(origins string) []string {
	if strings.TrimSpace(origins) == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
