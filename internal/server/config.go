// Package server provides configuration helpers that define runtime defaults,
// validation, and room limits for the roomchat service.
package server

import (
	"fmt"
	"time"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the server configuration settings.
type Config struct {
	Port           string   `envconfig:"SERVER_PORT" default:":8080"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	MaxMessageSize int64    `envconfig:"MAX_MESSAGE_SIZE" default:"4096"`
	SendBufferSize int      `envconfig:"SEND_BUFFER_SIZE" default:"256"`

	RoomCapacity   int           `envconfig:"ROOM_CAPACITY" default:"10"`
	RoomCodeLength int           `envconfig:"ROOM_CODE_LENGTH" default:"6"`
	PendingRoomTTL time.Duration `envconfig:"PENDING_ROOM_TTL" default:"10m"`
	SweepInterval  time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"INFO"`
}

func defaultConfig() Config {
	return Config{
		Port: ":8080",
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize:  4096,
		SendBufferSize:  256,
		RoomCapacity:    chat.DefaultCapacity,
		RoomCodeLength:  chat.DefaultCodeLength,
		PendingRoomTTL:  10 * time.Minute,
		SweepInterval:   time.Minute,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "INFO",
	}
}

// sanitizeConfig replaces unusable values with defaults.
func sanitizeConfig(cfg Config) Config {
	def := defaultConfig()

	if cfg.Port == "" {
		cfg.Port = def.Port
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = def.SendBufferSize
	}
	if cfg.RoomCapacity <= 0 {
		cfg.RoomCapacity = def.RoomCapacity
	}
	if cfg.RoomCodeLength <= 0 {
		cfg.RoomCodeLength = def.RoomCodeLength
	}
	if cfg.PendingRoomTTL <= 0 {
		cfg.PendingRoomTTL = def.PendingRoomTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Unset variables fall back to their defaults; malformed ones are an error.
func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}
	cfg = sanitizeConfig(cfg)
	return &cfg, nil
}
