package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Host               string        `env:"HOST" envDefault:"0.0.0.0"`
	Port               int           `env:"PORT" envDefault:"5000" validate:"min=1,max=65535"`
	LogFormat          string        `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:"," validate:"min=1"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gt=0"`

	WebSocket WebSocketConfig `envPrefix:"WS_"`
	Chat      ChatConfig      `envPrefix:"CHAT_"`
	AI        AIConfig        `envPrefix:"AI_"`
	Tracing   TracingConfig   `envPrefix:"PUBSUB_TRACING_"`
}

// WebSocketConfig tunes the websocket transport.
type WebSocketConfig struct {
	MaxMessageBytes int64   `env:"MAX_MESSAGE_BYTES" envDefault:"8388608" validate:"gt=0"`
	SendBuffer      int     `env:"SEND_BUFFER" envDefault:"256" validate:"gt=0"`
	RateLimit       float64 `env:"RATE_LIMIT" envDefault:"10" validate:"gt=0"`
	RateBurst       int     `env:"RATE_BURST" envDefault:"20" validate:"gt=0"`
	// EventAliases maps extra client event names to join, send or leave.
	EventAliases map[string]string `env:"EVENT_ALIASES" envSeparator:"," envKeyValSeparator:"="`
}

// ChatConfig bounds client-supplied chat fields.
type ChatConfig struct {
	MaxTextLength int `env:"MAX_TEXT_LENGTH" envDefault:"5000" validate:"gt=0"`
	MaxNameLength int `env:"MAX_NAME_LENGTH" envDefault:"50" validate:"gt=0"`
	MaxRoomLength int `env:"MAX_ROOM_LENGTH" envDefault:"100" validate:"gt=0"`
}

// AIConfig configures the assistant backend. An empty APIKey disables it.
type AIConfig struct {
	APIKey       string        `env:"API_KEY"`
	BaseURL      string        `env:"BASE_URL" envDefault:"https://api.together.xyz/v1/" validate:"url"`
	Model        string        `env:"MODEL" envDefault:"meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo" validate:"required"`
	SystemPrompt string        `env:"SYSTEM_PROMPT" envDefault:"You are a helpful AI assistant."`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"30s" validate:"gt=0"`
	Username     string        `env:"USERNAME" envDefault:"AI" validate:"required"`
	Trigger      string        `env:"TRIGGER" envDefault:"@ai" validate:"required"`
	// RateLimit is the number of HTTP generation requests allowed per minute per IP.
	RateLimit int `env:"RATE_LIMIT" envDefault:"10" validate:"gt=0"`
}

// TracingConfig configures bus tracing.
type TracingConfig struct {
	Enabled     bool   `env:"ENABLED" envDefault:"false"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"troom"`
	ZipkinURL   string `env:"ZIPKIN_URL" envDefault:"http://localhost:9411/api/v2/spans" validate:"omitempty,url"`
}

// Enabled reports whether the assistant backend has credentials.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// New loads .env (when present) and the process environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return Load(environMap(os.Environ()))
}

// Load parses and validates configuration from the given environment.
func Load(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Legacy name used by earlier deployments.
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = environ["TOGETHER_API_KEY"]
	}
	for i, origin := range cfg.CORSAllowedOrigins {
		cfg.CORSAllowedOrigins[i] = strings.TrimSpace(origin)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}
