// Package config loads service configuration from environment variables
// with defaults, normalization and validation.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// OTELConfig defines OpenTelemetry settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// WSConfig defines the realtime namespace settings.
type WSConfig struct {
	Path          string
	SendBuffer    int
	MessageRPS    float64
	MessageBurst  int
	PingPeriod    time.Duration
	PongWait      time.Duration
	WriteDeadline time.Duration
}

// AMQPConfig defines RabbitMQ settings. An empty URL disables both directions.
type AMQPConfig struct {
	URL            string
	OrdersExchange string
	OrdersQueue    string
	EventsExchange string
}

// Config holds all configuration values for the service.
type Config struct {
	Port     string
	GRPCPort string
	GinMode  string

	LogLevel  string
	LogPretty bool

	ServiceName string
	Environment string

	AllowedOrigins []string

	JWTSecret string
	JWTIssuer string

	InternalToken string

	DBDSN     string
	DBMigrate bool

	AgingInterval time.Duration

	WS   WSConfig
	AMQP AMQPConfig
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from the environment, applies defaults, normalizes and validates.
func Load() (Config, error) {
	cfg := Config{
		Port:     getenv("PORT", "8083"),
		GRPCPort: os.Getenv("GRPC_PORT"),
		GinMode:  strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		ServiceName: getenv("SERVICE_NAME", "order-realtime"),
		Environment: getenv("ENVIRONMENT", "dev"),

		AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: os.Getenv("JWT_ISSUER"),

		InternalToken: os.Getenv("INTERNAL_API_TOKEN"),

		DBDSN:     os.Getenv("DB_DSN"),
		DBMigrate: getbool("DB_MIGRATE", false),

		AgingInterval: getdur("AGING_INTERVAL", 10*time.Second),

		WS: WSConfig{
			Path:          normalizePath(getenv("WS_PATH", "/orders")),
			SendBuffer:    getint("WS_SEND_BUFFER", 64),
			MessageRPS:    getfloat("WS_MESSAGE_RPS", 10),
			MessageBurst:  getint("WS_MESSAGE_BURST", 20),
			PingPeriod:    getdur("WS_PING_PERIOD", 54*time.Second),
			PongWait:      getdur("WS_PONG_WAIT", 60*time.Second),
			WriteDeadline: getdur("WS_WRITE_DEADLINE", 10*time.Second),
		},
		AMQP: AMQPConfig{
			URL:            os.Getenv("AMQP_URL"),
			OrdersExchange: getenv("AMQP_ORDERS_EXCHANGE", "orders"),
			OrdersQueue:    getenv("AMQP_ORDERS_QUEUE", "order-realtime.events"),
			EventsExchange: getenv("AMQP_EVENTS_EXCHANGE", "ws_events"),
		},
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "order-realtime"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if _, ok := os.LookupEnv("GRPC_PORT"); !ok {
		cfg.GRPCPort = "9093"
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return cfg, errors.New("JWT_SECRET must not be empty")
	}
	if len(cfg.AllowedOrigins) == 0 {
		return cfg, errors.New("CORS_ALLOWED_ORIGINS must list at least one origin")
	}
	if cfg.AgingInterval <= 0 {
		return cfg, errors.New("AGING_INTERVAL must be > 0")
	}
	if cfg.WS.SendBuffer < 1 {
		return cfg, errors.New("WS_SEND_BUFFER must be >= 1")
	}
	if cfg.WS.MessageRPS <= 0 {
		return cfg, errors.New("WS_MESSAGE_RPS must be > 0")
	}
	if cfg.WS.MessageBurst < 1 {
		return cfg, errors.New("WS_MESSAGE_BURST must be >= 1")
	}
	if cfg.WS.PingPeriod <= 0 || cfg.WS.PongWait <= cfg.WS.PingPeriod {
		return cfg, errors.New("WS_PONG_WAIT must exceed a positive WS_PING_PERIOD")
	}
	if cfg.WS.WriteDeadline <= 0 {
		return cfg, errors.New("WS_WRITE_DEADLINE must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizePath ensures a leading '/' and strips a trailing one.
func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}
