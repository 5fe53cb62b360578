// Package config provides environment configuration for the operator console.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the console.
type Config struct {
	// Operator identity
	OperatorName string

	// Messaging transport (NATS) settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string
	SubjectBase  string
	ReplyTimeout time.Duration

	// REST backend settings
	APIBaseURL string
	APITimeout time.Duration

	// Operator credential: either a static bearer token, or an HS256
	// secret the console mints short-lived tokens from.
	APIToken      string
	JWTSecret     string
	JWTExpiration time.Duration

	// Ops server (health, metrics, read-only directory API)
	OpsEnabled        bool
	OpsAddr           string
	OpsAuthRequired   bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Reply drafting assist
	AnthropicAPIKey string
	OpenAIAPIKey    string
	AssistModel     string

	// Desktop notifications
	NotifyEnabled bool

	// UI
	Headless bool

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Operator
		OperatorName: getEnv("OPERATOR_NAME", "Support"),

		// Transport
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"), // local development fallback
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),
		SubjectBase:  getEnv("CHAT_SUBJECT_BASE", "chat"),
		ReplyTimeout: getDurationEnv("REPLY_TIMEOUT", 5*time.Second),

		// REST backend
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"), // local development fallback
		APITimeout: getDurationEnv("API_TIMEOUT", 10*time.Second),

		// Credential
		APIToken:      getEnv("API_TOKEN", ""),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpiration: getDurationEnv("JWT_EXPIRATION", 15*time.Minute),

		// Ops server
		OpsEnabled:        getBoolEnv("OPS_ENABLED", true),
		OpsAddr:           getEnv("OPS_ADDR", ":9090"),
		OpsAuthRequired:   getBoolEnv("OPS_AUTH_REQUIRED", false),
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Assist
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AssistModel:     getEnv("ASSIST_MODEL", ""),

		// Notifications
		NotifyEnabled: getBoolEnv("NOTIFY_ENABLED", true),

		// UI
		Headless: getBoolEnv("HEADLESS", false),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
