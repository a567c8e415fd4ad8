package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

type Config struct {
	ServiceName string
	InstanceID  string

	HTTPAddr    string
	ObsHTTPAddr string
	GRPCAddr    string

	StoreDriver string
	DatabaseURL string
	BadgerPath  string

	RedisAddr    string
	KafkaBrokers []string
	KafkaTopics  []string

	// KafkaProfileTopic carries profile changes; consumed only when the
	// profile cache is enabled.
	KafkaProfileTopic string

	JWTSecret     string
	JWTIssuer     string
	JWTAudience   string
	InternalToken string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration

	TracingEnabled bool
	JaegerURL      string
}

// Load reads the environment, after applying a .env file when one exists.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName:       getEnv("SERVICE_NAME", "messaging-service"),
		InstanceID:        getEnv("INSTANCE_ID", getEnv("HOSTNAME", "")),
		HTTPAddr:          fixPort(getEnv("HTTP_ADDR", ":8080")),
		ObsHTTPAddr:       fixPort(getEnv("OBS_HTTP_ADDR", ":9090")),
		GRPCAddr:          fixPort(getEnv("GRPC_ADDR", ":50052")),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		BadgerPath:        getEnv("BADGER_PATH", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		KafkaBrokers:      splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopics:       splitList(getEnv("KAFKA_TOPICS", "favourite-events,payment-events")),
		KafkaProfileTopic: getEnv("KAFKA_PROFILE_TOPIC", "profile-events"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTIssuer:         getEnv("JWT_ISSUER", ""),
		JWTAudience:       getEnv("JWT_AUDIENCE", ""),
		InternalToken:     getEnv("INTERNAL_TOKEN", ""),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		TracingEnabled:    getEnvBool("TRACING_ENABLED", false),
		JaegerURL:         getEnv("JAEGER_URL", "http://localhost:14268/api/traces"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("missing required env: DATABASE_URL (STORE_DRIVER=postgres)")
		}
	case DriverBadger:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("missing required env: JWT_SECRET")
	}
	return nil
}

func fixPort(port string) string {
	if port != "" && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "true"
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
