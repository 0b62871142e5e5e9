package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string

	ServerPort int

	DatabaseURL string

	LogLevel string

	KafkaBrokers    []string
	CartEventsTopic string

	RedisAddr string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	SendGridAPIKey string
	SendGridFrom   string

	CartUpsertMode string
	RequestTimeout time.Duration
	CORSOrigins    []string
	CookieSecure   bool
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		LogLevel: os.Getenv("LOG_LEVEL"),

		KafkaBrokers:    CSV(os.Getenv("KAFKA_BROKERS")),
		CartEventsTopic: EnvDefault("CART_EVENTS_TOPIC", "cart_events"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		SendGridFrom:   os.Getenv("SENDGRID_FROM"),

		CartUpsertMode: strings.ToLower(EnvDefault("CART_UPSERT_MODE", "atomic")),
		RequestTimeout: EnvDurationDefault("REQUEST_TIMEOUT", 5*time.Second),
		CORSOrigins:    CSV(os.Getenv("CORS_ORIGINS")),
		CookieSecure:   EnvBoolDefault("COOKIE_SECURE", false),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
