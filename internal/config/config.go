package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr      string
	DBDSN         string
	RedisAddr     string // optional: enables the distributed order lock
	KafkaBrokers  []string
	NotifyTopic   string
	WebhookSecret string
	LockTimeout   time.Duration
}

func Load() Config {
	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		DBDSN:         os.Getenv("DB_DSN"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		KafkaBrokers:  splitCSV(os.Getenv("KAFKA_BROKERS")),
		NotifyTopic:   getenv("NOTIFY_TOPIC", "order-notifications"),
		WebhookSecret: os.Getenv("MOCK_WEBHOOK_SECRET"),
		LockTimeout:   getduration("LOCK_TIMEOUT", 3*time.Second),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
