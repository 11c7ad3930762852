package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	PGDSN        string
	MongoURI     string
	RedisAddr    string
	RabbitURL    string
	JWTSecret    string
	LockTTL      time.Duration
	HTTPAddr     string
	OTLPEndpoint string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	lockTTL, _ := time.ParseDuration(os.Getenv("LOCK_TTL"))
	if lockTTL == 0 {
		lockTTL = 10 * time.Second
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	return &Config{
		PGDSN:        os.Getenv("PG_DSN"),
		MongoURI:     os.Getenv("MONGO_URI"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RabbitURL:    os.Getenv("RABBIT_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		LockTTL:      lockTTL,
		HTTPAddr:     addr,
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}
