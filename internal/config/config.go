package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN       string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL       string `env:"RABBITMQ_URL,required=true"`
	RedisURL          string `env:"REDIS_URL,required=true"`
	SecretKey         string `env:"SECRET_KEY,required=true"`
	RateLimitPerSec   int    `env:"RATE_LIMIT_PER_SEC,default=10"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY,default=16"`
	APIPort           int    `env:"API_PORT,default=8080"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`
	SMTPTimeoutSec    int    `env:"SMTP_TIMEOUT_SEC,default=30"`
	RequeueScanSec    int    `env:"REQUEUE_SCAN_SEC,default=30"`
	RequeueStaleSec   int    `env:"REQUEUE_STALE_SEC,default=300"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) SMTPTimeout() time.Duration {
	return time.Duration(c.SMTPTimeoutSec) * time.Second
}

func (c *Config) RequeueScanInterval() time.Duration {
	return time.Duration(c.RequeueScanSec) * time.Second
}

func (c *Config) RequeueStaleAfter() time.Duration {
	return time.Duration(c.RequeueStaleSec) * time.Second
}
