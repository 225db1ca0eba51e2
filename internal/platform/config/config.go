package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Addr            string `env:"ADDR" envDefault:":8080"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		URL            string `env:"URL"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		MaxConns       int32  `env:"MAX_CONNS" envDefault:"10"`
		MinConns       int32  `env:"MIN_CONNS" envDefault:"2"`
	} `envPrefix:"DATABASE_"`
	JWT struct {
		Secret     string `env:"SECRET"`
		Expiration int    `env:"EXPIRATION" envDefault:"86400"`
	} `envPrefix:"JWT_"`
	Seed struct {
		AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
		AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@example.com"`
		AdminPassword string `env:"ADMIN_PASSWORD"`
	} `envPrefix:"SEED_"`
	Redis struct {
		Host         string `env:"HOST" envDefault:"localhost"`
		Port         int    `env:"PORT" envDefault:"6379"`
		Password     string `env:"PASSWORD"`
		ReadinessTTL int    `env:"READINESS_TTL" envDefault:"60"`
	} `envPrefix:"REDIS_"`
	RabbitMQ struct {
		DSN            string `env:"DSN"`
		MailQueue      string `env:"MAIL_QUEUE" envDefault:"notification_emails"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Email struct {
		Enabled  bool   `env:"ENABLED" envDefault:"false"`
		From     string `env:"FROM" envDefault:"no-reply@example.com"`
		SMTPHost string `env:"SMTP_HOST"`
		SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
		SMTPUser string `env:"SMTP_USER"`
		SMTPPass string `env:"SMTP_PASSWORD"`
	} `envPrefix:"EMAIL_"`
	Limits struct {
		MaxBodyBytes       int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"`
		RateLimitPerMinute int   `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
		LoginPerMinute     int   `env:"LOGIN_PER_MINUTE" envDefault:"10"`
	} `envPrefix:"LIMITS_"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	RunSeed       bool   `env:"RUN_SEED" envDefault:"true"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			// the first error keeps the log readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWT.Secret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.Seed.AdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.Limits.MaxBodyBytes < 1024 {
		return fmt.Errorf("LIMITS_MAX_BODY_BYTES must be at least 1024")
	}
	if c.Limits.RateLimitPerMinute <= 0 {
		return fmt.Errorf("LIMITS_RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.Email.Enabled && c.Email.SMTPHost == "" {
		return fmt.Errorf("EMAIL_SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
