package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is built once at startup and passed explicitly to every component.
type Config struct {
	Addr     string `env:"ADDR" envDefault:":5000"`
	DBDriver string `env:"DB_DRIVER" envDefault:"mysql"`
	DSN      string `env:"DSN,required"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"2880h"` // 120 days

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM"`
}

// Load reads .env if present, then parses the environment. JWT_SECRET and DSN
// are required; their absence is reported as an error the caller treats as fatal.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SMTPConfigured reports whether enough SMTP settings are present to send real mail.
func (c Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.MailFrom != ""
}
