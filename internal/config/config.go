package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret            string `env:"JWT_SECRET,required,notEmpty"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"1440"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"CSI"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	PasswordResetTTLMinutes  int `env:"PASSWORD_RESET_TTL_MINUTES" envDefault:"15"`
	PasswordResetMaxPerTTL   int `env:"PASSWORD_RESET_MAX_REQUESTS" envDefault:"3"`
	PasswordResetMaxAttempts int `env:"PASSWORD_RESET_MAX_ATTEMPTS" envDefault:"5"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment indica si se usa el logger de desarrollo.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) JWTAccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c *Config) JWTRefreshTTL() time.Duration {
	return time.Duration(c.JWTRefreshTTLMinutes) * time.Minute
}

func (c *Config) PasswordResetTTL() time.Duration {
	return time.Duration(c.PasswordResetTTLMinutes) * time.Minute
}
