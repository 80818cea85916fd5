package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env          string
	Addr         string
	PublicURL    *url.URL
	DBDSN        string
	CookieSecret string
	SessionTTL   time.Duration
	LogLevel     string

	GoogleClientID string
	AppleServiceID string

	SMTP SMTPConfig

	FCMProjectID       string
	FCMCredentialsPath string
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	TLSMode   string
	FromName  string
	FromEmail string
}

func (s SMTPConfig) Enabled() bool { return s.Host != "" && s.FromEmail != "" }

func Load() (Config, error) {
	// Missing .env is fine; real env always wins.
	_ = godotenv.Load()
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:            getenv("APP_ENV"),
		Addr:           getenv("APP_ADDR"),
		DBDSN:          getenv("APP_DB_DSN"),
		LogLevel:       getenv("APP_LOG_LEVEL"),
		CookieSecret:   getenv("APP_COOKIE_SECRET"),
		GoogleClientID: getenv("GOOGLE_WEB_CLIENT_ID"),
		AppleServiceID: getenv("APPLE_SERVICE_ID"),

		FCMProjectID:       getenv("FCM_PROJECT_ID"),
		FCMCredentialsPath: getenv("FCM_CREDENTIALS_PATH"),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}

	publicURLRaw := getenv("APP_PUBLIC_URL")
	if publicURLRaw != "" {
		parsed, err := url.Parse(publicURLRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_PUBLIC_URL: %w", err)
		}
		if !parsed.IsAbs() || parsed.Host == "" {
			return Config{}, errors.New("APP_PUBLIC_URL: must be an absolute URL")
		}
		switch parsed.Scheme {
		case "http", "https":
		default:
			return Config{}, errors.New("APP_PUBLIC_URL: scheme must be http or https")
		}
		cfg.PublicURL = parsed
	}

	ttlRaw := getenv("APP_SESSION_TTL")
	if ttlRaw == "" {
		cfg.SessionTTL = 30 * 24 * time.Hour
	} else {
		ttl, err := time.ParseDuration(ttlRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_SESSION_TTL: %w", err)
		}
		if ttl <= 0 {
			return Config{}, errors.New("APP_SESSION_TTL: must be > 0")
		}
		cfg.SessionTTL = ttl
	}

	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	smtp, err := loadSMTP(getenv)
	if err != nil {
		return Config{}, err
	}
	cfg.SMTP = smtp

	if cfg.IsProd() {
		if cfg.PublicURL == nil {
			return Config{}, errors.New("APP_PUBLIC_URL: required in prod")
		}
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required in prod")
		}
		if len(cfg.CookieSecret) < 32 {
			return Config{}, errors.New("APP_COOKIE_SECRET: must be at least 32 bytes in prod")
		}
	}

	return cfg, nil
}

func loadSMTP(getenv func(string) string) (SMTPConfig, error) {
	smtp := SMTPConfig{
		Host:      getenv("SMTP_HOST"),
		Username:  getenv("SMTP_USERNAME"),
		Password:  getenv("SMTP_PASSWORD"),
		TLSMode:   getenv("SMTP_TLS_MODE"),
		FromName:  getenv("SMTP_FROM_NAME"),
		FromEmail: getenv("SMTP_FROM_EMAIL"),
	}

	smtp.Port = 587
	if raw := getenv("SMTP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return SMTPConfig{}, errors.New("SMTP_PORT: must be a valid port number")
		}
		smtp.Port = port
	}

	switch smtp.TLSMode {
	case "", "starttls", "tls", "none":
	default:
		return SMTPConfig{}, errors.New("SMTP_TLS_MODE: must be one of starttls, tls, none")
	}
	if smtp.FromName == "" {
		smtp.FromName = "IBetU"
	}

	return smtp, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func (c Config) CookieSecure() bool {
	if c.PublicURL != nil {
		return c.PublicURL.Scheme == "https"
	}
	return c.IsProd()
}
