package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hugh/go-storefront/pkg/util"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Encryption EncryptionConfig
	RateLimit  RateLimitConfig
	Mail       MailConfig
	Tokens     TokenConfig
	Worker     WorkerConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// EncryptionConfig holds the age identity used to seal queued mail payloads.
// Server and worker must share the same key.
type EncryptionConfig struct {
	Key string
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
	// Credential endpoints (login, activation, password) get a tighter budget.
	AuthRequests int
}

// MailConfig configures SMTP delivery and the links put in emails. BaseURL
// is the API origin; FrontendURL hosts the invitation and password reset
// forms and defaults to BaseURL.
type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	BaseURL     string
	FrontendURL string
}

type TokenConfig struct {
	ActivationTTLHours int
	InvitationTTLHours int
	ResetTTLHours      int
	PurgeCron          string
}

type WorkerConfig struct {
	Concurrency int
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// URL returns the postgres:// form expected by golang-migrate.
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (j *JWTConfig) Expiry() time.Duration {
	return time.Duration(j.ExpiryHours) * time.Hour
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

func (m *MailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

func (t *TokenConfig) ActivationTTL() time.Duration {
	return time.Duration(t.ActivationTTLHours) * time.Hour
}

func (t *TokenConfig) InvitationTTL() time.Duration {
	return time.Duration(t.InvitationTTLHours) * time.Hour
}

func (t *TokenConfig) ResetTTL() time.Duration {
	return time.Duration(t.ResetTTLHours) * time.Hour
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("SERVER_ALLOWED_ORIGINS", "")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "storefront")
	v.SetDefault("DATABASE_PASSWORD", "storefront_secret")
	v.SetDefault("DATABASE_NAME", "storefront")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("RATE_LIMIT_AUTH_REQUESTS", 20)
	v.SetDefault("MAIL_HOST", "localhost")
	v.SetDefault("MAIL_PORT", 1025)
	v.SetDefault("MAIL_USERNAME", "")
	v.SetDefault("MAIL_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "no-reply@storefront.local")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")
	v.SetDefault("APP_FRONTEND_URL", "")
	v.SetDefault("TOKEN_ACTIVATION_TTL_HOURS", 24)
	v.SetDefault("TOKEN_INVITATION_TTL_HOURS", 72)
	v.SetDefault("TOKEN_RESET_TTL_HOURS", 1)
	v.SetDefault("TOKEN_PURGE_CRON", "0 * * * *")
	v.SetDefault("WORKER_CONCURRENCY", 10)

	// Load from .env file if present
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(v.GetString("SERVER_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DATABASE_HOST"),
			Port:     v.GetInt("DATABASE_PORT"),
			User:     v.GetString("DATABASE_USER"),
			Password: v.GetString("DATABASE_PASSWORD"),
			Name:     v.GetString("DATABASE_NAME"),
			SSLMode:  v.GetString("DATABASE_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		Encryption: EncryptionConfig{
			Key: v.GetString("ENCRYPTION_KEY"),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
			AuthRequests:  v.GetInt("RATE_LIMIT_AUTH_REQUESTS"),
		},
		Mail: MailConfig{
			Host:        v.GetString("MAIL_HOST"),
			Port:        v.GetInt("MAIL_PORT"),
			Username:    v.GetString("MAIL_USERNAME"),
			Password:    v.GetString("MAIL_PASSWORD"),
			From:        v.GetString("MAIL_FROM"),
			BaseURL:     strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
			FrontendURL: strings.TrimRight(v.GetString("APP_FRONTEND_URL"), "/"),
		},
		Tokens: TokenConfig{
			ActivationTTLHours: v.GetInt("TOKEN_ACTIVATION_TTL_HOURS"),
			InvitationTTLHours: v.GetInt("TOKEN_INVITATION_TTL_HOURS"),
			ResetTTLHours:      v.GetInt("TOKEN_RESET_TTL_HOURS"),
			PurgeCron:          v.GetString("TOKEN_PURGE_CRON"),
		},
		Worker: WorkerConfig{
			Concurrency: v.GetInt("WORKER_CONCURRENCY"),
		},
	}

	if err := util.ValidateCronExpr(cfg.Tokens.PurgeCron); err != nil {
		return nil, fmt.Errorf("TOKEN_PURGE_CRON: %w", err)
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
