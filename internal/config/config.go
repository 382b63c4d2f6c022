package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centralises all environment and runtime configuration.
type Config struct {
	Logger *log.Logger

	Port        string
	DatabaseURL string
	Store       string // postgres | memory

	BusinessTimezone *time.Location

	SystemSenderEmail        string
	NotificationContactEmail string
	InviteUIDDomain          string

	GoogleServiceAccountJSON string
	GoogleDelegatedUser      string
	GoogleCustomerID         string

	RoomExclude         []string
	DefaultLocale       string
	FreeBusyInterval    time.Duration
	ExternalCallTimeout time.Duration
	TokenRefreshMargin  time.Duration

	RedisURL string

	SweepCron  string
	SweepGrace time.Duration

	ClaimRatePerMinute int

	StaticTokens  []string
	JWTHMACSecret string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	logger := log.New(os.Stdout, "[interview-scheduler] ", log.LstdFlags|log.Lmsgprefix)
	if err := godotenv.Load(); err != nil {
		logger.Println("no .env file found, reading from system environment variables")
	}

	tz, err := time.LoadLocation(getEnvOrDefault("BUSINESS_TIMEZONE", "Europe/London"))
	if err != nil {
		return nil, fmt.Errorf("BUSINESS_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Logger:                   logger,
		Port:                     getEnvOrDefault("PORT", "8080"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		Store:                    getEnvOrDefault("STORE", "postgres"),
		BusinessTimezone:         tz,
		SystemSenderEmail:        getEnvOrDefault("SYSTEM_SENDER_EMAIL", "recruiting@example.com"),
		NotificationContactEmail: os.Getenv("NOTIFICATION_CONTACT_EMAIL"),
		InviteUIDDomain:          getEnvOrDefault("INVITE_UID_DOMAIN", "interviews.example.com"),
		GoogleServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		GoogleDelegatedUser:      os.Getenv("GOOGLE_DELEGATED_USER"),
		GoogleCustomerID:         getEnvOrDefault("GOOGLE_CUSTOMER_ID", "my_customer"),
		RoomExclude:              splitList(os.Getenv("ROOM_EXCLUDE")),
		DefaultLocale:            os.Getenv("DEFAULT_LOCALE"),
		RedisURL:                 os.Getenv("REDIS_URL"),
		SweepCron:                os.Getenv("SWEEP_CRON"),
		StaticTokens:             splitList(os.Getenv("STATIC_TOKENS")),
		JWTHMACSecret:            strings.TrimSpace(os.Getenv("JWT_HMAC_SECRET")),
	}

	minutes, err := getIntOrDefault("FREEBUSY_INTERVAL_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	if minutes <= 0 {
		return nil, fmt.Errorf("FREEBUSY_INTERVAL_MINUTES must be positive, got %d", minutes)
	}
	cfg.FreeBusyInterval = time.Duration(minutes) * time.Minute

	if cfg.ExternalCallTimeout, err = getDurationOrDefault("EXTERNAL_CALL_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.TokenRefreshMargin, err = getDurationOrDefault("TOKEN_REFRESH_MARGIN", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SweepGrace, err = getDurationOrDefault("SWEEP_GRACE", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ClaimRatePerMinute, err = getIntOrDefault("CLAIM_RATE_PER_MINUTE", 10); err != nil {
		return nil, err
	}

	switch cfg.Store {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL required when STORE=postgres")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unknown STORE %q", cfg.Store)
	}

	logger.Printf("loaded config: store=%s tz=%s freebusy_interval=%s", cfg.Store, tz, cfg.FreeBusyInterval)
	return cfg, nil
}

// GoogleConfigured reports whether Workspace credentials are present.
func (c *Config) GoogleConfigured() bool {
	return c.GoogleServiceAccountJSON != "" && c.GoogleDelegatedUser != ""
}

func getEnvOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getIntOrDefault(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDurationOrDefault(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
