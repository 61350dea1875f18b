// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Mailbox. The IMAP host is fixed; only the account is supplied.
	IMAPHost      string
	IMAPPort      string
	EmailUsername string
	EmailPassword string
	TargetSender  string
	Mailbox       string

	// Watcher timing
	ReconnectDelay time.Duration
	SettleDelay    time.Duration
	MaxIdle        time.Duration

	// Arrival lookup
	LookupTimeout time.Duration

	// Calendar store
	CalendarDir  string
	CalendarFile string
	ProcessedSet string
	Timezone     string

	// Google Calendar sink (optional; disabled when unset)
	GcalClientID     string
	GcalClientSecret string
	GcalRefreshToken string
	GcalCalendarID   string
}

// LoadConfig loads configuration from environment variables. Missing
// required settings are a startup error, not a silent no-op.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		Port:         getEnv("PORT", "2306"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		IMAPHost:      "imap.qq.com",
		IMAPPort:      getEnv("IMAP_PORT", "993"),
		EmailUsername: getEnv("EMAIL_USERNAME", ""),
		EmailPassword: getEnv("EMAIL_PASSWORD", ""),
		TargetSender:  getEnv("TARGET_SENDER", "12306@rails.com.cn"),
		Mailbox:       getEnv("MAILBOX", "INBOX"),

		ReconnectDelay: time.Duration(getEnvAsInt("RECONNECT_DELAY", 30)) * time.Second,
		SettleDelay:    time.Duration(getEnvAsInt("SETTLE_DELAY", 5)) * time.Second,
		MaxIdle:        time.Duration(getEnvAsInt("MAX_IDLE_MINUTES", 29)) * time.Minute,

		LookupTimeout: time.Duration(getEnvAsInt("LOOKUP_TIMEOUT", 60)) * time.Second,

		CalendarDir:  getEnv("CALENDAR_DIR", "./ics"),
		CalendarFile: getEnv("CALENDAR_FILE", "ticket.ics"),
		ProcessedSet: getEnv("PROCESSED_SET", "processed.bin"),
		Timezone:     getEnv("TIMEZONE", "Asia/Shanghai"),

		GcalClientID:     getEnv("GCAL_CLIENT_ID", ""),
		GcalClientSecret: getEnv("GCAL_CLIENT_SECRET", ""),
		GcalRefreshToken: getEnv("GCAL_REFRESH_TOKEN", ""),
		GcalCalendarID:   getEnv("GCAL_CALENDAR_ID", "primary"),
	}

	if config.EmailUsername == "" {
		return nil, fmt.Errorf("EMAIL_USERNAME is required")
	}
	if config.EmailPassword == "" {
		return nil, fmt.Errorf("EMAIL_PASSWORD is required")
	}
	if config.TargetSender == "" {
		return nil, fmt.Errorf("TARGET_SENDER is required")
	}

	return config, nil
}

// SinkEnabled reports whether the remote calendar sink is configured.
func (c *Config) SinkEnabled() bool {
	return c.GcalClientID != "" && c.GcalClientSecret != "" && c.GcalRefreshToken != ""
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
