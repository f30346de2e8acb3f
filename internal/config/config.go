package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	LogLevel    string

	HTTPAddr     string
	CronSecret   string
	DefaultOrgID int64

	// BusinessTimeZone is the operator's time zone; the send-time gate and
	// interest accrual are evaluated against "today" in this zone.
	BusinessTimeZone string
	// InterestAnnualRate is the statutory annual interest rate in percent
	// applied to overdue principal.
	InterestAnnualRate float64
	DueSoonDays        int

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	SMSAPIURL string
	SMSAPIKey string
	SMSSender string

	SendTimeout       time.Duration
	SchedulerInterval time.Duration
	SchedulerBatch    int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "collecta"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		CronSecret:   strings.TrimSpace(getenv("CRON_SECRET", "")),
		DefaultOrgID: getenvInt64("DEFAULT_ORG", 0),

		BusinessTimeZone:   getenv("BUSINESS_TIMEZONE", "Europe/Warsaw"),
		InterestAnnualRate: getenvFloat("INTEREST_ANNUAL_RATE", 11.5),
		DueSoonDays:        getenvInt("DUE_SOON_DAYS", 7),

		DBType:     getenv("DATABASE_TYPE", "postgres"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "postgres"),
		DBUser:     getenv("DATABASE_USER", "postgres"),
		DBPassword: getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		SMTPHost:     getenv("SMTP_HOST", "localhost"),
		SMTPPort:     getenvInt("SMTP_PORT", 587),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", "no-reply@collecta.local"),

		SMSAPIURL: strings.TrimSpace(getenv("SMS_API_URL", "")),
		SMSAPIKey: strings.TrimSpace(getenv("SMS_API_KEY", "")),
		SMSSender: getenv("SMS_SENDER", "collecta"),

		SendTimeout:       getenvDuration("SEND_TIMEOUT", 15*time.Second),
		SchedulerInterval: getenvDuration("SCHEDULER_INTERVAL", 15*time.Minute),
		SchedulerBatch:    getenvInt("SCHEDULER_BATCH_SIZE", 50),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
