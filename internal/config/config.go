package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Operator authentication
	OperatorJWTSecret string

	// Import pipeline limits
	ImportMaxRows      int
	ImportMaxFileBytes int64
	ImportGroupSize    int
	ImportGroupPause   time.Duration
	ImportsPerHour     int

	// Business schedule used by rule validation
	BusinessOpenHour  int
	BusinessCloseHour int
	BusinessClosedDay time.Weekday
	BusinessTimezone  string

	// Notifications
	SendNotifications    bool
	NotificationProvider string
	SESFromEmail         string
	SESFromName          string
	SendGridAPIKey       string
	SendGridFromEmail    string
	SendGridFromName     string

	// AWS / audit queue
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	AuditQueueURL       string
	UseMemoryAuditQueue bool

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		OperatorJWTSecret: getEnv("OPERATOR_JWT_SECRET", ""),

		ImportMaxRows:      getEnvAsInt("IMPORT_MAX_ROWS", 1000),
		ImportMaxFileBytes: int64(getEnvAsInt("IMPORT_MAX_FILE_BYTES", 5*1024*1024)),
		ImportGroupSize:    getEnvAsInt("IMPORT_GROUP_SIZE", 10),
		ImportGroupPause:   getEnvAsDuration("IMPORT_GROUP_PAUSE", 100*time.Millisecond),
		ImportsPerHour:     getEnvAsInt("IMPORTS_PER_HOUR", 5),

		BusinessOpenHour:  getEnvAsInt("BUSINESS_OPEN_HOUR", 9),
		BusinessCloseHour: getEnvAsInt("BUSINESS_CLOSE_HOUR", 17),
		BusinessClosedDay: time.Weekday(getEnvAsInt("BUSINESS_CLOSED_DAY", int(time.Sunday))),
		BusinessTimezone:  getEnv("BUSINESS_TZ", "UTC"),

		SendNotifications:    getEnvAsBool("SEND_NOTIFICATIONS", true),
		NotificationProvider: strings.ToLower(strings.TrimSpace(getEnv("NOTIFICATION_PROVIDER", "ses"))),
		SESFromEmail:         getEnv("SES_FROM_EMAIL", ""),
		SESFromName:          getEnv("SES_FROM_NAME", "Grooming Platform"),
		SendGridAPIKey:       getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:    getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:     getEnv("SENDGRID_FROM_NAME", "Grooming Platform"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		AuditQueueURL:       getEnv("AUDIT_QUEUE_URL", ""),
		UseMemoryAuditQueue: getEnvAsBool("USE_MEMORY_AUDIT_QUEUE", false),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool retrieves an environment variable as a boolean
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a time.Duration
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice retrieves a comma-separated environment variable
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
