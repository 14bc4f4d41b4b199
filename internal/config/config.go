package config

import (
	"os"
	"strconv"

	"policy-pulse-server/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort    string
	MaxFileSize   int64
	LogLevel      string
	SupabaseURL   string
	SupabaseKey   string
	StorageBucket string
	JWTSecret     string
	MailMode      string
	MailFrom      string
	MailSendRate  float64
	SMTPAddr      string
	SMTPUser      string
	SMTPPassword  string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:    getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		MaxFileSize:   getEnvInt64OrDefault("MAX_FILE_SIZE", 50*1024*1024), // 50MB default
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		SupabaseURL:   getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:   getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		StorageBucket: getEnvOrDefault("SUPABASE_STORAGE_BUCKET", "policies"),
		JWTSecret:     getEnvOrDefault("JWT_SECRET", "your-secret-key-change-in-production"),
		MailMode:      getEnvOrDefault("MAIL_MODE", "mock"),
		MailFrom:      getEnvOrDefault("MAIL_FROM", "noreply@policypulse.local"),
		MailSendRate:  getEnvFloatOrDefault("MAIL_SENDS_PER_SECOND", 10),
		SMTPAddr:      getEnvOrDefault("SMTP_ADDR", "localhost:587"),
		SMTPUser:      getEnvOrDefault("SMTP_USER", ""),
		SMTPPassword:  getEnvOrDefault("SMTP_PASSWORD", ""),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetMaxFileSize returns the maximum allowed upload size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetStorageBucket returns the bucket holding policy PDFs
func (c *AppConfig) GetStorageBucket() string {
	return c.StorageBucket
}

// GetJWTSecret returns the JWT secret key
func (c *AppConfig) GetJWTSecret() string {
	return c.JWTSecret
}

// GetMailMode returns the outbound mail mode ("smtp" or "mock")
func (c *AppConfig) GetMailMode() string {
	return c.MailMode
}

// GetMailFrom returns the sender address for notifications
func (c *AppConfig) GetMailFrom() string {
	return c.MailFrom
}

// GetMailSendRate returns the outbound sends-per-second pacing
func (c *AppConfig) GetMailSendRate() float64 {
	return c.MailSendRate
}

// GetSMTPAddr returns the SMTP relay address (host:port)
func (c *AppConfig) GetSMTPAddr() string {
	return c.SMTPAddr
}

// GetSMTPUser returns the SMTP username
func (c *AppConfig) GetSMTPUser() string {
	return c.SMTPUser
}

// GetSMTPPassword returns the SMTP password
func (c *AppConfig) GetSMTPPassword() string {
	return c.SMTPPassword
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
