package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Sheet    SheetConfig
	Errands  ErrandConfig
	Twilio   TwilioConfig
	Redis    RedisConfig
	Jobs     JobsConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port                     string
	Environment              string
	DisableWebhookValidation bool
}

type DatabaseConfig struct {
	User                   string
	Password               string
	Name                   string
	Host                   string
	Port                   string
	InstanceConnectionName string // Cloud SQL socket, production only
	UseMemoryStore         bool
}

type SheetConfig struct {
	Name      string
	Bootstrap bool // write the header row into an empty table
}

type ErrandConfig struct {
	IDPrefix      string
	IDMaxAttempts int
	Timezone      string
	Location      *time.Location
}

type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	DedupTTL time.Duration
}

type JobsConfig struct {
	OpsWhatsAppTo    string
	DailySummaryHour int
	DailySummaryOn   bool
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads .env (if present) and the environment into a Config
func Load() (*Config, error) {
	// Load .env file for local development; production sets real env vars
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			_ = godotenv.Load("environments/.env.development")
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:                     getEnv("PORT", "8080"),
			Environment:              getEnv("ENVIRONMENT", "development"),
			DisableWebhookValidation: getEnvAsBool("DISABLE_WEBHOOK_VALIDATION", false),
		},
		Database: DatabaseConfig{
			User:                   getEnv("DB_USER", "postgres"),
			Password:               getEnv("DB_PASS", ""),
			Name:                   getEnv("DB_NAME", "errands"),
			Host:                   getEnv("DB_HOST", "localhost"),
			Port:                   getEnv("DB_PORT", "5432"),
			InstanceConnectionName: getEnv("INSTANCE_CONNECTION_NAME", ""),
			UseMemoryStore:         getEnvAsBool("USE_MEMORY_STORE", false),
		},
		Sheet: SheetConfig{
			Name:      getEnv("SHEET_NAME", "Errand Log"),
			Bootstrap: getEnvAsBool("SHEET_BOOTSTRAP", true),
		},
		Errands: ErrandConfig{
			IDPrefix:      strings.ToUpper(getEnv("ERRAND_ID_PREFIX", "MEG")),
			IDMaxAttempts: getEnvAsInt("ERRAND_ID_MAX_ATTEMPTS", 8),
			Timezone:      getEnv("TIMEZONE", "Local"),
		},
		Twilio: TwilioConfig{
			AccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
			WhatsAppFrom: getEnv("TWILIO_WHATSAPP_FROM", ""), // Format: "whatsapp:+14155238886"
		},
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_HOST", "") != "",
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			DedupTTL: parseDuration(getEnv("DEDUP_TTL", "24h"), 24*time.Hour),
		},
		Jobs: JobsConfig{
			OpsWhatsAppTo:    getEnv("OPS_WHATSAPP_TO", ""),
			DailySummaryHour: getEnvAsInt("DAILY_SUMMARY_HOUR", 20),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
	cfg.Jobs.DailySummaryOn = cfg.Jobs.OpsWhatsAppTo != ""

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration and resolves the operating time zone
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Sheet.Name == "" {
		return fmt.Errorf("SHEET_NAME is required")
	}
	if c.Errands.IDPrefix == "" {
		return fmt.Errorf("ERRAND_ID_PREFIX is required")
	}
	if c.Errands.IDMaxAttempts < 1 {
		return fmt.Errorf("ERRAND_ID_MAX_ATTEMPTS must be at least 1")
	}
	if c.Jobs.DailySummaryHour < 0 || c.Jobs.DailySummaryHour > 23 {
		return fmt.Errorf("DAILY_SUMMARY_HOUR must be between 0 and 23")
	}

	loc, err := time.LoadLocation(c.Errands.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Errands.Timezone, err)
	}
	c.Errands.Location = loc

	if c.IsProduction() && !c.Server.DisableWebhookValidation && c.Twilio.AuthToken == "" {
		return fmt.Errorf("TWILIO_AUTH_TOKEN is required to validate webhooks in production")
	}
	return nil
}

// IsProduction reports whether the service runs on Cloud Run
func (c *Config) IsProduction() bool {
	return c.Database.InstanceConnectionName != "" || c.Server.Environment == "production"
}

// TwilioConfigured reports whether outbound WhatsApp is possible
func (c *Config) TwilioConfigured() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" && c.Twilio.WhatsAppFrom != ""
}

// DSN builds the PostgreSQL connection string
func (d DatabaseConfig) DSN() string {
	if d.InstanceConnectionName != "" {
		// Production: Connect via Unix socket
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable",
			d.InstanceConnectionName, d.User, d.Password, d.Name)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.User, d.Password, d.Name, d.Port)
}

// Addr returns host:port for the Redis client
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
