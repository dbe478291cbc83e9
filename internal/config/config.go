package config

import (
	"fmt"
	"time"

	"supplestore_backend/pkg/utils"

	"github.com/joho/godotenv"
)

// Config is built once in main and handed to the components that need it.
type Config struct {
	Port               string
	CORSAllowedOrigins []string
	LogLevel           string
	LogFormat          string

	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	DBSchemaPath string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTTTL    time.Duration

	CloudinaryURL    string
	CloudinaryFolder string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripePrices        map[string]string
	AppBaseURL          string

	TrialDays            int
	SubscriptionFailOpen bool
	DefaultPhoneRegion   string
	CartTTL              time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.LogDebug("No .env file loaded", map[string]interface{}{"reason": err.Error()})
	}

	cfg := &Config{
		Port:               utils.Getenv("PORT", "8080"),
		CORSAllowedOrigins: utils.GetenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		LogLevel:           utils.Getenv("LOG_LEVEL", "info"),
		LogFormat:          utils.Getenv("LOG_FORMAT", "console"),

		DBHost:       utils.Getenv("DB_HOST", "localhost"),
		DBPort:       utils.Getenv("DB_PORT", "5432"),
		DBUser:       utils.Getenv("DB_USER", "supplestore"),
		DBPassword:   utils.Getenv("DB_PASSWORD", "supplestore"),
		DBName:       utils.Getenv("DB_NAME", "supplestore"),
		DBSSLMode:    utils.Getenv("DB_SSLMODE", "disable"),
		DBSchemaPath: utils.Getenv("DB_SCHEMA_PATH", ""),

		RedisAddress:  utils.Getenv("REDIS_ADDRESS", ""),
		RedisPassword: utils.Getenv("REDIS_PASSWORD", ""),
		RedisDB:       utils.GetenvInt("REDIS_DB", 0),

		JWTSecret: utils.Getenv("JWT_SECRET", ""),
		JWTTTL:    utils.GetenvDuration("JWT_TTL", 72*time.Hour),

		CloudinaryURL:    utils.Getenv("CLOUDINARY_URL", ""),
		CloudinaryFolder: utils.Getenv("CLOUDINARY_FOLDER", "supplestore"),

		StripeSecretKey:     utils.Getenv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: utils.Getenv("STRIPE_WEBHOOK_SECRET", ""),
		StripePrices: map[string]string{
			"pro.monthly": utils.Getenv("STRIPE_PRICE_PRO_MONTHLY", ""),
			"pro.yearly":  utils.Getenv("STRIPE_PRICE_PRO_YEARLY", ""),
		},
		AppBaseURL: utils.Getenv("APP_BASE_URL", "http://localhost:3000"),

		TrialDays:            utils.GetenvInt("TRIAL_DAYS", 7),
		SubscriptionFailOpen: utils.GetenvBool("SUBSCRIPTION_FAIL_OPEN", true),
		DefaultPhoneRegion:   utils.Getenv("DEFAULT_PHONE_REGION", "BR"),
		CartTTL:              utils.GetenvDuration("CART_TTL", 30*24*time.Hour),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}
	if cfg.TrialDays < 0 {
		return nil, fmt.Errorf("TRIAL_DAYS must not be negative, got %d", cfg.TrialDays)
	}
	return cfg, nil
}

// PostgresDSN builds the lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}
