package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	RefreshTokenTTL   time.Duration

	GoogleClientID string
	MapsAPIKey     string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion string

	AllowedOrigins []string // CORS allowed origins

	// RedirectRules are fixed source->destination path rewrites applied
	// before route classification (e.g. /settings -> /account/profile).
	RedirectRules map[string]string
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users                   string
	Sessions                string
	Listings                string
	ListingImages           string
	Commissions             string
	CommissionVerifications string
	CommissionHistory       string
	Activities              string
	Settings                string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", ""),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:                   getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:                getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Listings:                getEnv("DYNAMO_TABLE_LISTINGS", "listings"),
			ListingImages:           getEnv("DYNAMO_TABLE_LISTING_IMAGES", "listing_images"),
			Commissions:             getEnv("DYNAMO_TABLE_COMMISSIONS", "commissions"),
			CommissionVerifications: getEnv("DYNAMO_TABLE_COMMISSION_VERIFICATIONS", "commission_verifications"),
			CommissionHistory:       getEnv("DYNAMO_TABLE_COMMISSION_HISTORY", "commission_history"),
			Activities:              getEnv("DYNAMO_TABLE_ACTIVITIES", "activities"),
			Settings:                getEnv("DYNAMO_TABLE_SETTINGS", "settings"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "brokerage-listing-photos"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		RefreshTokenTTL:   time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30)) * 24 * time.Hour,

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		MapsAPIKey:     getEnv("MAPS_API_KEY", ""),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		RedirectRules: map[string]string{
			"/settings": "/account/profile",
			"/profile":  "/account/profile",
			"/login":    "/auth/login",
		},
	}
}

// Validate checks the configuration the process cannot run without. The
// hosted-database settings are fatal when absent; everything else degrades.
func (c *Config) Validate() error {
	if c.AWSRegion == "" {
		return fmt.Errorf("AWS_REGION is required")
	}
	if c.AppEnv == "production" && c.AWSAccessKeyID == "" {
		return fmt.Errorf("AWS_ACCESS_KEY_ID is required in production")
	}
	if c.AppEnv == "production" && c.AWSSecretKey == "" {
		return fmt.Errorf("AWS_SECRET_ACCESS_KEY is required in production")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
