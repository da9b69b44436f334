// Package config handles application configuration.
package config

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Config holds all application configuration.
type Config struct {
	Port    int
	BaseURL string

	DatabaseURL    string
	TursoURL       string
	TursoAuthToken string

	JWTSecret     string
	JWTIssuer     string // optional; when set the iss claim must match
	EncryptionKey []byte // 32-byte key for AES-256-GCM

	// Svix signing secret for identity-provider account webhooks.
	AccountWebhookSecret string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeSuccessURL    string
	StripeCancelURL     string

	JazzCashMerchantID    string
	JazzCashPassword      string
	JazzCashIntegritySalt string
	JazzCashReturnURL     string
	JazzCashEndpoint      string

	EasyPaisaStoreID     string
	EasyPaisaHashKey     string
	EasyPaisaEndpoint    string
	EasyPaisaPostbackURL string

	SynthAPIURL  string
	SynthAPIKey  string
	SynthTimeout time.Duration

	Generation GenerationConfig

	StorageEnabled   bool
	StorageEndpoint  string // AWS_ENDPOINT_URL_S3
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageRegion    string
	StoragePublicURL string // public base URL for stored objects (CDN)
	LocalStorageDir  string // used when no bucket is configured

	CORSOrigins []string

	CleanupEnabled    bool
	CleanupInterval   time.Duration
	CleanupStaleAfter time.Duration

	// IdleTimeout stops the server after a quiet period (scale-to-zero). 0 disables.
	IdleTimeout time.Duration

	UserRequestsPerMinute int
	IPRequestsPerMinute   int

	LogFile string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:    getEnvInt("PORT", 8080),
		BaseURL: strings.TrimSuffix(getEnv("BASE_URL", "http://localhost:8080"), "/"),

		DatabaseURL:    getEnv("DATABASE_URL", "file:nexlevel.db"),
		TursoURL:       getEnv("TURSO_URL", ""),
		TursoAuthToken: getEnv("TURSO_AUTH_TOKEN", ""),

		JWTSecret:            getEnv("JWT_SECRET", ""),
		JWTIssuer:            getEnv("JWT_ISSUER", ""),
		AccountWebhookSecret: getEnv("ACCOUNT_WEBHOOK_SECRET", ""),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		JazzCashMerchantID:    getEnv("JAZZCASH_MERCHANT_ID", ""),
		JazzCashPassword:      getEnv("JAZZCASH_PASSWORD", ""),
		JazzCashIntegritySalt: getEnv("JAZZCASH_INTEGRITY_SALT", ""),
		JazzCashEndpoint:      getEnv("JAZZCASH_ENDPOINT", "https://sandbox.jazzcash.com.pk/CustomerPortal/transactionmanagement/merchantform/"),

		EasyPaisaStoreID:  getEnv("EASYPAISA_STORE_ID", ""),
		EasyPaisaHashKey:  getEnv("EASYPAISA_HASH_KEY", ""),
		EasyPaisaEndpoint: getEnv("EASYPAISA_ENDPOINT", "https://easypaystg.easypaisa.com.pk/easypay/Index.jsf"),

		SynthAPIURL:  getEnv("SYNTH_API_URL", "https://api.elevenlabs.io"),
		SynthAPIKey:  getEnv("SYNTH_API_KEY", ""),
		SynthTimeout: getEnvDuration("SYNTH_TIMEOUT", 60*time.Second),

		StorageEndpoint:  getEnv("AWS_ENDPOINT_URL_S3", ""),
		StorageAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		StorageSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StorageBucket:    getEnvWithFallback("BUCKET_NAME", "STORAGE_BUCKET", ""),
		StorageRegion:    getEnv("AWS_REGION", "auto"),
		StoragePublicURL: strings.TrimSuffix(getEnv("STORAGE_PUBLIC_URL", ""), "/"),
		LocalStorageDir:  getEnv("LOCAL_STORAGE_DIR", "./data/media"),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		CleanupEnabled:    getEnvBool("CLEANUP_ENABLED", true),
		CleanupInterval:   getEnvDuration("CLEANUP_INTERVAL", 15*time.Minute),
		CleanupStaleAfter: getEnvDuration("CLEANUP_STALE_AFTER", 30*time.Minute),

		IdleTimeout: getEnvDuration("IDLE_TIMEOUT", 0),

		UserRequestsPerMinute: getEnvInt("RATE_LIMIT_USER_PER_MINUTE", 120),
		IPRequestsPerMinute:   getEnvInt("RATE_LIMIT_IP_PER_MINUTE", 60),

		LogFile: getEnv("LOG_FILE", ""),
	}

	cfg.StorageEnabled = cfg.StorageBucket != "" && cfg.StorageEndpoint != ""

	// Provider callbacks default to routes on this API.
	cfg.StripeSuccessURL = getEnv("STRIPE_SUCCESS_URL", cfg.BaseURL+"/billing/success")
	cfg.StripeCancelURL = getEnv("STRIPE_CANCEL_URL", cfg.BaseURL+"/billing/cancel")
	cfg.JazzCashReturnURL = getEnv("JAZZCASH_RETURN_URL", cfg.BaseURL+"/api/v1/payments/webhook/jazzcash")
	cfg.EasyPaisaPostbackURL = getEnv("EASYPAISA_POSTBACK_URL", cfg.BaseURL+"/api/v1/payments/webhook/easypaisa")

	gen, err := loadGenerationConfig()
	if err != nil {
		return nil, err
	}
	cfg.Generation = gen

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	encKeyStr := getEnv("ENCRYPTION_KEY", "")
	if encKeyStr != "" {
		decoded, err := base64.StdEncoding.DecodeString(encKeyStr)
		if err != nil || len(decoded) != 32 {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be a base64-encoded 32-byte key")
		}
		cfg.EncryptionKey = decoded
	} else {
		cfg.EncryptionKey = deriveEncryptionKey(cfg.JWTSecret)
	}

	return cfg, nil
}

// StripeEnabled reports whether the Stripe adapter can be registered.
func (c *Config) StripeEnabled() bool {
	return c.StripeSecretKey != "" && c.StripeWebhookSecret != ""
}

// JazzCashEnabled reports whether the JazzCash adapter can be registered.
func (c *Config) JazzCashEnabled() bool {
	return c.JazzCashMerchantID != "" && c.JazzCashIntegritySalt != ""
}

// EasyPaisaEnabled reports whether the EasyPaisa adapter can be registered.
func (c *Config) EasyPaisaEnabled() bool {
	return c.EasyPaisaStoreID != "" && c.EasyPaisaHashKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getEnvWithFallback(primary, fallback, defaultValue string) string {
	if value := os.Getenv(primary); value != "" {
		return value
	}
	if value := os.Getenv(fallback); value != "" {
		return value
	}
	return defaultValue
}

// deriveEncryptionKey derives a 32-byte key from the JWT secret with HKDF-SHA256.
func deriveEncryptionKey(secret string) []byte {
	salt := []byte("nexlevel-speech-encryption-key-v1")
	info := []byte("payment-response-aes-256-gcm")

	reader := hkdf.New(sha256.New, []byte(secret), salt, info)

	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		panic("hkdf: failed to derive key: " + err.Error())
	}
	return key
}
