package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string
	DatabaseURL   string
	SessionSecret string
	SessionIssuer string
	SessionTTL    time.Duration
	CORSOrigins   []string

	// Merchant catalog: a local file, or an object in MinIO when a bucket is set.
	MerchantFile   string
	MerchantBucket string
	MerchantObject string
	MinIO          MinIO

	GeminiAPIKey string
	GeminiModel  string

	KafkaBroker string
	KafkaTopic  string

	TuningFile string
}

// MinIO holds S3-compatible object storage credentials.
type MinIO struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:          fallback(os.Getenv("PORT"), "8000"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SessionSecret: strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		SessionIssuer: fallback(os.Getenv("SESSION_ISSUER"), "smartcard"),
		CORSOrigins:   parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),

		MerchantFile:   fallback(os.Getenv("MERCHANT_FILE"), "data/all_locations.json"),
		MerchantBucket: strings.TrimSpace(os.Getenv("MERCHANT_BUCKET")),
		MerchantObject: fallback(os.Getenv("MERCHANT_OBJECT"), "all_locations.json"),
		MinIO: MinIO{
			Endpoint:  strings.TrimSpace(os.Getenv("MINIO_ENDPOINT")),
			AccessKey: strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY")),
			SecretKey: strings.TrimSpace(os.Getenv("MINIO_SECRET_KEY")),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		},

		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  fallback(os.Getenv("GEMINI_MODEL"), "gemini-2.5-flash"),

		KafkaBroker: strings.TrimSpace(os.Getenv("KAFKA_BROKER")),
		KafkaTopic:  fallback(os.Getenv("KAFKA_TOPIC"), "smartcard.activity"),

		TuningFile: strings.TrimSpace(os.Getenv("DEALS_TUNING_FILE")),
	}

	// Sessions last 30 days unless overridden.
	minutes := fallback(os.Getenv("SESSION_TTL_MINUTES"), "43200")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.SessionTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET is required")
	}
	if cfg.MerchantBucket != "" && (cfg.MinIO.Endpoint == "" || cfg.MinIO.AccessKey == "" || cfg.MinIO.SecretKey == "") {
		return Config{}, errors.New("MERCHANT_BUCKET requires MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
