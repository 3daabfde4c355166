package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all service configuration, loaded from environment variables.
// Individual service constructors validate the fields they require; Load only
// fails on values that cannot be parsed.
type Config struct {
	Env string

	// AppURL is the public URL notification clicks open.
	AppURL string

	Log        LogConfig
	Mongo      MongoConfig
	S3         S3Config
	Vision     VisionConfig
	FCM        FCMConfig
	Redis      RedisConfig
	Webhook    WebhookConfig
	Moderation ModerationConfig
	Telemetry  TelemetryConfig
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string
	File  string
}

// MongoConfig points at the document store.
type MongoConfig struct {
	URI      string
	Database string
	Direct   bool
}

// S3Config points at the blob store. BaseURL may be empty, in which case the
// public URL is derived from the bucket and region.
type S3Config struct {
	Region  string
	Bucket  string
	BaseURL string
}

// VisionConfig configures the SafeSearch classifier. An empty credentials
// file falls back to application default credentials.
type VisionConfig struct {
	CredentialsFile string
}

// FCMConfig configures the push dispatcher.
type FCMConfig struct {
	CredentialsFile string
	ProjectID       string
}

// RedisConfig configures the optional event-dedupe cache. An empty Addr
// disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// WebhookConfig configures the webhook receiver.
type WebhookConfig struct {
	Addr   string
	Secret string
}

// ModerationConfig controls the moderation pipeline's scratch space.
type ModerationConfig struct {
	ScratchDir string
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	SamplingRate float64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	samplingRate, err := getEnvFloat("OTEL_SAMPLING_RATE", 1.0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:    getEnvOrDefault("APP_ENV", "development"),
		AppURL: getEnvOrDefault("APP_URL", "https://parlor.chat"),
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
			File:  getEnvOrDefault("LOG_FILE", "functions.log"),
		},
		Mongo: MongoConfig{
			URI:      getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnvOrDefault("MONGO_DATABASE", "parlor"),
			Direct:   getEnvBool("MONGO_DIRECT", false),
		},
		S3: S3Config{
			Region:  getEnvOrDefault("AWS_REGION", "us-east-1"),
			Bucket:  os.Getenv("S3_BUCKET"),
			BaseURL: os.Getenv("S3_BASE_URL"),
		},
		Vision: VisionConfig{
			CredentialsFile: os.Getenv("VISION_CREDENTIALS_FILE"),
		},
		FCM: FCMConfig{
			CredentialsFile: os.Getenv("FCM_CREDENTIALS_FILE"),
			ProjectID:       os.Getenv("FCM_PROJECT_ID"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Webhook: WebhookConfig{
			Addr:   getEnvOrDefault("WEBHOOK_ADDR", ":8787"),
			Secret: os.Getenv("WEBHOOK_SECRET"),
		},
		Moderation: ModerationConfig{
			ScratchDir: getEnvOrDefault("MODERATION_SCRATCH_DIR", "/tmp/parlor_moderation"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvBool("OTEL_ENABLED", false),
			ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", "parlor-functions"),
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SamplingRate: samplingRate,
		},
	}

	return cfg, nil
}

// IsProduction reports whether the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
