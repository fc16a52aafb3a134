package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level       string
	Pretty      bool
	File        string
	StagingFile string
	ProdFile    string
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
	Compress    bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// AWSConfig defines object store connectivity and the per-environment buckets.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	StagingBucket   string
	ProdBucket      string
}

// FetchConfig defines the outbound HTTP client used for source downloads.
type FetchConfig struct {
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	MaxConns       int
}

// WorkerConfig defines per-job processing behavior.
type WorkerConfig struct {
	Concurrency int
	JobTimeout  time.Duration
}

// UploadConfig defines the durable-upload retry policy.
type UploadConfig struct {
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// RedisConfig defines the optional job status store.
type RedisConfig struct {
	URL       string
	StatusTTL time.Duration
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	AWS     AWSConfig
	Fetch   FetchConfig
	Worker  WorkerConfig
	Upload  UploadConfig
	Redis   RedisConfig
	Port    string
}

// FromEnv loads configuration from environment with sensible defaults.
// A local .env file is honored when present.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:       getEnv("LOG_LEVEL", "info"),
		Pretty:      parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:        getEnv("LOG_FILE", "logs/pdfmerger.log"),
		StagingFile: getEnv("STAGING_LOG_FILE", "logs/staging.log"),
		ProdFile:    getEnv("PROD_LOG_FILE", "logs/prod.log"),
		MaxSizeMB:   parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups:  parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays:  parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:    parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pdfmerger",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.AWS = AWSConfig{
		Region:          getEnv("AWS_REGION", "us-east-1"),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StagingBucket:   getEnv("STAGING_BUCKET_NAME", ""),
		ProdBucket:      getEnv("PROD_BUCKET_NAME", ""),
	}

	cfg.Fetch = FetchConfig{
		ConnectTimeout: parseDuration(getEnv("FETCH_CONNECT_TIMEOUT", "5s"), 5*time.Second),
		RequestTimeout: parseDuration(getEnv("FETCH_REQUEST_TIMEOUT", "10s"), 10*time.Second),
		MaxConns:       parseInt(getEnv("FETCH_MAX_CONNS", "50"), 50),
	}

	cfg.Worker = WorkerConfig{
		Concurrency: parseInt(getEnv("WORKER_CONCURRENCY", "8"), 8),
		JobTimeout:  parseDuration(getEnv("JOB_TIMEOUT", "120s"), 120*time.Second),
	}

	cfg.Upload = UploadConfig{
		MaxAttempts:    parseInt(getEnv("UPLOAD_MAX_ATTEMPTS", "3"), 3),
		RetryBaseDelay: parseDuration(getEnv("UPLOAD_RETRY_BASE_DELAY", "1s"), time.Second),
	}

	cfg.Redis = RedisConfig{
		URL:       getEnv("REDIS_URL", ""),
		StatusTTL: parseDuration(getEnv("JOB_STATUS_TTL", "24h"), 24*time.Hour),
	}

	cfg.Port = getEnv("PORT", "8080")

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
