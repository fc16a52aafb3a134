package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"LOG_LEVEL", "STAGING_LOG_FILE", "PROD_LOG_FILE",
		"AWS_REGION", "STAGING_BUCKET_NAME", "PROD_BUCKET_NAME",
		"FETCH_CONNECT_TIMEOUT", "FETCH_REQUEST_TIMEOUT", "FETCH_MAX_CONNS",
		"WORKER_CONCURRENCY", "JOB_TIMEOUT", "UPLOAD_MAX_ATTEMPTS",
		"UPLOAD_RETRY_BASE_DELAY", "REDIS_URL", "JOB_STATUS_TTL", "PORT",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "logs/staging.log", cfg.Logging.StagingFile)
	assert.Equal(t, "logs/prod.log", cfg.Logging.ProdFile)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, 5*time.Second, cfg.Fetch.ConnectTimeout)
	assert.Equal(t, 10*time.Second, cfg.Fetch.RequestTimeout)
	assert.Equal(t, 50, cfg.Fetch.MaxConns)
	assert.Equal(t, 8, cfg.Worker.Concurrency)
	assert.Equal(t, 120*time.Second, cfg.Worker.JobTimeout)
	assert.Equal(t, 3, cfg.Upload.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Upload.RetryBaseDelay)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, 24*time.Hour, cfg.Redis.StatusTTL)
	assert.Equal(t, "8080", cfg.Port)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STAGING_LOG_FILE", "/var/log/app/staging.log")
	t.Setenv("PROD_LOG_FILE", "/var/log/app/prod.log")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("STAGING_BUCKET_NAME", "docs-staging")
	t.Setenv("PROD_BUCKET_NAME", "docs-prod")
	t.Setenv("WORKER_CONCURRENCY", "4")
	t.Setenv("JOB_TIMEOUT", "30s")
	t.Setenv("UPLOAD_MAX_ATTEMPTS", "5")
	t.Setenv("UPLOAD_RETRY_BASE_DELAY", "250ms")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PORT", "9090")

	cfg := FromEnv()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/var/log/app/staging.log", cfg.Logging.StagingFile)
	assert.Equal(t, "/var/log/app/prod.log", cfg.Logging.ProdFile)
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.Equal(t, "docs-staging", cfg.AWS.StagingBucket)
	assert.Equal(t, "docs-prod", cfg.AWS.ProdBucket)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Worker.JobTimeout)
	assert.Equal(t, 5, cfg.Upload.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Upload.RetryBaseDelay)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "9090", cfg.Port)
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "not-a-number")
	t.Setenv("JOB_TIMEOUT", "soon")
	t.Setenv("UPLOAD_MAX_ATTEMPTS", "")

	cfg := FromEnv()

	assert.Equal(t, 8, cfg.Worker.Concurrency)
	assert.Equal(t, 120*time.Second, cfg.Worker.JobTimeout)
	assert.Equal(t, 3, cfg.Upload.MaxAttempts)
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "on", " true "} {
		assert.True(t, parseBool(v), "value %q", v)
	}
	for _, v := range []string{"", "0", "false", "no", "off", "maybe"} {
		assert.False(t, parseBool(v), "value %q", v)
	}
}

func TestAxiomDatasetSuffix(t *testing.T) {
	t.Setenv("AXIOM_DATASET", "prod")
	cfg := FromEnv()
	assert.Equal(t, "prod_pdfmerger", cfg.Axiom.Dataset)
}
