package uploader

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfmerger/internal/metrics"
)

// ObjectStore is the write-only object store surface the uploader needs.
type ObjectStore interface {
	PutPDF(ctx context.Context, key string, body io.Reader) error
}

// RetryPolicy bounds upload retries. Delay before attempt n+1 is
// BaseDelay * n (linear backoff). Retryable decides whether an error
// is worth another attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy retries every store error except context
// cancellation, 3 attempts total with a 1s base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Retryable:   IsRetryable,
	}
}

// Uploader persists merged documents through an ObjectStore with a
// bounded, injected retry policy.
type Uploader struct {
	store  ObjectStore
	policy RetryPolicy
}

func New(store ObjectStore, policy RetryPolicy) *Uploader {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}
	if policy.Retryable == nil {
		policy.Retryable = IsRetryable
	}
	return &Uploader{store: store, policy: policy}
}

// Upload writes body under key, rewinding the stream to its start
// before every attempt. It returns the key on success.
func (u *Uploader) Upload(ctx context.Context, key string, body io.ReadSeeker) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= u.policy.MaxAttempts; attempt++ {
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("rewind stream: %w", err)
		}

		err := u.store.PutPDF(ctx, key, body)
		if err == nil {
			metrics.IncUploadAttempt("success")
			return key, nil
		}
		lastErr = err
		metrics.IncUploadAttempt("error")

		if IsClockSkew(err) {
			log.Warn().Err(err).Str("key", key).Int("attempt", attempt).Msg("clock-skew error from object store")
		} else {
			log.Warn().Err(err).Str("key", key).Int("attempt", attempt).Msg("upload attempt failed")
		}

		if !u.policy.Retryable(err) || attempt == u.policy.MaxAttempts {
			break
		}

		delay := u.policy.BaseDelay * time.Duration(attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			log.Error().Err(ctx.Err()).Str("key", key).Msg("context cancelled during upload backoff")
			return "", ctx.Err()
		}
	}

	log.Error().Err(lastErr).Str("key", key).Int("attempts", u.policy.MaxAttempts).Msg("upload failed after all retries")
	return "", fmt.Errorf("upload failed after %d attempts: %w", u.policy.MaxAttempts, lastErr)
}
