package uploader

import (
	"context"
	"errors"
	"strings"
)

// IsClockSkew checks for the clock-skew error class S3 raises when the
// request signature timestamp drifts from the service clock.
func IsClockSkew(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "RequestTimeTooSkewed") ||
		strings.Contains(errStr, "SignatureDoesNotMatch") ||
		strings.Contains(strings.ToLower(errStr), "clock skew")
}

// IsRetryable reports whether an upload error should be retried.
// Everything is considered transient except cancellation of the job
// itself.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
