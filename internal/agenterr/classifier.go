package agenterr

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ClassifyError determines whether a transport-level error is retryable and
// maps it onto a taxonomy code.
// Returns: (isRetryable, code)
func ClassifyError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	errStr := err.Error()

	// JSON decode errors are malformed data, never retryable.
	if _, ok := err.(*json.SyntaxError); ok {
		return false, CodeLLMInvalidResponse
	}
	if _, ok := err.(*json.UnmarshalTypeError); ok {
		return false, CodeLLMInvalidResponse
	}
	if strings.Contains(errStr, "json:") {
		return false, CodeLLMInvalidResponse
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return false, CodeUserNotFound
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true, CodeLLMTimeout
	}
	if errors.Is(err, context.Canceled) {
		return false, CodeInternal
	}

	// Typed network errors come from the agent HTTP client, not the database,
	// so they must win over the substring heuristics below.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true, CodeToolExecutionFailed
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true, CodeToolExecutionFailed
	}

	// Database errors, matched by message shape.
	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "UNIQUE constraint") {
		// Unique violation means the work already happened; idempotent skip.
		return false, CodeDBConflict
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "timeout") {
		return true, CodeDBConflict
	}

	// Agent service HTTP errors, matched by message shape.
	if strings.Contains(errStr, "agent service 5xx") {
		return true, CodeToolExecutionFailed
	}
	if strings.Contains(errStr, "agent service rate limited") {
		return true, CodeLLMRateLimited
	}
	if strings.Contains(errStr, "failed to call agent service") {
		return true, CodeToolExecutionFailed
	}

	// Unknown errors are handled conservatively: no retry.
	return false, CodeInternal
}

// ShouldRetry checks if an error should be retried based on retry count.
func ShouldRetry(retryCount int64, maxRetries int64, isRetryable bool) bool {
	if !isRetryable {
		return false
	}
	return retryCount <= maxRetries
}
