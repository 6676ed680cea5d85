package agenterr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	var decoded map[string]any
	syntaxErr := json.Unmarshal([]byte("{"), &decoded)

	tests := []struct {
		name      string
		err       error
		retryable bool
		code      string
	}{
		{"nil error", nil, false, ""},
		{"json syntax error", syntaxErr, false, CodeLLMInvalidResponse},
		{"no rows", pgx.ErrNoRows, false, CodeUserNotFound},
		{"duplicate key", errors.New(`duplicate key value violates unique constraint "reminders_habit_due_key"`), false, CodeDBConflict},
		{"connection refused", errors.New("connection refused"), true, CodeDBConflict},
		{"http dial failure", &url.Error{Op: "Post", URL: "http://agent:9090/execute", Err: errors.New("dial tcp: connection refused")}, true, CodeToolExecutionFailed},
		{"net timeout", &net.DNSError{Err: "i/o timeout", Name: "agent", IsTimeout: true}, true, CodeToolExecutionFailed},
		{"deadline exceeded", context.DeadlineExceeded, true, CodeLLMTimeout},
		{"canceled", context.Canceled, false, CodeInternal},
		{"agent 5xx", fmt.Errorf("agent service 5xx: status 503"), true, CodeToolExecutionFailed},
		{"agent rate limited", errors.New("agent service rate limited"), true, CodeLLMRateLimited},
		{"agent unreachable", fmt.Errorf("failed to call agent service: %w", errors.New("dial tcp")), true, CodeToolExecutionFailed},
		{"unknown", errors.New("something odd"), false, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retryable, code := ClassifyError(tt.err)
			assert.Equal(t, tt.retryable, retryable)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestShouldRetry(t *testing.T) {
	assert.True(t, ShouldRetry(1, 3, true))
	assert.True(t, ShouldRetry(3, 3, true))
	assert.False(t, ShouldRetry(4, 3, true))
	assert.False(t, ShouldRetry(0, 3, false))
}
