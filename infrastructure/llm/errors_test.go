package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderErrorMessage(t *testing.T) {
	err := NewProviderError("openai", ErrorTypeRateLimit, 429, "slow down", errors.New("underlying"))

	msg := err.Error()
	assert.Contains(t, msg, "openai error")
	assert.Contains(t, msg, "HTTP 429")
	assert.Contains(t, msg, "rate_limit")
	assert.Contains(t, msg, "slow down")
	assert.Contains(t, msg, "underlying")
}

func TestProviderErrorUnwrap(t *testing.T) {
	underlying := errors.New("boom")
	err := NewProviderError("google", ErrorTypeServerError, 500, "", underlying)
	assert.ErrorIs(t, err, underlying)
}

func TestProviderErrorIsRetryable(t *testing.T) {
	tests := []struct {
		errType   ErrorType
		retryable bool
	}{
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeTimeout, true},
		{ErrorTypeAuthentication, false},
		{ErrorTypeBadRequest, false},
		{ErrorTypeNotFound, false},
		{ErrorTypeContentPolicy, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		err := NewProviderError("p", tt.errType, 0, "", nil)
		assert.Equal(t, tt.retryable, err.IsRetryable(), "type %d", tt.errType)
	}
}

func TestErrorClassifierHTTP(t *testing.T) {
	ec := &ErrorClassifier{Provider: "anthropic"}

	tests := []struct {
		status int
		want   ErrorType
	}{
		{401, ErrorTypeAuthentication},
		{403, ErrorTypeAuthentication},
		{429, ErrorTypeRateLimit},
		{400, ErrorTypeBadRequest},
		{404, ErrorTypeNotFound},
		{500, ErrorTypeServerError},
		{502, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{504, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		err := ec.ClassifyHTTPError(tt.status, "msg", nil)
		require.NotNil(t, err)
		assert.Equal(t, tt.want, err.Type, "status %d", tt.status)
		assert.Equal(t, tt.status, err.StatusCode)
		assert.Equal(t, "anthropic", err.Provider)
	}
}

func TestErrorClassifierContext(t *testing.T) {
	ec := &ErrorClassifier{Provider: "google"}

	err := ec.ClassifyContextError(context.DeadlineExceeded)
	assert.Equal(t, ErrorTypeTimeout, err.Type)
	assert.True(t, err.IsRetryable())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsContextError(t *testing.T) {
	assert.True(t, isContextError(context.Canceled))
	assert.True(t, isContextError(context.DeadlineExceeded))
	assert.False(t, isContextError(errors.New("other")))
	assert.False(t, isContextError(nil))
}
