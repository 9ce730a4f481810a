// internal/common/errors/errors_test.go
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_UnwrapAndAs(t *testing.T) {
	cause := context.DeadlineExceeded
	err := fmt.Errorf("flights: %w", NewSearchTimeoutError("flights", cause))

	stdErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeSearchTimeout, stdErr.Code)
	assert.Equal(t, "flights", stdErr.Metadata["domain"])
	assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "StandardError[SEARCH_TIMEOUT]: flights search timeout", stdErr.Error())
}

func TestNormalize_WrapsPlainErrors(t *testing.T) {
	stdErr := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.Equal(t, "boom", stdErr.Details)
	assert.False(t, stdErr.Retryable)
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantRetries int
	}{
		{"transport failure retried", NewSearchRequestFailedError("hotels", stderrors.New("reset")), 3},
		{"provider rejection not retried", NewSearchProviderError("flights", stderrors.New("Invalid API key.")), 0},
		{"parse failure retried once", NewConversationParseFailedError(stderrors.New("schema")), 1},
		{"day range is a business error", NewInvalidDayRangeError("2025-01-05", "2025-01-01", -4), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, string(tt.err.Code), bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestInvalidDayRangeError(t *testing.T) {
	err := NewInvalidDayRangeError("2025-01-05", "2025-01-01", -4)
	assert.True(t, stderrors.Is(err, ErrInvalidDayRange))
	assert.Equal(t, "checkIn: 2025-01-05, checkOut: 2025-01-01, days: -4", err.Details)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(ErrCodeInvalidRequest))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(ErrCodeInvalidDayRange))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeChatNotFound))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrCodeSearchProviderError))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrCodeConversationParseFailed))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchTimeout))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeConversationParseFailed))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeLLMTimeout))
	assert.Equal(t, "CHAT", GetErrorCategory(ErrCodeChatNotFound))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidDayRange))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
	assert.True(t, IsRetryableErrorCode(ErrCodeChatStoreFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeChatNotFound))
}
