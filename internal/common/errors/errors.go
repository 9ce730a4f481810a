// Package errors provides the structured errors shared by the planner API and the stage workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidRequest  ErrorCode = "INVALID_REQUEST"
	ErrCodeInvalidDayRange ErrorCode = "INVALID_DAY_RANGE"

	ErrCodeSearchProviderError ErrorCode = "SEARCH_PROVIDER_ERROR"
	ErrCodeSearchRequestFailed ErrorCode = "SEARCH_REQUEST_FAILED"
	ErrCodeSearchTimeout       ErrorCode = "SEARCH_TIMEOUT"

	ErrCodeConversationParseFailed ErrorCode = "CONVERSATION_PARSE_FAILED"
	ErrCodeLLMTimeout              ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMSynthesisFailed      ErrorCode = "LLM_SYNTHESIS_FAILED"

	ErrCodeChatNotFound    ErrorCode = "CHAT_NOT_FOUND"
	ErrCodeChatStoreFailed ErrorCode = "CHAT_STORE_FAILED"

	ErrCodeExternalService  ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout          ErrorCode = "TIMEOUT_ERROR"
	ErrCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeAuthentication   ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns e.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// As extracts a *StandardError from err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewInvalidRequestError(details string) *StandardError {
	e := newError(ErrCodeInvalidRequest, "Invalid request", nil, false)
	e.Details = details
	return e
}

// ErrInvalidDayRange is the cause of every INVALID_DAY_RANGE error.
var ErrInvalidDayRange = stderrors.New("check-out date must be after check-in date")

func NewInvalidDayRangeError(checkIn, checkOut string, days int) *StandardError {
	e := newError(ErrCodeInvalidDayRange, "Check-out date must be after check-in date", ErrInvalidDayRange, false)
	e.Details = fmt.Sprintf("checkIn: %s, checkOut: %s, days: %d", checkIn, checkOut, days)
	return e
}

// NewSearchProviderError wraps an error reported by the search provider itself.
func NewSearchProviderError(domain string, err error) *StandardError {
	return newError(ErrCodeSearchProviderError, fmt.Sprintf("%s search rejected by provider", domain), err, false).
		WithMetadata("domain", domain)
}

func NewSearchRequestFailedError(domain string, err error) *StandardError {
	return newError(ErrCodeSearchRequestFailed, fmt.Sprintf("%s search request failed", domain), err, true).
		WithMetadata("domain", domain)
}

func NewSearchTimeoutError(domain string, err error) *StandardError {
	return newError(ErrCodeSearchTimeout, fmt.Sprintf("%s search timeout", domain), err, true).
		WithMetadata("domain", domain)
}

func NewConversationParseFailedError(err error) *StandardError {
	return newError(ErrCodeConversationParseFailed, "Unable to generate itinerary", err, true)
}

func NewLLMTimeoutError(err error) *StandardError {
	return newError(ErrCodeLLMTimeout, "Text generation timeout", err, true)
}

func NewLLMSynthesisFailedError(err error) *StandardError {
	return newError(ErrCodeLLMSynthesisFailed, "Text generation failed", err, true)
}

// ErrChatNotFound is the cause of every CHAT_NOT_FOUND error.
var ErrChatNotFound = stderrors.New("chat not found")

func NewChatNotFoundError(chatID string) *StandardError {
	e := newError(ErrCodeChatNotFound, "Chat not found", ErrChatNotFound, false)
	e.Details = fmt.Sprintf("chatId: %s", chatID)
	return e
}

func NewChatStoreFailedError(err error) *StandardError {
	return newError(ErrCodeChatStoreFailed, "Chat store error", err, true)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err, true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err, true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	e := newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), nil, false)
	e.Details = details
	return e
}

func NewAuthenticationError(details string) *StandardError {
	e := newError(ErrCodeAuthentication, "Authentication failed", nil, false)
	e.Details = details
	return e
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// ==========================
// 4. Error Conversion
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSearchRequestFailed,
		ErrCodeChatStoreFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeSearchTimeout,
		ErrCodeTimeout:
		return 2

	case ErrCodeLLMTimeout,
		ErrCodeLLMSynthesisFailed,
		ErrCodeConversationParseFailed:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// HTTPStatus maps an error code to the status the planner API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest, ErrCodeInvalidDayRange:
		return http.StatusUnprocessableEntity
	case ErrCodeChatNotFound, ErrCodeResourceNotFound:
		return http.StatusNotFound
	case ErrCodeAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "CONVERSATION"):
		return "AI"
	case strings.HasPrefix(codeStr, "CHAT"):
		return "CHAT"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
