// Package errors provides standardized error handling for the context engine.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Sentinel Errors
// ==========================

// Sentinels used with errors.Is across package boundaries. Only the embedding
// sentinel is fatal to an assemble call; everything else degrades.
var (
	ErrEmbeddingUnavailable = errors.New("EMBEDDING_UNAVAILABLE")
	ErrEmbeddingTimeout     = errors.New("EMBEDDING_TIMEOUT")
	ErrVectorSearchFailed   = errors.New("VECTOR_SEARCH_FAILED")
	ErrVectorSearchTimeout  = errors.New("VECTOR_SEARCH_TIMEOUT")
	ErrMalformedResponse    = errors.New("MALFORMED_RESPONSE")
	ErrInsightQueryFailed   = errors.New("INSIGHT_QUERY_FAILED")
	ErrInvalidOptions       = errors.New("INVALID_OPTIONS")
)

// ==========================
// 2. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeEmbeddingUnavailable ErrorCode = "EMBEDDING_UNAVAILABLE"
	ErrCodeEmbeddingTimeout     ErrorCode = "EMBEDDING_TIMEOUT"
	ErrCodeVectorSearchFailed   ErrorCode = "VECTOR_SEARCH_FAILED"
	ErrCodeVectorSearchTimeout  ErrorCode = "VECTOR_SEARCH_TIMEOUT"
	ErrCodeMalformedResponse    ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeInsightQueryFailed   ErrorCode = "INSIGHT_QUERY_FAILED"
	ErrCodeInvalidOptions       ErrorCode = "INVALID_OPTIONS"
	ErrCodeCacheUnavailable     ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeContextUnavailable   ErrorCode = "CONTEXT_UNAVAILABLE"
	ErrCodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Fatal     bool                   `json:"fatal"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the original cause for errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 3. Error Constructors
// ==========================

// NewContextUnavailableError is the fatal failure surfaced to the caller when
// no query vector can be obtained. It carries the original cause.
func NewContextUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeContextUnavailable,
		Message:   "Context assembly aborted: query embedding unavailable",
		Details:   err.Error(),
		Fatal:     true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewEmbeddingUnavailableError wraps an embedding provider failure.
func NewEmbeddingUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingUnavailable,
		Message:   "Embedding provider error",
		Details:   err.Error(),
		Fatal:     true,
		Timestamp: time.Now().UTC(),
		cause:     fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err),
	}
}

// NewEmbeddingTimeoutError wraps an embedding provider timeout.
func NewEmbeddingTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingTimeout,
		Message:   "Embedding provider timeout",
		Details:   "embedding call exceeded its deadline",
		Fatal:     true,
		Timestamp: time.Now().UTC(),
		cause:     ErrEmbeddingTimeout,
	}
}

// NewVectorSearchFailedError wraps a similarity-store failure for one source.
func NewVectorSearchFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeVectorSearchFailed,
		Message:   "Vector similarity search error",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Fatal:     false,
		Timestamp: time.Now().UTC(),
		cause:     fmt.Errorf("%w: %v", ErrVectorSearchFailed, err),
	}
}

// NewVectorSearchTimeoutError wraps a similarity-store timeout for one source.
func NewVectorSearchTimeoutError(source string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVectorSearchTimeout,
		Message:   "Vector similarity search timeout",
		Details:   fmt.Sprintf("source: %s", source),
		Fatal:     false,
		Timestamp: time.Now().UTC(),
		cause:     ErrVectorSearchTimeout,
	}
}

// NewMalformedResponseError wraps an undecodable store response.
func NewMalformedResponseError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   "Malformed store response",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Fatal:     false,
		Timestamp: time.Now().UTC(),
		cause:     fmt.Errorf("%w: %v", ErrMalformedResponse, err),
	}
}

// NewInsightQueryFailedError wraps a spending-insight aggregation failure.
func NewInsightQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInsightQueryFailed,
		Message:   "Spending insight aggregation error",
		Details:   err.Error(),
		Fatal:     false,
		Timestamp: time.Now().UTC(),
		cause:     fmt.Errorf("%w: %v", ErrInsightQueryFailed, err),
	}
}

// NewInvalidOptionsError rejects a malformed caller option payload.
func NewInvalidOptionsError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidOptions,
		Message:   "Invalid assemble options",
		Details:   details,
		Fatal:     true,
		Timestamp: time.Now().UTC(),
		cause:     ErrInvalidOptions,
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsFatal reports whether err must abort the whole assemble call.
// Source-level retrieval failures are degraded, never fatal.
func IsFatal(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Fatal
	}
	return errors.Is(err, ErrEmbeddingUnavailable) || errors.Is(err, ErrEmbeddingTimeout)
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "EMBEDDING"):
		return "EMBEDDING"
	case strings.Contains(codeStr, "VECTOR") || strings.Contains(codeStr, "SEARCH"):
		return "RETRIEVAL"
	case strings.Contains(codeStr, "INSIGHT"):
		return "ANALYTICS"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "OPTIONS"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
