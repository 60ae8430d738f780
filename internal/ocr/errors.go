// errors.go - Categorized OCR provider errors and retry decisions

package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

var (
	// ErrUnsupportedProvider is returned by NewProvider for unknown provider names.
	ErrUnsupportedProvider = errors.New("unsupported OCR provider")

	// ErrEmptyImage is returned when the uploaded file has no content.
	ErrEmptyImage = errors.New("image file is empty")
)

// ProviderError represents a categorized OCR API error
type ProviderError struct {
	Provider      string
	OriginalError error
	Category      string
	StatusCode    int
	Message       string
	Retryable     bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s [%s] %s (status: %d, retryable: %v)", e.Provider, e.Category, e.Message, e.StatusCode, e.Retryable)
}

func (e *ProviderError) Unwrap() error {
	return e.OriginalError
}

// categorizeStatus fills category, message and retry strategy from an HTTP status code
func categorizeStatus(provErr *ProviderError, code int, apiMessage string) *ProviderError {
	provErr.StatusCode = code

	switch code {
	case 400:
		provErr.Category = "bad_request"
		provErr.Message = "Invalid request format or parameters"
	case 401:
		provErr.Category = "unauthorized"
		provErr.Message = "Invalid API key or authentication failed"
	case 403:
		provErr.Category = "forbidden"
		provErr.Message = "API key lacks required permissions"
	case 404:
		provErr.Category = "not_found"
		provErr.Message = "Model not found or invalid endpoint"
	case 413:
		provErr.Category = "payload_too_large"
		provErr.Message = "Request size exceeds limit (reduce image size)"
	case 429:
		provErr.Category = "rate_limit"
		provErr.Message = "Rate limit exceeded - too many requests"
		provErr.Retryable = true
	case 500, 502, 503, 504:
		provErr.Category = "server_error"
		provErr.Message = fmt.Sprintf("%s server error (%d)", provErr.Provider, code)
		provErr.Retryable = true
	default:
		provErr.Category = "unknown_api_error"
		provErr.Message = fmt.Sprintf("API error: %s", apiMessage)
		provErr.Retryable = code >= 500
	}

	return provErr
}

// categorizeError analyzes err and determines retry strategy
func categorizeError(provider string, err error) *ProviderError {
	if err == nil {
		return nil
	}

	var existing *ProviderError
	if errors.As(err, &existing) {
		return existing
	}

	provErr := &ProviderError{
		Provider:      provider,
		OriginalError: err,
		Category:      "unknown",
		Message:       err.Error(),
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return categorizeStatus(provErr, apiErr.Code, apiErr.Message)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		provErr.Category = "timeout"
		provErr.Message = "Request timeout - processing took too long"
		provErr.Retryable = true
		return provErr
	}

	if errors.Is(err, context.Canceled) {
		provErr.Category = "canceled"
		provErr.Message = "Request was canceled"
		return provErr
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "quota") {
		provErr.Category = "quota_exceeded"
		provErr.Message = "API quota exceeded - daily or monthly limit reached"
		return provErr
	}

	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline") {
		provErr.Category = "timeout"
		provErr.Message = "Request timeout"
		provErr.Retryable = true
		return provErr
	}

	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network") {
		provErr.Category = "network_error"
		provErr.Message = "Network connection error"
		provErr.Retryable = true
		return provErr
	}

	return provErr
}

// isRetryable reports whether err is worth another attempt
func isRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return false
}

// BuildUserFriendlyError converts a technical error into a response payload
func BuildUserFriendlyError(err error) map[string]interface{} {
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		return map[string]interface{}{
			"error":             "OCR processing failed",
			"details":           err.Error(),
			"suggestion":        "An unexpected error occurred. Please try again or contact support.",
			"retry_recommended": false,
		}
	}

	errorResponse := map[string]interface{}{
		"error":    "OCR processing failed",
		"provider": provErr.Provider,
		"category": provErr.Category,
		"details":  provErr.Message,
	}

	switch provErr.Category {
	case "rate_limit":
		errorResponse["suggestion"] = "Too many requests. Please wait a moment and try again."
		errorResponse["retry_after"] = "30-60 seconds"

	case "quota_exceeded":
		errorResponse["suggestion"] = "API quota exceeded. Please contact support or try again tomorrow."
		errorResponse["action_required"] = "upgrade_plan"

	case "unauthorized", "forbidden":
		errorResponse["suggestion"] = "OCR authentication failed. Please contact the system administrator."
		errorResponse["action_required"] = "check_api_key"

	case "payload_too_large":
		errorResponse["suggestion"] = "Image size is too large. Please upload a smaller image."
		errorResponse["action_required"] = "reduce_image_size"

	case "timeout", "server_error", "network_error":
		errorResponse["suggestion"] = "The OCR service is temporarily unavailable. Please try again in a few minutes."
		errorResponse["retry_recommended"] = true

	default:
		errorResponse["suggestion"] = "An unexpected error occurred. Please try again or contact support."
		errorResponse["retry_recommended"] = false
	}

	return errorResponse
}
