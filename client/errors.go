package client

import (
	"encoding/json"
	"fmt"
)

// APIError represents a structured error response from the anzclass API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("anzclass: %d %s: %s (request_id=%s)", e.StatusCode, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("anzclass: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsInvalidRequest returns true if the error is a 400 bad request.
func IsInvalidRequest(err error) bool {
	if e, ok := err.(*APIError); ok {
		return e.StatusCode == 400
	}
	return false
}

// IsUnavailable returns true if the error is a 503 upstream outage.
func IsUnavailable(err error) bool {
	if e, ok := err.(*APIError); ok {
		return e.StatusCode == 503
	}
	return false
}

// parseAPIError attempts to decode a JSON error body; falls back to raw text.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "unknown"
		apiErr.Message = string(body)
	}
	return apiErr
}
