package clients

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// APIError is returned for every response whose status code is not 2XX.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Message is the backend-provided message, the raw body when it is not
	// json, or the http status text as a last resort.
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func newAPIError(method string, path string, statusCode int, body []byte) *APIError {
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
		Message:    backendMessage(statusCode, body),
	}
}

func backendMessage(statusCode int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return http.StatusText(statusCode)
	}

	var envelope map[string]interface{}
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, key := range []string{"message", "error"} {
			if s, ok := envelope[key].(string); ok && s != "" {
				return s
			}
		}
		return http.StatusText(statusCode)
	}
	return trimmed
}

// UserMessage picks the text of the transient notification shown for err: the
// backend-provided message when there is one, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Message != http.StatusText(apiErr.StatusCode) {
		return apiErr.Message
	}
	return fallback
}

func statusCodeOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized covers both missing and insufficient credentials.
func IsUnauthorized(err error) bool {
	code := statusCodeOf(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

func IsNotFound(err error) bool {
	return statusCodeOf(err) == http.StatusNotFound
}
