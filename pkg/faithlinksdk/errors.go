package faithlinksdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned by the gateway.
const (
	CodeTokenMissing            = "TOKEN_MISSING"
	CodeTokenExpired            = "TOKEN_EXPIRED"
	CodeTokenMalformed          = "TOKEN_MALFORMED"
	CodeTokenInvalid            = "TOKEN_INVALID"
	CodeAuthRequired            = "AUTH_REQUIRED"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeChurchAccessDenied      = "CHURCH_ACCESS_DENIED"
	CodeRateLimitExceeded       = "RATE_LIMIT_EXCEEDED"
	CodeAuthRateLimitExceeded   = "AUTH_RATE_LIMIT_EXCEEDED"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeInternalError           = "INTERNAL_ERROR"
)

// APIError is a non-2xx gateway response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string

	// RetryAfter is set on rate limit rejections, in seconds.
	RetryAfter int

	// Required and Current are set on INSUFFICIENT_PERMISSIONS.
	Required []string
	Current  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err is an *APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// parseErrorResponse turns an error body into an *APIError. Returns nil for
// 2xx statuses.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Code != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       errResp.Code,
			Message:    errResp.Error,
			RetryAfter: errResp.RetryAfter,
			Required:   errResp.Required,
			Current:    errResp.Current,
		}
	}

	// Fallback: body is not a gateway error, e.g. a proxy page.
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       CodeInternalError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
