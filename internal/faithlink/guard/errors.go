package guard

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes produced by the gates, beyond the token kinds.
const (
	CodeAuthRequired            = "AUTH_REQUIRED"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeChurchAccessDenied      = "CHURCH_ACCESS_DENIED"
	CodeRateLimitExceeded       = "RATE_LIMIT_EXCEEDED"
	CodeAuthRateLimitExceeded   = "AUTH_RATE_LIMIT_EXCEEDED"
	CodeInvalidJSON             = "INVALID_JSON"
	CodePayloadTooLarge         = "PAYLOAD_TOO_LARGE"
	CodeInternal                = "INTERNAL_ERROR"
)

// Error is a gate rejection. It is rendered as
// {"success": false, "error": Message, "code": Code, ...Extra}.
type Error struct {
	Status  int
	Code    string
	Message string
	Extra   map[string]any
	Header  http.Header
}

func (e *Error) Error() string {
	return fmt.Sprintf("guard: %d %s: %s", e.Status, e.Code, e.Message)
}

func reject(status int, code, msg string) *Error {
	return &Error{Status: status, Code: code, Message: msg}
}

// AsError unwraps a gate rejection from err.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
