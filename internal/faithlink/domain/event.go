package domain

import "time"

// EventKind classifies a security event.
type EventKind string

const (
	EventPathTraversal     EventKind = "PATH_TRAVERSAL"
	EventXSSAttempt        EventKind = "XSS_ATTEMPT"
	EventBotAccess         EventKind = "BOT_ACCESS"
	EventRateLimitExceeded EventKind = "RATE_LIMIT_EXCEEDED"
	EventAuthFailure       EventKind = "AUTH_FAILURE"
	EventTenantViolation   EventKind = "TENANT_VIOLATION"
)

// EventKinds lists every kind, used to pre-register metric series.
var EventKinds = []EventKind{
	EventPathTraversal,
	EventXSSAttempt,
	EventBotAccess,
	EventRateLimitExceeded,
	EventAuthFailure,
	EventTenantViolation,
}

// SecurityEvent is emitted to sinks and never stored.
type SecurityEvent struct {
	Kind   EventKind
	IP     string
	Path   string
	Time   time.Time
	Detail map[string]any
}
