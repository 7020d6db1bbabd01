package audit

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/internal/faithlink/guard"
)

// DetectRule looks for one suspicious pattern in a request. Match returns
// the detail to attach to the event, or ok=false.
type DetectRule interface {
	Kind() domain.EventKind
	Match(env guard.Envelope) (detail map[string]any, ok bool)
}

// PathTraversal flags ".." and "//" in the path as sent by the client.
type PathTraversal struct{}

func (PathTraversal) Kind() domain.EventKind { return domain.EventPathTraversal }

func (PathTraversal) Match(env guard.Envelope) (map[string]any, bool) {
	candidates := []string{env.RawPath, env.Path}
	if u, err := url.PathUnescape(env.RawPath); err == nil {
		candidates = append(candidates, u)
	}
	for _, p := range candidates {
		if strings.Contains(p, "..") || strings.Contains(p, "//") {
			return map[string]any{"raw_path": env.RawPath}, true
		}
	}
	return nil, false
}

var botUA = regexp.MustCompile(`(?i)bot|crawler|spider|scraper`)

// BotAccess flags common crawler user agents.
type BotAccess struct{}

func (BotAccess) Kind() domain.EventKind { return domain.EventBotAccess }

func (BotAccess) Match(env guard.Envelope) (map[string]any, bool) {
	if botUA.MatchString(env.UserAgent) {
		return map[string]any{"user_agent": env.UserAgent}, true
	}
	return nil, false
}

var xssMarkers = []string{"<script", "javascript:", "eval(", "document.cookie"}

// XSSAttempt flags script markers in query values or the raw body.
type XSSAttempt struct{}

func (XSSAttempt) Kind() domain.EventKind { return domain.EventXSSAttempt }

func (XSSAttempt) Match(env guard.Envelope) (map[string]any, bool) {
	for key, vs := range env.Query {
		for _, v := range vs {
			if m := xssMarker(v); m != "" {
				return map[string]any{"where": "query", "param": key, "marker": m}, true
			}
		}
	}
	if m := xssMarker(string(env.RawBody)); m != "" {
		return map[string]any{"where": "body", "marker": m}, true
	}
	return nil, false
}

func xssMarker(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	for _, m := range xssMarkers {
		if strings.Contains(lower, m) {
			return m
		}
	}
	return ""
}

var DefaultRules = []DetectRule{PathTraversal{}, BotAccess{}, XSSAttempt{}}

// Detect emits an event for every rule that matches. It never rejects: the
// returned gate always hands the envelope back unchanged.
func Detect(rules []DetectRule, sink domain.EventSink) guard.Gate {
	if rules == nil {
		rules = DefaultRules
	}
	if sink == nil {
		sink = domain.DiscardEvents
	}

	return func(ctx context.Context, env guard.Envelope) (guard.Envelope, error) {
		for _, r := range rules {
			detail, ok := r.Match(env)
			if !ok {
				continue
			}
			sink.Emit(ctx, domain.SecurityEvent{
				Kind:   r.Kind(),
				IP:     env.RemoteIP,
				Path:   env.RawPath,
				Time:   env.Received,
				Detail: detail,
			})
		}
		return env, nil
	}
}
