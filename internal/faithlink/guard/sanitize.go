package guard

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

// Rule rewrites a single string value. Rules must only ever shorten or keep
// their input.
type Rule interface {
	Apply(s string) string
}

// RegexRule deletes every match of Pattern.
type RegexRule struct {
	Name    string
	Pattern *regexp.Regexp
}

func (r RegexRule) Apply(s string) string { return r.Pattern.ReplaceAllString(s, "") }

var (
	ScriptBlockRule = RegexRule{
		Name:    "script-block",
		Pattern: regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`),
	}
	JavaScriptURIRule = RegexRule{
		Name:    "javascript-uri",
		Pattern: regexp.MustCompile(`(?i)javascript\s*:`),
	}
	InlineHandlerRule = RegexRule{
		Name:    "inline-handler",
		Pattern: regexp.MustCompile(`(?i)on\w+\s*=`),
	}

	DefaultRules = []Rule{ScriptBlockRule, JavaScriptURIRule, InlineHandlerRule}
)

// Sanitizer strips script content from strings. It is best effort: pattern
// removal will miss some payloads and mangle some honest input. Output
// encoding at render time is still required.
type Sanitizer struct {
	rules []Rule
}

func NewSanitizer(rules ...Rule) *Sanitizer {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Sanitizer{rules: rules}
}

// String applies every rule and trims, repeating until nothing changes, so
// String(String(s)) == String(s). Removing one match can splice a new one
// together ("<scr<script></script>ipt>") which a single pass would leave.
func (s *Sanitizer) String(in string) string {
	cur := in
	for {
		next := cur
		for _, r := range s.rules {
			next = r.Apply(next)
		}
		next = strings.TrimSpace(next)
		if next == cur {
			return cur
		}
		cur = next
	}
}

// Value walks decoded JSON. Map keys are left alone; values that are not
// strings, maps or slices pass through. The input is never modified.
func (s *Sanitizer) Value(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		out := s.String(t)
		return out, out != t
	case map[string]any:
		out := make(map[string]any, len(t))
		changed := false
		for k, child := range t {
			nv, c := s.Value(child)
			out[k] = nv
			changed = changed || c
		}
		return out, changed
	case []any:
		out := make([]any, len(t))
		changed := false
		for i, child := range t {
			nv, c := s.Value(child)
			out[i] = nv
			changed = changed || c
		}
		return out, changed
	default:
		return v, false
	}
}

func (s *Sanitizer) Query(q url.Values) (url.Values, bool) {
	out := make(url.Values, len(q))
	changed := false
	for k, vs := range q {
		nvs := make([]string, len(vs))
		for i, v := range vs {
			nvs[i] = s.String(v)
			changed = changed || nvs[i] != v
		}
		out[k] = nvs
	}
	return out, changed
}

func (s *Sanitizer) Params(p map[string]string) (map[string]string, bool) {
	out := make(map[string]string, len(p))
	changed := false
	for k, v := range p {
		out[k] = s.String(v)
		changed = changed || out[k] != v
	}
	return out, changed
}

// Sanitize cleans body, query and path params. Only the parts that actually
// changed are marked for rewriting onto the request.
func Sanitize(s *Sanitizer) Gate {
	if s == nil {
		s = NewSanitizer()
	}
	return func(_ context.Context, env Envelope) (Envelope, error) {
		if env.Body != nil {
			if body, changed := s.Value(env.Body); changed {
				env = env.WithBody(body)
			}
		}
		if len(env.Query) > 0 {
			if q, changed := s.Query(env.Query); changed {
				env = env.WithQuery(q)
			}
		}
		if len(env.PathParams) > 0 {
			if p, changed := s.Params(env.PathParams); changed {
				env = env.WithPathParams(p)
			}
		}
		return env, nil
	}
}
