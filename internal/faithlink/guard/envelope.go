package guard

import (
	"maps"
	"net/url"
	"time"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
)

// Envelope is the request as seen by gates. It is a value: gates that need
// to change something return a modified copy through the With* methods and
// never write through the maps they were given.
type Envelope struct {
	Method      string
	Path        string // cleaned path as routed
	RawPath     string // path exactly as sent by the client, before cleaning
	RemoteIP    string
	UserAgent   string
	SessionID   string
	ContentType string

	// Authorization is the raw Authorization header.
	Authorization string

	PathParams map[string]string
	Query      url.Values

	// Body is the decoded JSON body (map[string]any, []any, ...), nil when
	// the request had no JSON body. RawBody holds the bytes as received for
	// any content type.
	Body    any
	RawBody []byte

	Received time.Time

	identity *domain.Identity
	churchID string

	bodyChanged   bool
	queryChanged  bool
	paramsChanged bool
}

// Identity returns the verified identity, if an authentication gate ran.
func (e Envelope) Identity() (domain.Identity, bool) {
	if e.identity == nil {
		return domain.Identity{}, false
	}
	return *e.identity, true
}

// ChurchID is the tenant the request is scoped to. It starts as the
// identity's tenant and may be moved by the tenant gate for admins.
func (e Envelope) ChurchID() string { return e.churchID }

func (e Envelope) WithIdentity(id domain.Identity) Envelope {
	e.identity = &id
	e.churchID = id.ChurchID
	return e
}

func (e Envelope) WithChurchID(churchID string) Envelope {
	e.churchID = churchID
	return e
}

func (e Envelope) WithBody(body any) Envelope {
	e.Body = body
	e.bodyChanged = true
	return e
}

func (e Envelope) WithQuery(q url.Values) Envelope {
	e.Query = q
	e.queryChanged = true
	return e
}

func (e Envelope) WithPathParams(p map[string]string) Envelope {
	e.PathParams = maps.Clone(p)
	e.paramsChanged = true
	return e
}

// Param returns a path parameter by name.
func (e Envelope) Param(name string) string { return e.PathParams[name] }
