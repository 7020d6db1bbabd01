package domain

import "time"

// DefaultChurchID is used for tokens that predate tenant scoping.
const DefaultChurchID = "default"

// Identity is a verified token claim. Values are only built by the token
// codec after signature, expiry, issuer, audience and role checks pass, and
// are passed by value so nothing downstream can alter them.
type Identity struct {
	Subject   string
	Role      Role
	ChurchID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	TokenID   string
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Claim is the input to token issuance.
type Claim struct {
	Subject  string
	Role     Role
	ChurchID string
}
