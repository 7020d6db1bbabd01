package domain

import (
	"errors"
	"strings"
)

// Role is the closed set of member roles a token may carry.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RolePastor      Role = "PASTOR"
	RoleCareTeam    Role = "CARE_TEAM"
	RoleGroupLeader Role = "GROUP_LEADER"
	RoleMember      Role = "MEMBER"
)

var ErrUnknownRole = errors.New("domain: unknown role")

// Roles lists every role, most privileged first.
var Roles = []Role{RoleAdmin, RolePastor, RoleCareTeam, RoleGroupLeader, RoleMember}

// ParseRole accepts the canonical upper case names; surrounding space and
// case are tolerated for CLI input.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePastor, RoleCareTeam, RoleGroupLeader, RoleMember:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// RoleStrings is a convenience for error bodies and logs.
func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
