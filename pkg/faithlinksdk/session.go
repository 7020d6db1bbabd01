package faithlinksdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"
)

// DirectoryRoles may list church members.
var DirectoryRoles = []string{"ADMIN", "PASTOR", "CARE_TEAM", "GROUP_LEADER"}

// ErrSessionExpired is returned once the token has passed its expiry, or
// after Logout.
var ErrSessionExpired = errors.New("faithlinksdk: session expired")

// Session is an authenticated member session.
type Session struct {
	client *SDKClient

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	member    Member
}

func newSession(client *SDKClient, token string, expiresIn int64, member Member) *Session {
	s := &Session{client: client, token: token, member: member}
	if expiresIn > 0 {
		// 30 second buffer so a request never races the expiry.
		s.expiresAt = time.Now().Add(time.Duration(expiresIn)*time.Second - 30*time.Second)
	}
	return s
}

// Token returns the bearer token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Member is the member the session was issued for.
func (s *Session) Member() Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.member
}

func (s *Session) validToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || (!s.expiresAt.IsZero() && time.Now().After(s.expiresAt)) {
		return "", ErrSessionExpired
	}
	return s.token, nil
}

// Me returns the verified token identity and, when the member still exists,
// their profile.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var me MeResponse
	if err := decodeJSON(resp, &me, http.StatusOK); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if me.Profile != nil {
		s.member = *me.Profile
	} else if s.member.ID == "" {
		s.member = Member{ID: me.User.ID, Role: me.User.Role, ChurchID: me.User.ChurchID}
	}
	s.mu.Unlock()

	return &me, nil
}

// Logout revokes the token server side. The session is unusable afterwards.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if err != nil {
		return err
	}

	var out SuccessResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

// ListMembers lists the directory of churchID, or of the session's own
// church when churchID is empty.
func (s *Session) ListMembers(ctx context.Context, churchID string) (*MembersResponse, error) {
	if err := s.checkRole(DirectoryRoles...); err != nil {
		return nil, err
	}

	path := "/api/members"
	if churchID != "" {
		path = "/api/churches/" + url.PathEscape(churchID) + "/members"
	}

	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var out MembersResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// checkRole fails locally with the same code the server would send.
// Skipped when the role is unknown, e.g. for NewSessionFromToken before Me.
func (s *Session) checkRole(allowed ...string) error {
	if !s.client.CheckRoles {
		return nil
	}
	role := s.Member().Role
	if role == "" || slices.Contains(allowed, role) {
		return nil
	}
	return &APIError{
		StatusCode: http.StatusForbidden,
		Code:       CodeInsufficientPermissions,
		Message:    fmt.Sprintf("role %s may not call this endpoint", role),
		Required:   allowed,
		Current:    role,
	}
}
