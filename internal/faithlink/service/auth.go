package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/internal/faithlink/store"
	"github.com/faithlink360/gateway/internal/faithlink/token"
	"github.com/faithlink360/gateway/pkg/cryptox"
	"github.com/faithlink360/gateway/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidInput       = errors.New("invalid_input")
)

// Session is what a successful login hands back to the client.
type Session struct {
	Token     string
	ExpiresIn time.Duration
	User      domain.User
}

type AuthService struct {
	Store  store.Store
	Codec  *token.Codec
	Hasher *cryptox.Hasher

	dummyOnce sync.Once
	dummyHash string
}

// Login checks email and password and issues a token scoped to the user's
// church. Unknown emails and wrong passwords both return
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	log := slogx.FromContext(ctx)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("login: unknown email")
			s.burnVerify(password)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if err := s.Hasher.Verify(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrMismatch) {
			log.Error("login: stored hash unusable", "user_id", user.ID, "error", err)
		}
		return Session{}, ErrInvalidCredentials
	}

	tok, err := s.Codec.Issue(domain.Claim{
		Subject:  user.ID,
		Role:     user.Role,
		ChurchID: user.ChurchID,
	})
	if err != nil {
		return Session{}, err
	}

	log.Info("login: token issued", "user_id", user.ID, "church_id", user.ChurchID)
	return Session{Token: tok, ExpiresIn: s.Codec.TTL(), User: user}, nil
}

// burnVerify spends one hash verification so unknown emails take as long as
// wrong passwords.
func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash("faithlink-unknown-user")
	})
	if s.dummyHash != "" {
		_ = s.Hasher.Verify(password, s.dummyHash)
	}
}

// Logout revokes the token behind id until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, id domain.Identity) error {
	if id.TokenID == "" {
		return ErrInvalidInput
	}
	return s.Store.Revocations().RevokeToken(ctx, domain.Revocation{
		TokenID:   id.TokenID,
		Subject:   id.Subject,
		ExpiresAt: id.ExpiresAt,
		RevokedAt: time.Now(),
	})
}

// IsRevoked lets AuthService act as the guard's revocation checker.
func (s *AuthService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.Store.Revocations().IsRevoked(ctx, tokenID)
}
