package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/internal/faithlink/guard"
	"github.com/faithlink360/gateway/internal/faithlink/store"
	"github.com/faithlink360/gateway/pkg/cryptox"
	"github.com/faithlink360/gateway/pkg/idx"
)

const minPasswordLength = 8

// Login bodies pass through this sanitizer before the password is compared,
// so a stored password must come out of it unchanged.
var loginSanitizer = guard.NewSanitizer()

type UserService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
}

type CreateUserRequest struct {
	Email       string
	DisplayName string
	Password    string
	Role        domain.Role
	ChurchID    string
}

// CreateUser hashes the password and stores a new member. Duplicate emails
// surface as store.ErrAlreadyExists.
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (domain.User, error) {
	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, fmt.Errorf("%w: email: %v", ErrInvalidInput, err)
	}
	if len(req.Password) < minPasswordLength {
		return domain.User{}, fmt.Errorf("%w: password shorter than %d characters", ErrInvalidInput, minPasswordLength)
	}
	if loginSanitizer.String(req.Password) != req.Password {
		return domain.User{}, fmt.Errorf("%w: password has surrounding spaces or script-like content", ErrInvalidInput)
	}
	if !req.Role.Valid() {
		return domain.User{}, fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrUnknownRole)
	}
	church := strings.TrimSpace(req.ChurchID)
	if church == "" {
		church = domain.DefaultChurchID
	}

	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return domain.User{}, err
	}

	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		DisplayName:  name,
		PasswordHash: hash,
		Role:         req.Role,
		ChurchID:     church,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	return s.Store.Users().GetUserByID(ctx, u.ID)
}

// GetUser fetches a user by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// ListMembers returns the directory of one church. churchID must be the
// tenant resolved by the guard, never a raw request value.
func (s *UserService) ListMembers(ctx context.Context, churchID string) ([]domain.Member, error) {
	if churchID == "" {
		return nil, ErrInvalidInput
	}
	users, err := s.Store.Users().ListUsersByChurch(ctx, churchID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Member, 0, len(users))
	for _, u := range users {
		out = append(out, u.Member())
	}
	return out, nil
}
