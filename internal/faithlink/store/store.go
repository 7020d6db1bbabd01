package store

import (
	"context"
	"errors"
	"time"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface, implemented by the drivers under
// store/drivers. Repositories are reached through accessor methods so each
// concern can be faked on its own in tests.
type Store interface {
	Users() Users
	Revocations() Revocations

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login. Emails are matched case
	// insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the caller via ULID).
	// A duplicate email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// ListUsersByChurch returns the users of one church ordered by display
	// name. Directory reads always go through this so they stay tenant scoped.
	ListUsersByChurch(ctx context.Context, churchID string) ([]domain.User, error)
}

type Revocations interface {
	// RevokeToken is idempotent per token id.
	RevokeToken(ctx context.Context, r domain.Revocation) error

	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// DeleteExpiredRevocations removes entries whose token has expired by
	// now anyway and returns how many were removed.
	DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
}
