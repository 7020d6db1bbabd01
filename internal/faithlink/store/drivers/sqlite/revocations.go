package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
)

type revocationsRepo struct {
	db *sql.DB
}

func (r *revocationsRepo) RevokeToken(ctx context.Context, rev domain.Revocation) error {
	if rev.RevokedAt.IsZero() {
		rev.RevokedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO token_revocations (jti, subject, expires_at, revoked_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (jti) DO NOTHING`,
		rev.TokenID, rev.Subject, toUnix(rev.ExpiresAt), toUnix(rev.RevokedAt))
	return err
}

func (r *revocationsRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM token_revocations WHERE jti = ?`, tokenID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *revocationsRepo) DeleteExpiredRevocations(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM token_revocations WHERE expires_at <= ?`, toUnix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
