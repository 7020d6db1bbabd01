// Package token issues and verifies FaithLink session tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/pkg/jwtx"
)

const (
	DefaultIssuer   = "faithlink360"
	DefaultAudience = "church-members"
)

type Config struct {
	Secret   []byte
	TTL      time.Duration // default jwtx.DefaultTTL
	Issuer   string        // default DefaultIssuer
	Audience string        // default DefaultAudience
	Leeway   time.Duration
	Now      func() time.Time
}

// Codec signs and verifies HS256 tokens. It is safe for concurrent use and
// holds no mutable state.
type Codec struct {
	signer   *jwtx.HS256Signer
	verifier *jwtx.HS256Verifier
	ttl      time.Duration
	issuer   string
	audience string
	now      func() time.Time
}

func NewCodec(cfg Config) (*Codec, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = jwtx.DefaultTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	signer, err := jwtx.NewSignerHS256(cfg.Secret)
	if err != nil {
		return nil, err
	}

	return &Codec{
		signer: signer,
		verifier: jwtx.NewVerifierHS256(cfg.Secret, jwtx.VerifyOptions{
			Issuer:   cfg.Issuer,
			Audience: []string{cfg.Audience},
			Leeway:   cfg.Leeway,
			Now:      cfg.Now,
		}),
		ttl:      cfg.TTL,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      cfg.Now,
	}, nil
}

// TTL is the lifetime stamped on every issued token.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs claim with iat=now, exp=now+TTL, the configured issuer and
// audience and a fresh jti.
func (c *Codec) Issue(claim domain.Claim) (string, error) {
	if claim.Subject == "" {
		return "", errors.New("token: empty subject")
	}
	if !claim.Role.Valid() {
		return "", fmt.Errorf("token: %w %q", domain.ErrUnknownRole, claim.Role)
	}

	claims := jwtx.NewClaims(
		claim.Subject,
		claim.Role.String(),
		claim.ChurchID,
		c.issuer,
		[]string{c.audience},
		c.ttl,
		c.now().UTC(),
	)
	return c.signer.Sign(claims)
}

// Verify turns a raw bearer token into an Identity. Every failure is a
// *Error. A correctly signed token past its exp is always KindExpired.
func (c *Codec) Verify(raw string) (domain.Identity, error) {
	if raw == "" {
		return domain.Identity{}, fail(KindMissing, nil)
	}

	claims, err := c.verifier.Verify(raw)
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return domain.Identity{}, fail(KindExpired, err)
	case errors.Is(err, jwtx.ErrMalformed):
		return domain.Identity{}, fail(KindMalformed, err)
	case err != nil:
		return domain.Identity{}, fail(KindInvalid, err)
	}

	if claims.Subject == "" {
		return domain.Identity{}, fail(KindInvalid, errors.New("missing subject"))
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil || string(role) != claims.Role {
		return domain.Identity{}, fail(KindInvalid, fmt.Errorf("role %q: %w", claims.Role, domain.ErrUnknownRole))
	}

	id := domain.Identity{
		Subject:  claims.Subject,
		Role:     role,
		ChurchID: claims.ChurchID,
		TokenID:  claims.ID,
	}
	if id.ChurchID == "" {
		id.ChurchID = domain.DefaultChurchID
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.UTC()
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.UTC()
	}
	return id, nil
}
