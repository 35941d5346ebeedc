package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/docsum/internal/core/domain"
	"github.com/custodia-labs/docsum/internal/core/ports/driven"
)

// Ensure Inspector implements TokenInspector
var _ driven.TokenInspector = (*Inspector)(nil)

// Inspector reads JWT claims without verifying the signature.
// The signing key lives on the server; the client only wants the exp claim so it
// can skip the identity call for a token that is already dead.
type Inspector struct {
	parser *jwt.Parser
	now    func() time.Time
	leeway time.Duration
}

// NewInspector creates an inspector using the wall clock
func NewInspector() *Inspector {
	return NewInspectorWithClock(time.Now, 0)
}

// NewInspectorWithClock creates an inspector with a custom clock and leeway.
// A token expiring within leeway of now already counts as expired.
func NewInspectorWithClock(now func() time.Time, leeway time.Duration) *Inspector {
	return &Inspector{
		parser: jwt.NewParser(),
		now:    now,
		leeway: leeway,
	}
}

// Inspect returns the token's claims
func (i *Inspector) Inspect(token string) (*domain.TokenClaims, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := i.parser.ParseUnverified(token, &claims); err != nil {
		return nil, domain.ErrTokenInvalid
	}

	out := &domain.TokenClaims{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Unix()
		if !i.now().Add(i.leeway).Before(claims.ExpiresAt.Time) {
			return out, domain.ErrTokenExpired
		}
	}
	return out, nil
}
