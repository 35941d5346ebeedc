package driving

import (
	"context"

	"github.com/custodia-labs/docsum/internal/core/domain"
)

// CredentialSource supplies the current bearer token to the other components.
// An empty string means there is no session.
type CredentialSource interface {
	Token() string
}

// SessionService owns the authenticated session
type SessionService interface {
	CredentialSource

	// Initialize validates the persisted token against the identity endpoint.
	// Any failure logs the user out; it never returns an error.
	Initialize(ctx context.Context) *domain.Session

	// Login authenticates and persists the new token
	Login(ctx context.Context, email, password string) (*domain.Session, error)

	// Register creates an account without logging in
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)

	// Logout clears the session locally. It is idempotent and does no I/O
	// beyond clearing the persisted token.
	Logout(ctx context.Context)

	// RefreshToken rotates the token of an authenticated session
	RefreshToken(ctx context.Context) error

	// Current returns a copy of the session
	Current() *domain.Session

	// Ready reports whether startup validation has finished
	Ready() bool

	// LastExpiry returns the reason of the last forced logout, if any
	LastExpiry() *domain.ClientError
}
