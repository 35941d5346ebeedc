package driven

import (
	"context"

	"github.com/custodia-labs/docsum/internal/core/domain"
)

// AuthAPI is the document service's identity surface
type AuthAPI interface {
	// Me returns the user the token belongs to.
	// A rejected token yields an *domain.APIError with a 401 status.
	Me(ctx context.Context, token string) (*domain.User, error)

	// Login exchanges credentials for a bearer token and user record
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)

	// Register creates an account. It does not log in.
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)

	// Refresh rotates a still-valid token
	Refresh(ctx context.Context, token string) (string, error)
}

// TokenInspector reads a bearer token's claims without verifying its signature.
// Used only to skip a network round trip for tokens that are already expired.
type TokenInspector interface {
	// Inspect returns the claims, domain.ErrTokenExpired if the exp claim is in
	// the past, or domain.ErrTokenInvalid if the token is not a readable JWT.
	Inspect(token string) (*domain.TokenClaims, error)
}
