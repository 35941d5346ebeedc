package driven

import "context"

// SessionTokenKey is the fixed key the session token is persisted under
const SessionTokenKey = "docsum:session_token"

// TokenStore persists the session token between runs.
// It holds exactly one value.
type TokenStore interface {
	// Load returns the persisted token, or "" when none is stored
	Load(ctx context.Context) (string, error)

	// Save replaces the persisted token
	Save(ctx context.Context, token string) error

	// Clear removes the persisted token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
