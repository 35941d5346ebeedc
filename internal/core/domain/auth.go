package domain

// Session is the client's authenticated state.
// An empty Token means no session; User is set only once the token has been
// accepted by the identity endpoint or returned by a login.
type Session struct {
	Token string `json:"-"`
	User  *User  `json:"user,omitempty"`
}

// Authenticated reports whether both the token and the verified user are present
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != "" && s.User != nil
}

// Clone returns a copy that shares no mutable state with s
func (s *Session) Clone() *Session {
	if s == nil {
		return &Session{}
	}
	out := &Session{Token: s.Token}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by the document service after successful authentication
type LoginResponse struct {
	Token     string `json:"access_token"`
	TokenType string `json:"token_type"`
	User      *User  `json:"user"`
}

// TokenClaims is the subset of a bearer token's payload the client can read
// without the signing key
type TokenClaims struct {
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"exp"`
}

// HasExpiry reports whether the token carried an expiry claim
func (c *TokenClaims) HasExpiry() bool {
	return c != nil && c.ExpiresAt > 0
}
