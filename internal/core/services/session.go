package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/custodia-labs/docsum/internal/core/domain"
	"github.com/custodia-labs/docsum/internal/core/ports/driven"
	"github.com/custodia-labs/docsum/internal/core/ports/driving"
)

// Ensure sessionService implements SessionService
var _ driving.SessionService = (*sessionService)(nil)

// SessionConfig holds the dependencies of the session service
type SessionConfig struct {
	Auth      driven.AuthAPI
	Tokens    driven.TokenStore
	Inspector driven.TokenInspector  // Optional: skips the identity call for expired JWTs
	Lock      driven.DistributedLock // Optional: guards refresh when the store is shared
	Logger    *zap.Logger
}

// refreshLockTTL bounds how long a crashed refresher can block others
const refreshLockTTL = 30 * time.Second

// sessionService implements the SessionService interface.
//
// Every change of identity (login, logout, refresh, forced logout) bumps the
// epoch. A startup validation applies only if the epoch it started under is
// still current, so a login that completes first is never undone.
type sessionService struct {
	auth      driven.AuthAPI
	tokens    driven.TokenStore
	inspector driven.TokenInspector
	lock      driven.DistributedLock
	validate  *validator.Validate
	logger    *zap.Logger

	mu         sync.RWMutex
	session    domain.Session
	epoch      uint64
	ready      bool
	lastExpiry *domain.ClientError

	// persistMu orders token store writes the same way as the epoch
	persistMu sync.Mutex
}

// NewSessionService creates a new SessionService
func NewSessionService(cfg SessionConfig) driving.SessionService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sessionService{
		auth:      cfg.Auth,
		tokens:    cfg.Tokens,
		inspector: cfg.Inspector,
		lock:      cfg.Lock,
		validate:  validator.New(),
		logger:    logger.Named("session"),
	}
}

// Initialize validates the persisted token
func (s *sessionService) Initialize(ctx context.Context) *domain.Session {
	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()

	token, err := s.tokens.Load(ctx)
	if err != nil {
		s.expire(ctx, epoch, fmt.Errorf("failed to load session token: %w", err))
		return s.Current()
	}
	if token == "" {
		s.markReady()
		return s.Current()
	}

	// Expose the token while it is being verified, as long as nothing
	// replaced the session meanwhile.
	s.mu.Lock()
	if s.epoch == epoch {
		s.session = domain.Session{Token: token}
	}
	s.mu.Unlock()

	if s.inspector != nil {
		if _, err := s.inspector.Inspect(token); errors.Is(err, domain.ErrTokenExpired) {
			s.expire(ctx, epoch, err)
			return s.Current()
		}
	}

	user, err := s.auth.Me(ctx, token)
	if err == nil && user == nil {
		err = fmt.Errorf("identity endpoint returned no user: %w", domain.ErrTokenInvalid)
	}
	if err != nil {
		s.expire(ctx, epoch, err)
		return s.Current()
	}

	s.mu.Lock()
	if s.epoch == epoch {
		s.session = domain.Session{Token: token, User: user}
		s.logger.Info("session restored", zap.Int64("user_id", user.ID))
	}
	s.ready = true
	s.mu.Unlock()

	return s.Current()
}

// expire forces a logout if the session is still the one validation started on
func (s *sessionService) expire(ctx context.Context, epoch uint64, cause error) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	s.ready = true
	if s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Debug("ignoring stale session validation", zap.Error(cause))
		return
	}
	s.session = domain.Session{}
	s.epoch++
	s.lastExpiry = &domain.ClientError{
		Kind:    domain.KindSessionExpired,
		Cause:   domain.CauseUnauthenticated,
		Message: "session expired, please log in again",
		Err:     cause,
	}
	s.mu.Unlock()

	s.logger.Warn("session expired", zap.String("kind", string(domain.KindSessionExpired)), zap.Error(cause))
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear persisted token", zap.Error(err))
	}
}

func (s *sessionService) markReady() {
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
}

// Login authenticates and persists the new token
func (s *sessionService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.NewValidationError(domain.KindAuthentication, "credentials_required", "email and password are required")
	}

	resp, err := s.auth.Login(ctx, domain.LoginRequest{Email: email, Password: password})
	if err == nil && (resp == nil || resp.Token == "" || resp.User == nil) {
		err = errors.New("login response is missing the token or user")
	}
	if err != nil {
		return nil, domain.Interpret(domain.KindAuthentication, err, "login failed")
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	s.session = domain.Session{Token: resp.Token, User: resp.User}
	s.epoch++
	s.ready = true
	s.lastExpiry = nil
	current := s.session.Clone()
	s.mu.Unlock()

	if err := s.tokens.Save(ctx, resp.Token); err != nil {
		s.logger.Warn("failed to persist session token", zap.Error(err))
	}
	s.logger.Info("logged in", zap.Int64("user_id", resp.User.ID))
	return current, nil
}

// Register creates an account without logging in
func (s *sessionService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate.Struct(req); err != nil {
		return nil, registrationInputError(err)
	}

	user, err := s.auth.Register(ctx, req)
	if err == nil && user == nil {
		err = errors.New("registration response is missing the user")
	}
	if err != nil {
		return nil, domain.Interpret(domain.KindRegistration, err, "registration failed")
	}
	s.logger.Info("registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// registrationInputError maps struct validation failures onto a stable code
func registrationInputError(err error) *domain.ClientError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Field() == "Email" && fe.Tag() == "email" {
				return domain.NewValidationError(domain.KindRegistration, "invalid_email", "please enter a valid email address")
			}
		}
	}
	return domain.NewValidationError(domain.KindRegistration, "fields_required", "email, username and password are required")
}

// Logout clears the session in memory and in the token store
func (s *sessionService) Logout(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	s.session = domain.Session{}
	s.epoch++
	s.mu.Unlock()

	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear persisted token", zap.Error(err))
	}
}

// RefreshToken rotates the bearer token
func (s *sessionService) RefreshToken(ctx context.Context) error {
	s.mu.RLock()
	token, epoch, authed := s.session.Token, s.epoch, s.session.Authenticated()
	s.mu.RUnlock()

	if !authed {
		return &domain.ClientError{
			Kind:    domain.KindAuthentication,
			Cause:   domain.CauseUnauthenticated,
			Message: "not logged in",
			Err:     domain.ErrNotAuthenticated,
		}
	}

	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, driven.RefreshLockName, refreshLockTTL)
		if err != nil {
			return domain.Interpret(domain.KindAuthentication, err, "token refresh failed")
		}
		if !acquired {
			return &domain.ClientError{
				Kind:    domain.KindAuthentication,
				Cause:   domain.CauseTransport,
				Code:    "refresh_in_progress",
				Message: "another process is refreshing the token",
			}
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), driven.RefreshLockName); err != nil {
				s.logger.Warn("failed to release refresh lock", zap.Error(err))
			}
		}()
	}

	next, err := s.auth.Refresh(ctx, token)
	if err == nil && next == "" {
		err = errors.New("refresh response is missing the token")
	}
	if err != nil {
		return domain.Interpret(domain.KindAuthentication, err, "token refresh failed")
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return domain.ErrSuperseded
	}
	s.session.Token = next
	s.epoch++
	s.mu.Unlock()

	if err := s.tokens.Save(ctx, next); err != nil {
		s.logger.Warn("failed to persist refreshed token", zap.Error(err))
	}
	return nil
}

// Token returns the bearer token, "" when there is no session
func (s *sessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// Current returns a copy of the session
func (s *sessionService) Current() *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone()
}

// Ready reports whether startup validation has finished
func (s *sessionService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// LastExpiry returns the reason of the last forced logout
func (s *sessionService) LastExpiry() *domain.ClientError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastExpiry
}
