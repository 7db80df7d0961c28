package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/utafrali/storefront/internal/api"
	"github.com/utafrali/storefront/internal/authz"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/observable"
)

// Session holds the authenticated identity and its token. The token lives in
// the durable store so every client session shares it; the identity is
// loaded from the API and published to subscribers.
//
// Session implements api.Credentials: a 401 from any resource client revokes
// the token and clears the identity.
type Session struct {
	mu       sync.Mutex
	store    repository.KV
	tokenKey string
	auth     Authenticator
	identity *observable.Value[*domain.User]
	loaded   bool
	restore  singleflight.Group
	logger   *slog.Logger
	now      func() time.Time
}

// NewSession creates a session over store. authFor builds the authenticator
// from the session itself, which supplies its credentials.
func NewSession(store repository.KV, tokenKey string, authFor func(api.Credentials) Authenticator, logger *slog.Logger) *Session {
	s := &Session{
		store:    store,
		tokenKey: tokenKey,
		identity: observable.New[*domain.User](nil),
		logger:   logger,
		now:      time.Now,
	}
	s.auth = authFor(s)
	return s
}

// Token returns the stored token, or "" when none is stored or the stored
// JWT has expired.
func (s *Session) Token(ctx context.Context) string {
	data, err := s.store.Get(ctx, s.tokenKey)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to read token",
				slog.String("error", err.Error()),
			)
		}
		return ""
	}
	token := string(data)
	if expired(token, s.now()) {
		return ""
	}
	return token
}

// expired reports whether token is a JWT whose exp claim is in the past.
// Tokens that are not JWTs are opaque and never considered expired.
func expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

// Revoke discards the token and clears the identity.
func (s *Session) Revoke(ctx context.Context) {
	s.clear(ctx)
	s.logger.InfoContext(ctx, "session revoked")
}

func (s *Session) clear(ctx context.Context) {
	if err := s.store.Delete(ctx, s.tokenKey); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete token",
			slog.String("error", err.Error()),
		)
	}
	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
	s.identity.Set(nil)
}

// Login authenticates with creds, stores the token and loads the identity.
func (s *Session) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	tok, err := s.auth.Login(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.establish(ctx, tok.AccessToken)
}

// Register creates a client account and signs it in.
func (s *Session) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	tok, err := s.auth.Register(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return s.establish(ctx, tok.AccessToken)
}

func (s *Session) establish(ctx context.Context, token string) (*domain.User, error) {
	if err := s.store.Set(ctx, s.tokenKey, []byte(token)); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	user, err := s.loadUser(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user signed in",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// loadUser fetches the identity owning the stored token and publishes it.
// A 401 has already revoked the token when this returns.
func (s *Session) loadUser(ctx context.Context) (*domain.User, error) {
	user, err := s.auth.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
	s.identity.Set(user)
	return user, nil
}

// Logout tells the API to invalidate the token, then always clears the
// local token and identity. The API error, if any, is returned after the
// local cleanup.
func (s *Session) Logout(ctx context.Context) error {
	var apiErr error
	if s.Token(ctx) != "" {
		apiErr = s.auth.Logout(ctx)
	}
	s.clear(ctx)
	if apiErr != nil {
		s.logger.WarnContext(ctx, "logout request failed, local session cleared anyway",
			slog.String("error", apiErr.Error()),
		)
		return fmt.Errorf("logout: %w", apiErr)
	}
	s.logger.InfoContext(ctx, "user signed out")
	return nil
}

// Restore loads the identity owning the stored token. Without a token, or
// when the API rejects it, the session is unauthenticated and Restore
// returns (nil, nil). Other API errors are returned and the token is kept.
// Concurrent calls share one request.
func (s *Session) Restore(ctx context.Context) (*domain.User, error) {
	v, err, _ := s.restore.Do("restore", func() (any, error) {
		if s.Token(ctx) == "" {
			s.mu.Lock()
			s.loaded = true
			s.mu.Unlock()
			s.identity.Set(nil)
			return (*domain.User)(nil), nil
		}
		user, err := s.loadUser(ctx)
		if err != nil {
			if errors.Is(err, apperrors.ErrUnauthorized) {
				s.clear(ctx)
				return (*domain.User)(nil), nil
			}
			return (*domain.User)(nil), err
		}
		return user, nil
	})
	return v.(*domain.User), err
}

// WaitForIdentity returns the identity once it is known, restoring it from
// the stored token on first use. It returns nil when unauthenticated.
func (s *Session) WaitForIdentity(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return s.CurrentIdentity(), nil
	}
	return s.Restore(ctx)
}

// CurrentIdentity returns the last known identity, or nil.
func (s *Session) CurrentIdentity() *domain.User {
	return s.identity.Get()
}

// SubscribeIdentity calls fn with the current identity and on every change.
// fn must not call Login, Logout or Revoke.
func (s *Session) SubscribeIdentity(fn func(*domain.User)) (unsubscribe func()) {
	return s.identity.Subscribe(fn)
}

// HasRole reports whether the current identity has role.
func (s *Session) HasRole(role domain.Role) bool {
	return authz.Allows(s.CurrentIdentity(), role)
}

// HasAnyRole reports whether the current identity has one of roles.
func (s *Session) HasAnyRole(roles ...domain.Role) bool {
	if len(roles) == 0 {
		return false
	}
	return authz.Allows(s.CurrentIdentity(), roles...)
}

// Context returns ctx annotated with the current user id for logging.
func (s *Session) Context(ctx context.Context) context.Context {
	if user := s.CurrentIdentity(); user != nil {
		return logger.WithUserID(ctx, strconv.FormatInt(user.ID, 10))
	}
	return ctx
}
