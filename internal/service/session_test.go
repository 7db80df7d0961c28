package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/api"
	"github.com/utafrali/storefront/internal/api/apitest"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository/memory"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
)

const tokenKey = "token"

// --- Mock Authenticator ---

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Login(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenResponse), args.Error(1)
}

func (m *mockAuth) Register(ctx context.Context, reg domain.Registration) (*domain.TokenResponse, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenResponse), args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockAuth) Me(ctx context.Context) (*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newTestSession(auth *mockAuth) (*Session, *memory.KV) {
	store := memory.NewKV()
	s := NewSession(store, tokenKey, func(api.Credentials) Authenticator { return auth }, newTestLogger())
	return s, store
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

var clientUser = &domain.User{ID: 7, NomComplet: "Moussa Fall", Email: "moussa@example.com", Role: domain.RoleClient}

// --- Tests ---

func TestSession_LoginStoresTokenAndLoadsUser(t *testing.T) {
	auth := new(mockAuth)
	s, store := newTestSession(auth)
	ctx := context.Background()
	creds := domain.Credentials{Email: "moussa@example.com", Password: "secret123"}

	auth.On("Login", ctx, creds).Return(&domain.TokenResponse{AccessToken: "opaque-token"}, nil)
	auth.On("Me", ctx).Return(clientUser, nil)

	user, err := s.Login(ctx, creds)

	require.NoError(t, err)
	assert.Equal(t, clientUser, user)
	assert.Equal(t, clientUser, s.CurrentIdentity())
	assert.True(t, s.HasRole(domain.RoleClient))
	assert.False(t, s.HasRole(domain.RoleAdmin))
	assert.Equal(t, "opaque-token", s.Token(ctx))

	data, err := store.Get(ctx, tokenKey)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", string(data))
	auth.AssertExpectations(t)
}

func TestSession_LoginFailureStoresNothing(t *testing.T) {
	auth := new(mockAuth)
	s, _ := newTestSession(auth)
	ctx := context.Background()

	auth.On("Login", ctx, mock.Anything).Return(nil, apperrors.Unauthorized("bad credentials"))

	user, err := s.Login(ctx, domain.Credentials{Email: "a@b.c", Password: "x"})

	assert.Nil(t, user)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	assert.Empty(t, s.Token(ctx))
	assert.Nil(t, s.CurrentIdentity())
	auth.AssertNotCalled(t, "Me", mock.Anything)
}

func TestSession_Register(t *testing.T) {
	auth := new(mockAuth)
	s, _ := newTestSession(auth)
	ctx := context.Background()
	reg := domain.Registration{NomComplet: "Moussa Fall", Email: "moussa@example.com", Password: "secret123", PasswordConfirmation: "secret123"}

	auth.On("Register", ctx, reg).Return(&domain.TokenResponse{AccessToken: "t"}, nil)
	auth.On("Me", ctx).Return(clientUser, nil)

	user, err := s.Register(ctx, reg)

	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, user.Role)
}

func TestSession_LogoutAlwaysClearsLocalState(t *testing.T) {
	auth := new(mockAuth)
	s, store := newTestSession(auth)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, tokenKey, []byte("t")))
	auth.On("Me", ctx).Return(clientUser, nil)
	_, err := s.Restore(ctx)
	require.NoError(t, err)

	auth.On("Logout", ctx).Return(apperrors.ServiceUnavailable("down"))

	err = s.Logout(ctx)

	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
	assert.Nil(t, s.CurrentIdentity())
	assert.Empty(t, s.Token(ctx))
	_, err = store.Get(ctx, tokenKey)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestSession_LogoutWithoutTokenSkipsAPI(t *testing.T) {
	auth := new(mockAuth)
	s, _ := newTestSession(auth)

	require.NoError(t, s.Logout(context.Background()))
	auth.AssertNotCalled(t, "Logout", mock.Anything)
}

func TestSession_RestoreWithoutToken(t *testing.T) {
	auth := new(mockAuth)
	s, _ := newTestSession(auth)
	ctx := context.Background()

	user, err := s.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = s.WaitForIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
	auth.AssertNotCalled(t, "Me", mock.Anything)
}

func TestSession_WaitForIdentityRestoresOnce(t *testing.T) {
	auth := new(mockAuth)
	s, store := newTestSession(auth)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, tokenKey, []byte("t")))
	auth.On("Me", ctx).Return(clientUser, nil).Once()

	for i := 0; i < 3; i++ {
		user, err := s.WaitForIdentity(ctx)
		require.NoError(t, err)
		assert.Equal(t, clientUser, user)
	}
	auth.AssertNumberOfCalls(t, "Me", 1)
}

func TestSession_RestoreKeepsTokenOnTransientError(t *testing.T) {
	auth := new(mockAuth)
	s, store := newTestSession(auth)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, tokenKey, []byte("t")))
	auth.On("Me", ctx).Return(nil, apperrors.ServiceUnavailable("down"))

	user, err := s.Restore(ctx)

	assert.Nil(t, user)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
	assert.Equal(t, "t", s.Token(ctx))
}

func TestSession_RestoreUnauthorizedIsSignedOut(t *testing.T) {
	auth := new(mockAuth)
	s, store := newTestSession(auth)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, tokenKey, []byte("t")))
	auth.On("Me", ctx).Return(nil, apperrors.Unauthorized("expired"))

	user, err := s.Restore(ctx)

	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSession_ExpiredJWTIsAbsent(t *testing.T) {
	auth := new(mockAuth)
	s, store := newTestSession(auth)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, tokenKey, []byte(signedToken(t, time.Now().Add(-time.Minute)))))
	assert.Empty(t, s.Token(ctx))

	valid := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, store.Set(ctx, tokenKey, []byte(valid)))
	assert.Equal(t, valid, s.Token(ctx))
}

func TestSession_ExpiredJWTSkipsRestore(t *testing.T) {
	auth := new(mockAuth)
	s, store := newTestSession(auth)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, tokenKey, []byte(signedToken(t, time.Now().Add(-time.Minute)))))

	user, err := s.WaitForIdentity(ctx)

	require.NoError(t, err)
	assert.Nil(t, user)
	auth.AssertNotCalled(t, "Me", mock.Anything)
}

func TestSession_SubscribeIdentity(t *testing.T) {
	auth := new(mockAuth)
	s, _ := newTestSession(auth)
	ctx := context.Background()
	auth.On("Login", ctx, mock.Anything).Return(&domain.TokenResponse{AccessToken: "t"}, nil)
	auth.On("Me", ctx).Return(clientUser, nil)
	auth.On("Logout", ctx).Return(nil)

	var mu sync.Mutex
	var seen []*domain.User
	s.SubscribeIdentity(func(u *domain.User) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, u)
	})

	_, err := s.Login(ctx, domain.Credentials{Email: "moussa@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []*domain.User{nil, clientUser, nil}, seen)
}

func TestSession_HasAnyRole(t *testing.T) {
	auth := new(mockAuth)
	s, store := newTestSession(auth)
	ctx := context.Background()
	assert.False(t, s.HasAnyRole(domain.RoleClient))

	require.NoError(t, store.Set(ctx, tokenKey, []byte("t")))
	auth.On("Me", ctx).Return(&domain.User{ID: 1, Role: domain.RoleEmploye}, nil)
	_, err := s.Restore(ctx)
	require.NoError(t, err)

	assert.True(t, s.HasAnyRole(domain.RoleAdmin, domain.RoleEmploye))
	assert.False(t, s.HasAnyRole(domain.RoleClient))
	assert.False(t, s.HasAnyRole())
}

// --- Against the fake API ---

func newAPISession(t *testing.T, srv *apitest.Server) (*Session, *api.API) {
	t.Helper()
	var client *api.API
	s := NewSession(memory.NewKV(), tokenKey, func(creds api.Credentials) Authenticator {
		client = api.New(srv.BaseURL(), httpclient.New(httpclient.DefaultConfig()), creds, newTestLogger())
		return client.Auth
	}, newTestLogger())
	return s, client
}

func TestSession_EndToEndLoginAndForcedLogout(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("Moussa Fall", "moussa@example.com", "secret123", domain.RoleClient)
	s, client := newAPISession(t, srv)
	ctx := context.Background()

	user, err := s.Login(ctx, domain.Credentials{Email: "moussa@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "Moussa Fall", user.NomComplet)

	req, ok := srv.LastRequest(http.MethodGet, "/user")
	require.True(t, ok)
	assert.Equal(t, "Bearer "+s.Token(ctx), req.Header.Get("Authorization"))

	srv.FailNext(http.MethodGet, "/commandes/client", http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
	_, err = client.Orders.ListMine(ctx)

	assert.Equal(t, apperrors.MsgSessionExpired, apperrors.UserMessage(err))
	assert.Nil(t, s.CurrentIdentity())
	assert.Empty(t, s.Token(ctx))
}

func TestSession_EndToEndRestoreWithRevokedToken(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("Moussa Fall", "moussa@example.com", "secret123", domain.RoleClient)
	s, _ := newAPISession(t, srv)
	ctx := context.Background()

	_, err := s.Login(ctx, domain.Credentials{Email: "moussa@example.com", Password: "secret123"})
	require.NoError(t, err)
	token := s.Token(ctx)

	srv.FailNext(http.MethodGet, "/user", http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
	user, err := s.Restore(ctx)

	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NotEmpty(t, token)
	assert.Empty(t, s.Token(ctx))
}

func TestSession_RestoreUnauthorizedDropsToken(t *testing.T) {
	auth := new(mockAuth)
	s, store := newTestSession(auth)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, tokenKey, []byte("t")))
	auth.On("Me", ctx).Return(nil, apperrors.Unauthorized("expired")).Once()

	_, err := s.Restore(ctx)
	require.NoError(t, err)

	assert.Empty(t, s.Token(ctx))
	user, err := s.WaitForIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
	auth.AssertNumberOfCalls(t, "Me", 1)
}
