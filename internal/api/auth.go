package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/validator"
)

// AuthClient calls the authentication endpoints.
type AuthClient struct {
	client *Client
}

// NewAuthClient creates an AuthClient.
func NewAuthClient(client *Client) *AuthClient {
	return &AuthClient{client: client}
}

// Login exchanges credentials for a token.
func (a *AuthClient) Login(ctx context.Context, creds domain.Credentials) (*domain.TokenResponse, error) {
	return a.tokenCall(ctx, "/login", "login", creds)
}

// Register creates a client account and returns its token.
func (a *AuthClient) Register(ctx context.Context, reg domain.Registration) (*domain.TokenResponse, error) {
	return a.tokenCall(ctx, "/register", "register", reg)
}

func (a *AuthClient) tokenCall(ctx context.Context, path, name string, payload any) (*domain.TokenResponse, error) {
	if err := validator.Validate(payload); err != nil {
		return nil, fmt.Errorf("validate %s: %w", name, err)
	}
	req, err := jsonRequest(http.MethodPost, path, name, payload)
	if err != nil {
		return nil, err
	}
	var out domain.TokenResponse
	if err := a.client.do(ctx, req, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%s: response carries no access token", name)
	}
	return &out, nil
}

// Logout invalidates the current token on the server.
func (a *AuthClient) Logout(ctx context.Context) error {
	req, err := jsonRequest(http.MethodPost, "/logout", "logout", struct{}{})
	if err != nil {
		return err
	}
	return a.client.do(ctx, req, nil)
}

// Me returns the user owning the current token.
func (a *AuthClient) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := a.client.do(ctx, request{method: http.MethodGet, path: "/user", resource: "user"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
