package httpapi

import (
	"context"
	"net/http"

	"github.com/custodia-labs/docsum/internal/core/domain"
)

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	User        *wireUser `json:"user"`
}

// Me returns the user the token belongs to
func (c *Client) Me(ctx context.Context, token string) (*domain.User, error) {
	var u wireUser
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", token: token}, &u); err != nil {
		return nil, err
	}
	return u.toDomain(), nil
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var resp loginResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        body,
		contentType: "application/json",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &domain.LoginResponse{
		Token:     resp.AccessToken,
		TokenType: resp.TokenType,
		User:      resp.User.toDomain(),
	}, nil
}

// Register creates an account
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var u wireUser
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/register",
		body:        body,
		contentType: "application/json",
	}, &u)
	if err != nil {
		return nil, err
	}
	return u.toDomain(), nil
}

// Refresh rotates a token
func (c *Client) Refresh(ctx context.Context, token string) (string, error) {
	var resp loginResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/refresh", token: token}, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}
