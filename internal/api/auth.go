package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/myhome/myhome/internal/session"
)

// The auth endpoint bindings. Client implements session.Backend.

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginData struct {
	User   *session.User  `json:"user"`
	Tokens session.Tokens `json:"tokens"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*session.User, session.Tokens, error) {
	var data loginData
	err := c.doAnon(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &data)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message == "" {
			apiErr.Message = "Login failed"
		}
		return nil, session.Tokens{}, err
	}
	if data.User == nil || data.Tokens.AccessToken == "" || data.Tokens.RefreshToken == "" {
		return nil, session.Tokens{}, fmt.Errorf("malformed login response from backend")
	}
	return data.User, data.Tokens, nil
}

type registerData struct {
	User *session.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, data session.RegisterData) (*session.User, error) {
	var resp registerData
	if err := c.doAnon(ctx, http.MethodPost, "/auth/register", data, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("malformed register response from backend")
	}
	return resp.User, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshData struct {
	AccessToken string `json:"accessToken"`
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	var data refreshData
	if err := c.doAnon(ctx, http.MethodPost, "/auth/refresh-token", refreshRequest{RefreshToken: refreshToken}, &data); err != nil {
		return "", err
	}
	if data.AccessToken == "" {
		return "", fmt.Errorf("malformed refresh response from backend")
	}
	return data.AccessToken, nil
}

// Logout tells the backend to revoke the refresh token. Callers treat a
// failure here as non-fatal.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.doAnon(ctx, http.MethodPost, "/auth/logout", refreshRequest{RefreshToken: refreshToken}, nil)
}

type profileData struct {
	User *session.User `json:"user"`
}

// Profile fetches the authenticated user's own record. Used as the startup
// verification of a restored session.
func (c *Client) Profile(ctx context.Context) (*session.User, error) {
	var data profileData
	if err := c.get(ctx, "/auth/profile", nil, &data); err != nil {
		return nil, err
	}
	if data.User == nil {
		return nil, fmt.Errorf("malformed profile response from backend")
	}
	return data.User, nil
}
