package reviewly

import (
	"context"
	"net/http"
)

func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", creds)
}

func (c *Client) Register(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register", creds)
}

// GoogleAuth exchanges a Google ID token credential for a reviewly token
func (c *Client) GoogleAuth(ctx context.Context, credential string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/google", map[string]string{"token": credential})
}

// GitHubAuth exchanges a GitHub OAuth callback code for a reviewly token
func (c *Client) GitHubAuth(ctx context.Context, code string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/github", map[string]string{"code": code})
}

func (c *Client) authenticate(ctx context.Context, path string, body interface{}) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
