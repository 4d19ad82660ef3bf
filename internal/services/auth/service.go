package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"github.com/reviewly/reviewly/internal/infrastructure/reviewly"
	"github.com/reviewly/reviewly/pkg/logger"
)

var (
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoToken      = errors.New("backend returned no access token")
)

// User is what the client knows about the logged-in account, read from the token
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Backend is the part of the REST client that issues tokens
type Backend interface {
	Login(ctx context.Context, creds reviewly.Credentials) (*reviewly.AuthResponse, error)
	Register(ctx context.Context, creds reviewly.Credentials) (*reviewly.AuthResponse, error)
	GoogleAuth(ctx context.Context, credential string) (*reviewly.AuthResponse, error)
	GitHubAuth(ctx context.Context, code string) (*reviewly.AuthResponse, error)
}

// TokenStore persists the bearer token between runs
type TokenStore interface {
	Token(ctx context.Context) (string, bool)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

type credentialsInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type Service struct {
	backend  Backend
	tokens   TokenStore
	validate *validator.Validate
	now      func() time.Time
}

func NewService(backend Backend, tokens TokenStore) *Service {
	return &Service{
		backend:  backend,
		tokens:   tokens,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	creds, err := s.credentials(email, password)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, "login", func() (*reviewly.AuthResponse, error) {
		return s.backend.Login(ctx, creds)
	})
}

func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	creds, err := s.credentials(email, password)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, "register", func() (*reviewly.AuthResponse, error) {
		return s.backend.Register(ctx, creds)
	})
}

// LoginWithGoogle exchanges a Google ID token credential
func (s *Service) LoginWithGoogle(ctx context.Context, credential string) (*User, error) {
	if credential == "" {
		return nil, fmt.Errorf("google credential is required")
	}
	return s.persist(ctx, "google", func() (*reviewly.AuthResponse, error) {
		return s.backend.GoogleAuth(ctx, credential)
	})
}

// LoginWithGitHub exchanges an OAuth authorization code
func (s *Service) LoginWithGitHub(ctx context.Context, code string) (*User, error) {
	if code == "" {
		return nil, fmt.Errorf("github authorization code is required")
	}
	return s.persist(ctx, "github", func() (*reviewly.AuthResponse, error) {
		return s.backend.GitHubAuth(ctx, code)
	})
}

func (s *Service) credentials(email, password string) (reviewly.Credentials, error) {
	input := credentialsInput{Email: email, Password: password}
	if err := s.validate.Struct(input); err != nil {
		return reviewly.Credentials{}, fmt.Errorf("invalid credentials: %w", err)
	}
	return reviewly.Credentials{Email: email, Password: password}, nil
}

func (s *Service) persist(ctx context.Context, method string, call func() (*reviewly.AuthResponse, error)) (*User, error) {
	resp, err := call()
	if err != nil {
		logger.Warn(logger.AUTH, "Authentication via %s failed: %v", method, err)
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, ErrNoToken
	}

	user, err := DecodeUser(resp.AccessToken, s.now())
	if err != nil {
		return nil, err
	}
	if user.Email == "" {
		user.Email = resp.Email
	}
	if user.ID == "" && resp.UserID != 0 {
		user.ID = strconv.Itoa(resp.UserID)
	}

	if err := s.tokens.SetToken(ctx, resp.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	logger.Info(logger.AUTH, "Logged in as %s via %s", user.Email, method)
	return user, nil
}

// CurrentUser decodes the stored token. An expired or unreadable token counts as logged out.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	token, ok := s.tokens.Token(ctx)
	if !ok {
		return nil, ErrNotLoggedIn
	}

	user, err := DecodeUser(token, s.now())
	if err != nil {
		logger.Warn(logger.AUTH, "Stored token unusable: %v", err)
		return nil, ErrNotLoggedIn
	}
	return user, nil
}

func (s *Service) Logout(ctx context.Context) error {
	if err := s.tokens.ClearToken(ctx); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	logger.Info(logger.AUTH, "Logged out")
	return nil
}

// DecodeUser reads the identity claims of token without checking its signature;
// the backend verifies it on every request.
func DecodeUser(token string, now time.Time) (*User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user := &User{
		ID:    claimString(claims, "id"),
		Email: claimString(claims, "email"),
	}
	if user.ID == "" {
		user.ID = claimString(claims, "sub")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if exp != nil {
		user.ExpiresAt = exp.Time
		if !now.Before(exp.Time) {
			return nil, fmt.Errorf("%w: expired at %s", ErrInvalidToken, exp.Time.Format(time.RFC3339))
		}
	}

	return user, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
