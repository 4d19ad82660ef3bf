package prefs

import (
	"context"
	"errors"

	"github.com/reviewly/reviewly/internal/config"
	"github.com/reviewly/reviewly/internal/infrastructure/redis"
	"github.com/reviewly/reviewly/pkg/logger"
)

// ModelPreference is the provider/model pair chosen for chat requests
type ModelPreference struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func DefaultModel() ModelPreference {
	return ModelPreference{Provider: config.DefaultProvider, Model: config.DefaultModel}
}

type Service struct {
	store Store
}

// NewService picks Redis when it is reachable, then the preference file, then memory.
func NewService(redisService *redis.Service, filePath string) *Service {
	logger.Info(logger.PREFS, "Initialising preference service")

	if redisService != nil {
		if err := redisService.Ping(context.Background()); err != nil {
			logger.Error(logger.PREFS, "Redis connection failed: %v", err)
		} else {
			logger.Info(logger.PREFS, "Using Redis for preference storage")
			return &Service{store: NewRedisStore(redisService)}
		}
	}

	if filePath != "" {
		fs, err := OpenFileStore(filePath)
		if err == nil {
			logger.Info(logger.PREFS, "Using preference file %s", filePath)
			return &Service{store: fs}
		}
		logger.Error(logger.PREFS, "Failed to open preference file: %v", err)
	}

	logger.Warn(logger.PREFS, "Falling back to in-memory preference storage")
	return &Service{store: NewMemoryStore()}
}

func NewServiceWithStore(store Store) *Service {
	return &Service{store: store}
}

// Token returns the stored bearer token; ok is false when logged out
func (s *Service) Token(ctx context.Context) (string, bool) {
	token, err := s.store.Get(ctx, config.TokenKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Error(logger.PREFS, "Failed to read token: %v", err)
		}
		return "", false
	}
	return token, token != ""
}

func (s *Service) SetToken(ctx context.Context, token string) error {
	return s.store.Set(ctx, config.TokenKey, token)
}

func (s *Service) ClearToken(ctx context.Context) error {
	return s.store.Delete(ctx, config.TokenKey)
}

// Model returns the stored model preference, filling unset parts with the defaults
func (s *Service) Model(ctx context.Context) ModelPreference {
	pref := DefaultModel()

	if provider, err := s.store.Get(ctx, config.ProviderKey); err == nil && provider != "" {
		pref.Provider = provider
	}
	if model, err := s.store.Get(ctx, config.ModelKey); err == nil && model != "" {
		pref.Model = model
	}

	return pref
}

func (s *Service) SetModel(ctx context.Context, pref ModelPreference) error {
	if err := s.store.Set(ctx, config.ProviderKey, pref.Provider); err != nil {
		return err
	}
	return s.store.Set(ctx, config.ModelKey, pref.Model)
}
