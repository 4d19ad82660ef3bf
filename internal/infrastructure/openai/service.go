package openai

import (
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/reviewly/reviewly/internal/config"
	"github.com/reviewly/reviewly/pkg/logger"
)

// Service holds the OpenAI-compatible client used by the direct chat transport
type Service struct {
	mu     sync.RWMutex
	client *openai.Client
}

// NewService returns nil when no OpenRouter key is configured
func NewService() *Service {
	logger.Info(logger.SERVICE, "Initialising OpenRouter service")
	key := config.GetOpenRouterKey()

	if key == "" {
		logger.Warn(logger.SERVICE, "OpenRouter service not configured - OPENROUTER_API_KEY missing")
		return nil
	}

	return NewServiceWithConfig(key, config.GetOpenRouterBaseURL())
}

func NewServiceWithConfig(key, baseURL string) *Service {
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Service{
		client: openai.NewClientWithConfig(cfg),
	}
}

func (s *Service) GetClient() *openai.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}
