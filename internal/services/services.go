package services

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/reviewly/reviewly/internal/config"
	"github.com/reviewly/reviewly/internal/infrastructure/openai"
	"github.com/reviewly/reviewly/internal/infrastructure/redis"
	"github.com/reviewly/reviewly/internal/infrastructure/reviewly"
	"github.com/reviewly/reviewly/internal/services/auth"
	"github.com/reviewly/reviewly/internal/services/chat"
	"github.com/reviewly/reviewly/internal/services/favorites"
	"github.com/reviewly/reviewly/internal/services/prefs"
	"github.com/reviewly/reviewly/internal/services/reviews"
)

var (
	// Mutex for thread-safe initialization
	servicesMu sync.RWMutex

	ErrDirectUnavailable = errors.New("direct mode requires OPENROUTER_API_KEY")
)

// Options select optional behaviour of the chat session
type Options struct {
	// Direct streams answers from the provider instead of the backend
	Direct   bool
	Greeting bool
}

type Services struct {
	redisService     *redis.Service
	prefsService     *prefs.Service
	client           *reviewly.Client
	authService      *auth.Service
	favoritesService *favorites.Service
	openAIService    *openai.Service
	chatSession      *chat.Session
	resolver         *reviews.Resolver
}

// InitializeServices initializes all required services
func InitializeServices(opts Options) (*Services, error) {
	servicesMu.Lock()
	defer servicesMu.Unlock()

	log.Info().Msg("Initializing core services")

	// Redis is optional; the preference service falls back to a file
	redisService := redis.NewService()
	prefsService := prefs.NewService(redisService, config.GetPrefsFile())

	client := reviewly.NewClient(config.GetAPIBaseURL(), prefsService)
	log.Info().Str("base_url", client.BaseURL()).Msg("Initializing reviewly API client")

	var transport chat.Transport
	openAIService := openai.NewService()
	if opts.Direct {
		if openAIService == nil {
			return nil, ErrDirectUnavailable
		}
		transport = chat.NewOpenRouterTransport(openAIService.GetClient(), prefsService)
		log.Info().Msg("Chat answers stream directly from the provider")
	} else {
		transport = chat.NewHTTPTransport(client.BaseURL(), config.GetChatEndpoint(), prefsService)
	}

	sessionOpts := []chat.Option{
		chat.WithIdleTimeout(config.GetStreamIdleTimeout()),
		chat.WithHistory(client, prefsService),
	}
	if opts.Greeting {
		sessionOpts = append(sessionOpts, chat.WithGreeting(chat.DefaultGreeting))
	}

	log.Info().Msg("All services initialized successfully")

	return &Services{
		redisService:     redisService,
		prefsService:     prefsService,
		client:           client,
		authService:      auth.NewService(client, prefsService),
		favoritesService: favorites.NewService(client),
		openAIService:    openAIService,
		chatSession:      chat.NewSession(transport, sessionOpts...),
		resolver:         reviews.NewResolver(client),
	}, nil
}

// NewWithComponents assembles a container from ready-made parts, mostly for tests
func NewWithComponents(prefsService *prefs.Service, client *reviewly.Client, session *chat.Session, resolver *reviews.Resolver) *Services {
	return &Services{
		prefsService:     prefsService,
		client:           client,
		authService:      auth.NewService(client, prefsService),
		favoritesService: favorites.NewService(client),
		chatSession:      session,
		resolver:         resolver,
	}
}

func (s *Services) GetPrefsService() *prefs.Service {
	return s.prefsService
}

func (s *Services) GetClient() *reviewly.Client {
	return s.client
}

func (s *Services) GetAuthService() *auth.Service {
	return s.authService
}

func (s *Services) GetFavoritesService() *favorites.Service {
	return s.favoritesService
}

func (s *Services) GetChatSession() *chat.Session {
	return s.chatSession
}

func (s *Services) GetReviewResolver() *reviews.Resolver {
	return s.resolver
}

// Close releases the Redis connection when one is open
func (s *Services) Close() error {
	if s.redisService != nil {
		return s.redisService.Close()
	}
	return nil
}
