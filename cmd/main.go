package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	v1handlers "github.com/reviewly/reviewly/internal/api/v1/handlers"
	"github.com/reviewly/reviewly/internal/config"
	"github.com/reviewly/reviewly/internal/connections"
	"github.com/reviewly/reviewly/internal/services"
	"github.com/reviewly/reviewly/pkg/logger"
)

var (
	// Global flags
	apiBaseURL string
	verbose    bool

	// chat and serve flags
	direct    bool
	greeting  bool
	productID string
	addr      string
)

var rootCmd = &cobra.Command{
	Use:   "reviewly",
	Short: "reviewly - browse products and chat with the review assistant",
	Long: `reviewly talks to the reviewly backend: browse and search the catalog,
manage favorites, and ask the assistant about products and their reviews.

Run "reviewly chat" for an interactive conversation or "reviewly serve"
to expose the chat to a browser widget.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.Load()

		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
			logger.SetLevel(logger.DEBUG)
		}
		log.Logger = logger.Zerolog()

		if apiBaseURL != "" {
			return os.Setenv("REVIEWLY_API_BASE_URL", apiBaseURL)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat session to a browser widget",
	Long: `Starts a local HTTP server exposing one chat session:

  GET  /v1/health
  GET  /v1/chat/messages     current conversation
  POST /v1/chat/messages     submit a prompt
  GET  /v1/chat/ws           live updates (websocket)
  POST /v1/reviews/anchor    locate a review page`,
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api", "", "reviewly backend base URL (overrides REVIEWLY_API_BASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides BRIDGE_ADDR)")
	serveCmd.Flags().BoolVar(&direct, "direct", false, "stream answers from OpenRouter instead of the backend")
	serveCmd.Flags().BoolVar(&greeting, "greeting", false, "open the conversation with a greeting")

	rootCmd.AddCommand(serveCmd, chatCmd)
	registerAccountCommands(rootCmd)
	registerCatalogCommands(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadServices() (*services.Services, error) {
	svcs, err := services.InitializeServices(services.Options{Direct: direct, Greeting: greeting})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return svcs, nil
}

func setupRouter(svcs *services.Services, manager *connections.Manager, cfg config.BridgeConfig) *mux.Router {
	r := mux.NewRouter()
	v1handlers.RegisterV1Routes(r, v1handlers.NewBridge(svcs, manager, cfg))
	return r
}

func runServe(cmd *cobra.Command, args []string) error {
	svcs, err := loadServices()
	if err != nil {
		return err
	}
	defer svcs.Close()

	cfg := config.GetBridgeConfig()
	if addr != "" {
		cfg.Addr = addr
	}

	manager := connections.NewManager(connections.TimeoutsFromConfig(cfg))
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           setupRouter(svcs, manager, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("Bridge listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("bridge server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down bridge")
		manager.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
