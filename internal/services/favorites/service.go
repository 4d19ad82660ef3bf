package favorites

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/reviewly/reviewly/internal/infrastructure/reviewly"
	"github.com/reviewly/reviewly/pkg/logger"
)

const defaultConcurrency = 4

// Backend is the part of the REST client favorites need
type Backend interface {
	FavoriteIDs(ctx context.Context) ([]int, error)
	AddFavorite(ctx context.Context, productID int) error
	RemoveFavorite(ctx context.Context, productID int) error
	GetProduct(ctx context.Context, productID string) (*reviewly.Product, error)
}

type Service struct {
	backend     Backend
	concurrency int
}

func NewService(backend Backend) *Service {
	return &Service{backend: backend, concurrency: defaultConcurrency}
}

// List returns the user's favorite products in the order the backend lists their ids.
// Details are fetched concurrently; any failed fetch fails the whole list.
func (s *Service) List(ctx context.Context) ([]reviewly.Product, error) {
	ids, err := s.backend.FavoriteIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	products := make([]reviewly.Product, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			product, err := s.backend.GetProduct(gctx, strconv.Itoa(id))
			if err != nil {
				return fmt.Errorf("failed to fetch favorite %d: %w", id, err)
			}
			products[i] = *product
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error(logger.SERVICE, "Favorites listing failed: %v", err)
		return nil, err
	}

	logger.Debug(logger.SERVICE, "Loaded %d favorites", len(products))
	return products, nil
}

func (s *Service) Add(ctx context.Context, productID int) error {
	if err := s.backend.AddFavorite(ctx, productID); err != nil {
		return fmt.Errorf("failed to add favorite %d: %w", productID, err)
	}
	return nil
}

func (s *Service) Remove(ctx context.Context, productID int) error {
	if err := s.backend.RemoveFavorite(ctx, productID); err != nil {
		return fmt.Errorf("failed to remove favorite %d: %w", productID, err)
	}
	return nil
}
