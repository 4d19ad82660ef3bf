package reviews

import (
	"context"
	"time"

	"github.com/reviewly/reviewly/internal/infrastructure/reviewly"
	"github.com/reviewly/reviewly/pkg/logger"
)

// DefaultSettleDelay is how long the page gets to render before scrolling
const DefaultSettleDelay = 500 * time.Millisecond

// PageFetcher loads one page of a product's reviews
type PageFetcher interface {
	GetProductReviews(ctx context.Context, productID string, page int) (*reviewly.ReviewPage, error)
}

// Selector is the host page showing the reviews
type Selector interface {
	SelectPage(page int)
	ScrollTo(reviewID int)
}

type Resolver struct {
	fetcher     PageFetcher
	settleDelay time.Duration
}

func NewResolver(fetcher PageFetcher) *Resolver {
	return &Resolver{fetcher: fetcher, settleDelay: DefaultSettleDelay}
}

// WithSettleDelay returns a copy of the resolver waiting d before scrolling
func (r *Resolver) WithSettleDelay(d time.Duration) *Resolver {
	clone := *r
	clone.settleDelay = d
	return &clone
}

// Resolve scans review pages 1..totalPages in order and, on the first page
// containing reviewID, selects it and then scrolls to the review. It never
// fails: a missing review or a fetch error is only logged.
func (r *Resolver) Resolve(ctx context.Context, productID string, reviewID, totalPages int, sel Selector) (int, bool) {
	for page := 1; page <= totalPages; page++ {
		result, err := r.fetcher.GetProductReviews(ctx, productID, page)
		if err != nil {
			logger.Error(logger.REVIEWS, "Failed to fetch review page %d of product %s: %v", page, productID, err)
			return 0, false
		}

		if !contains(result.Reviews, reviewID) {
			continue
		}

		logger.Debug(logger.REVIEWS, "Review %d found on page %d", reviewID, page)
		sel.SelectPage(page)

		select {
		case <-ctx.Done():
			logger.Warn(logger.REVIEWS, "Review %d selected but scroll cancelled: %v", reviewID, ctx.Err())
			return page, true
		case <-time.After(r.settleDelay):
		}

		sel.ScrollTo(reviewID)
		return page, true
	}

	logger.Warn(logger.REVIEWS, "Review %d not found in %d pages of product %s", reviewID, totalPages, productID)
	return 0, false
}

func contains(reviews []reviewly.Review, reviewID int) bool {
	for _, review := range reviews {
		if review.ReviewID == reviewID {
			return true
		}
	}
	return false
}
