package reviewly

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

func (f ProductFilter) values() url.Values {
	q := url.Values{}
	setInt := func(key string, v int) {
		if v > 0 {
			q.Set(key, strconv.Itoa(v))
		}
	}
	setFloat := func(key string, v float64) {
		if v > 0 {
			q.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	setString := func(key, v string) {
		if v != "" {
			q.Set(key, v)
		}
	}

	setInt("page", f.Page)
	setInt("limit", f.Limit)
	setString("category", f.Category)
	setString("name", f.Name)
	setFloat("price_min", f.PriceMin)
	setFloat("price_max", f.PriceMax)
	setString("store", f.Store)
	setFloat("min_rating", f.MinRating)
	setInt("min_favorites", f.MinFavorites)
	if f.IncludeFavorites {
		q.Set("include_favorites", "true")
	}
	return q
}

func (c *Client) ListProducts(ctx context.Context, filter ProductFilter) (*ProductPage, error) {
	var page ProductPage
	if err := c.do(ctx, http.MethodGet, "/products/", filter.values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var product Product
	path := "/products/" + url.PathEscape(productID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductReviews fetches one page (1-based) of a product's reviews
func (c *Client) GetProductReviews(ctx context.Context, productID string, page int) (*ReviewPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid review page %d", page)
	}

	var reviews ReviewPage
	path := fmt.Sprintf("/products/%s/reviews", url.PathEscape(productID))
	query := url.Values{"page": {strconv.Itoa(page)}}
	if err := c.do(ctx, http.MethodGet, path, query, nil, &reviews); err != nil {
		return nil, err
	}
	return &reviews, nil
}

func (c *Client) SearchProducts(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("search query is required")
	}

	var result SearchResult
	if err := c.do(ctx, http.MethodPost, "/products/search", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Autocomplete returns title suggestions. Terms shorter than two characters never match,
// so they are answered locally.
func (c *Client) Autocomplete(ctx context.Context, term string, limit int) ([]Suggestion, error) {
	if len(strings.TrimSpace(term)) < 2 {
		return []Suggestion{}, nil
	}
	if limit <= 0 {
		limit = 3
	}

	var suggestions []Suggestion
	query := url.Values{"term": {term}, "limit": {strconv.Itoa(limit)}}
	if err := c.do(ctx, http.MethodGet, "/products/autocomplete", query, nil, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var resp struct {
		Categories []string `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/categories", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

func (c *Client) ProductCount(ctx context.Context) (int, error) {
	var resp struct {
		TotalProducts int `json:"total_products"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/count", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.TotalProducts, nil
}
