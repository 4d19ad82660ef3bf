package reviewly

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) FavoriteIDs(ctx context.Context) ([]int, error) {
	var ids []int
	if err := c.do(ctx, http.MethodGet, "/user/favorites", nil, nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) AddFavorite(ctx context.Context, productID int) error {
	return c.do(ctx, http.MethodPost, "/user/favorites", nil, map[string]int{"product_id": productID}, nil)
}

func (c *Client) RemoveFavorite(ctx context.Context, productID int) error {
	return c.do(ctx, http.MethodDelete, "/user/favorites", nil, map[string]int{"product_id": productID}, nil)
}

func (c *Client) SaveQuery(ctx context.Context, queryText string) error {
	return c.do(ctx, http.MethodPost, "/user/queries", nil, map[string]string{"query_text": queryText}, nil)
}

func (c *Client) RecentQueries(ctx context.Context) ([]UserQuery, error) {
	var queries []UserQuery
	if err := c.do(ctx, http.MethodGet, "/user/queries", nil, nil, &queries); err != nil {
		return nil, err
	}
	return queries, nil
}

// HeatmapData returns weighted login locations; empty dates leave the range open
func (c *Client) HeatmapData(ctx context.Context, startDate, endDate string) ([]HeatmapPoint, error) {
	query := url.Values{}
	if startDate != "" {
		query.Set("start_date", startDate)
	}
	if endDate != "" {
		query.Set("end_date", endDate)
	}

	var points []HeatmapPoint
	if err := c.do(ctx, http.MethodGet, "/heatmap/heatmap_data", query, nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}
