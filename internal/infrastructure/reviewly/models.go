package reviewly

import (
	"encoding/json"
)

// Images decodes both image shapes the backend emits: plain URLs from list and
// search endpoints, and {"large": ..., "thumb": ...} objects from the detail endpoint.
type Images []string

func (im *Images) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Images, 0, len(raw))
	for _, item := range raw {
		var url string
		if err := json.Unmarshal(item, &url); err == nil {
			out = append(out, url)
			continue
		}

		var variants map[string]*string
		if err := json.Unmarshal(item, &variants); err != nil {
			continue
		}
		for _, key := range []string{"large", "hi_res", "thumb"} {
			if v := variants[key]; v != nil && *v != "" {
				out = append(out, *v)
				break
			}
		}
	}

	*im = out
	return nil
}

type Product struct {
	ProductID     int             `json:"product_id"`
	Title         string          `json:"title"`
	MainCategory  string          `json:"main_category"`
	AverageRating float64         `json:"average_rating"`
	RatingNumber  int             `json:"rating_number"`
	Price         float64         `json:"price"`
	Images        Images          `json:"images,omitempty"`
	Store         string          `json:"store"`
	Features      json.RawMessage `json:"features,omitempty"`
	Description   json.RawMessage `json:"description,omitempty"`
	ResumeReview  string          `json:"resume_review,omitempty"`
	AmazonLink    string          `json:"amazon_link,omitempty"`
}

type ProductPage struct {
	Products      []Product `json:"products"`
	TotalProducts int       `json:"total_products"`
	TotalPages    int       `json:"total_pages"`
	CurrentPage   int       `json:"current_page"`
}

// ProductFilter mirrors the query parameters of GET /products. Zero values are omitted.
type ProductFilter struct {
	Page             int
	Limit            int
	Category         string
	Name             string
	PriceMin         float64
	PriceMax         float64
	Store            string
	MinRating        float64
	MinFavorites     int
	IncludeFavorites bool
}

type SearchRequest struct {
	Query    string  `json:"query"`
	TopN     int     `json:"top_n,omitempty"`
	Category string  `json:"category,omitempty"`
	MinPrice float64 `json:"min_price,omitempty"`
	MaxPrice float64 `json:"max_price,omitempty"`
}

type SearchResult struct {
	Query       string    `json:"query"`
	TopProducts []Product `json:"top_products"`
}

type Suggestion struct {
	ProductID int    `json:"product_id"`
	Title     string `json:"title"`
}

type Review struct {
	ReviewID         int     `json:"review_id"`
	ProductID        int     `json:"product_id"`
	Title            string  `json:"title"`
	Text             string  `json:"text"`
	Rating           float64 `json:"rating"`
	Sentiment        string  `json:"sentiment,omitempty"`
	HelpfulVote      int     `json:"helpful_vote"`
	VerifiedPurchase bool    `json:"verified_purchase"`
	Timestamp        string  `json:"timestamp,omitempty"`
}

type ReviewPage struct {
	Reviews      []Review `json:"reviews"`
	TotalReviews int      `json:"total_reviews"`
	Page         int      `json:"page"`
	PerPage      int      `json:"per_page"`
	TotalPages   int      `json:"total_pages"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Message     string `json:"message"`
	UserID      int    `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

type UserQuery struct {
	ID        int    `json:"id"`
	QueryText string `json:"query_text"`
	CreatedAt string `json:"created_at"`
}

type HeatmapPoint struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Weight float64 `json:"weight"`
}
