package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/reviewly/reviewly/internal/infrastructure/reviewly"
)

var (
	filter      reviewly.ProductFilter
	topN        int
	searchCat   string
	reviewsPage int
	startDate   string
	endDate     string
	suggestions int
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Browse the product catalog",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products with optional filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, done, err := apiClient()
		if err != nil {
			return err
		}
		defer done()

		page, err := client.ListProducts(cmd.Context(), filter)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, productTable(page.Products))
		fmt.Fprintln(out, timeStyle.Render(fmt.Sprintf("page %d of %d, %d products", page.CurrentPage, page.TotalPages, page.TotalProducts)))
		return nil
	},
}

var productsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Semantic product search",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, done, err := apiClient()
		if err != nil {
			return err
		}
		defer done()

		result, err := client.SearchProducts(cmd.Context(), reviewly.SearchRequest{
			Query:    strings.Join(args, " "),
			TopN:     topN,
			Category: searchCat,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), productTable(result.TopProducts))
		return nil
	},
}

var productsAutocompleteCmd = &cobra.Command{
	Use:   "autocomplete [term]",
	Short: "Suggest product titles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, done, err := apiClient()
		if err != nil {
			return err
		}
		defer done()

		found, err := client.Autocomplete(cmd.Context(), strings.Join(args, " "), suggestions)
		if err != nil {
			return err
		}
		for _, s := range found {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", s.ProductID, s.Title)
		}
		return nil
	},
}

var productsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List product categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, done, err := apiClient()
		if err != nil {
			return err
		}
		defer done()

		categories, err := client.Categories(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range categories {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

var productsShowCmd = &cobra.Command{
	Use:   "show [product-id]",
	Short: "Show a product and one page of its reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, done, err := apiClient()
		if err != nil {
			return err
		}
		defer done()

		product, err := client.GetProduct(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		page, err := client.GetProductReviews(cmd.Context(), args[0], reviewsPage)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headingStyle.Render(product.Title))
		fmt.Fprintf(out, "%s · %s · %.2f · %.1f★ (%d)\n", product.MainCategory, product.Store, product.Price, product.AverageRating, product.RatingNumber)
		if product.ResumeReview != "" {
			fmt.Fprintln(out, statusStyle.Render(product.ResumeReview))
		}
		fmt.Fprintln(out, reviewTable(page.Reviews))
		fmt.Fprintln(out, timeStyle.Render(fmt.Sprintf("reviews page %d of %d (%d reviews)", page.Page, page.TotalPages, page.TotalReviews)))
		return nil
	},
}

var productsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of products in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, done, err := apiClient()
		if err != nil {
			return err
		}
		defer done()

		n, err := client.ProductCount(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent chat queries of the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, done, err := apiClient()
		if err != nil {
			return err
		}
		defer done()

		queries, err := client.RecentQueries(cmd.Context())
		if err != nil {
			return err
		}
		for _, q := range queries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", timeStyle.Render(q.CreatedAt), q.QueryText)
		}
		return nil
	},
}

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Work with product reviews",
}

var reviewsFindCmd = &cobra.Command{
	Use:   "find [product-id] [review-id]",
	Short: "Find the review page that holds a review",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reviewID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid review id %q: %w", args[1], err)
		}

		svcs, err := loadServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		first, err := svcs.GetClient().GetProductReviews(cmd.Context(), args[0], 1)
		if err != nil {
			return err
		}

		sel := &printingSelector{cmd: cmd}
		resolver := svcs.GetReviewResolver().WithSettleDelay(0)
		if _, found := resolver.Resolve(cmd.Context(), args[0], reviewID, first.TotalPages, sel); !found {
			fmt.Fprintf(cmd.OutOrStdout(), "Review %d not found\n", reviewID)
		}
		return nil
	},
}

type printingSelector struct {
	cmd *cobra.Command
}

func (p *printingSelector) SelectPage(page int) {
	fmt.Fprintf(p.cmd.OutOrStdout(), "Review is on page %d\n", page)
}

func (p *printingSelector) ScrollTo(reviewID int) {}

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage favorite products",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorite products",
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := loadServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		products, err := svcs.GetFavoritesService().List(cmd.Context())
		if err != nil {
			return err
		}
		if len(products) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No favorites yet")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), productTable(products))
		return nil
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add [product-id]",
	Short: "Add a product to favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeFavorite(cmd, args[0], true)
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove [product-id]",
	Short: "Remove a product from favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeFavorite(cmd, args[0], false)
	},
}

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Print review location heatmap points",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, d := range []string{startDate, endDate} {
			if d == "" {
				continue
			}
			if _, err := time.Parse("2006-01-02", d); err != nil {
				return fmt.Errorf("invalid date %q, want YYYY-MM-DD", d)
			}
		}

		client, done, err := apiClient()
		if err != nil {
			return err
		}
		defer done()

		points, err := client.HeatmapData(cmd.Context(), startDate, endDate)
		if err != nil {
			return err
		}
		for _, p := range points {
			fmt.Fprintf(cmd.OutOrStdout(), "%.5f\t%.5f\t%g\n", p.Lat, p.Lng, p.Weight)
		}
		return nil
	},
}

func registerCatalogCommands(root *cobra.Command) {
	f := productsListCmd.Flags()
	f.IntVar(&filter.Page, "page", 1, "page number")
	f.IntVar(&filter.Limit, "limit", 0, "products per page")
	f.StringVar(&filter.Category, "category", "", "main category")
	f.StringVar(&filter.Name, "name", "", "title contains")
	f.Float64Var(&filter.PriceMin, "min-price", 0, "minimum price")
	f.Float64Var(&filter.PriceMax, "max-price", 0, "maximum price")
	f.StringVar(&filter.Store, "store", "", "store name")
	f.Float64Var(&filter.MinRating, "min-rating", 0, "minimum average rating")
	f.IntVar(&filter.MinFavorites, "min-favorites", 0, "minimum favorite count")
	f.BoolVar(&filter.IncludeFavorites, "include-favorites", false, "include favorite counts")

	productsSearchCmd.Flags().IntVar(&topN, "top", 10, "number of results")
	productsSearchCmd.Flags().StringVar(&searchCat, "category", "", "restrict to a category")
	productsAutocompleteCmd.Flags().IntVar(&suggestions, "limit", 3, "number of suggestions")
	productsShowCmd.Flags().IntVar(&reviewsPage, "reviews-page", 1, "review page to show")

	heatmapCmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	heatmapCmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD)")

	productsCmd.AddCommand(productsListCmd, productsSearchCmd, productsAutocompleteCmd, productsCategoriesCmd, productsShowCmd, productsCountCmd)
	reviewsCmd.AddCommand(reviewsFindCmd)
	favoritesCmd.AddCommand(favoritesListCmd, favoritesAddCmd, favoritesRemoveCmd)
	root.AddCommand(productsCmd, reviewsCmd, favoritesCmd, heatmapCmd, historyCmd)
}

// apiClient returns the REST client and a function releasing the services behind it
func apiClient() (*reviewly.Client, func(), error) {
	svcs, err := loadServices()
	if err != nil {
		return nil, nil, err
	}
	return svcs.GetClient(), func() { svcs.Close() }, nil
}

func changeFavorite(cmd *cobra.Command, arg string, add bool) error {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid product id %q: %w", arg, err)
	}

	svcs, err := loadServices()
	if err != nil {
		return err
	}
	defer svcs.Close()

	favorites := svcs.GetFavoritesService()
	if add {
		err = favorites.Add(cmd.Context(), id)
	} else {
		err = favorites.Remove(cmd.Context(), id)
	}
	if err != nil {
		return err
	}

	verb := "Removed"
	if add {
		verb = "Added"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s product %d\n", verb, id)
	return nil
}
