package crawler

import (
	"context"
	"time"

	"sjsage522/reviewworker/internal/loader"
	"sjsage522/reviewworker/internal/review"
)

// Collection is everything scraped from one product page
type Collection struct {
	URL     string
	Summary review.Summary
	Reviews []review.Review
	// Load is nil for crawlers that do not paginate
	Load *loader.Result
}

// ModelKey identifies the product for caching and publishing
func (c *Collection) ModelKey() string {
	if c.Summary.ModelName != "" {
		return c.Summary.ModelName
	}
	if len(c.Reviews) > 0 {
		return c.Reviews[0].ModelID
	}
	return ""
}

// Crawler interface defines the contract for all crawler implementations
type Crawler interface {
	// FetchReviews scrapes the product page
	FetchReviews(ctx context.Context) (*Collection, error)

	// GetName returns the crawler's name for logging and identification
	GetName() string

	// GetProvider returns the page URL the crawler scrapes
	GetProvider() string
}

// CrawlerConfig contains configuration for a crawler
type CrawlerConfig struct {
	URL          string
	Selectors    Selectors
	MediaBaseURL string
	Loader       loader.Options
	// PageTimeout bounds navigation and loading. The snapshot of whatever
	// was loaded is taken after it expires.
	PageTimeout time.Duration
	// SkipLoading reads only the reviews shown on first render
	SkipLoading bool
}

// Selectors contains CSS selectors for the review section
type Selectors struct {
	ReviewItem string
	MoreButton string
	Count      string
}

// DefaultSelectors returns the selectors of the LG product page
func DefaultSelectors() Selectors {
	return Selectors{
		ReviewItem: "#divReviewList li[data-review-id]",
		MoreButton: "#reviewMoreBtn",
		Count:      "#reviewCount",
	}
}

func (s Selectors) review() review.Selectors {
	return review.Selectors{ReviewItem: s.ReviewItem, Count: s.Count}
}
