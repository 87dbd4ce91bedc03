package crawler

import (
	"context"
	"io"

	"sjsage522/reviewworker/helpers"
	"sjsage522/reviewworker/internal/loader"
	"sjsage522/reviewworker/logger"
	crawlerrors "sjsage522/reviewworker/pkg/errors"
)

// Fetcher returns the body of a page
type Fetcher func(ctx context.Context, url string) (io.Reader, error)

// StaticSummaryCrawler reads the product page over plain HTTP. It does not
// paginate, so only the reviews rendered server-side are collected.
type StaticSummaryCrawler struct {
	BaseCrawler
	fetch Fetcher
	log   *logger.Logger
}

// NewStaticSummaryCrawler creates a crawler that fetches with browser-like
// headers
func NewStaticSummaryCrawler(config CrawlerConfig) *StaticSummaryCrawler {
	return NewStaticSummaryCrawlerWithFetcher(config, helpers.FetchWithRandomHeaders)
}

// NewStaticSummaryCrawlerWithFetcher creates a crawler using fetch
func NewStaticSummaryCrawlerWithFetcher(config CrawlerConfig, fetch Fetcher) *StaticSummaryCrawler {
	base := newBaseCrawler(config)
	return &StaticSummaryCrawler{
		BaseCrawler: base,
		fetch:       fetch,
		log:         logger.ForCrawler(base.GetName()),
	}
}

// FetchReviews fetches the page once and extracts the summary and the
// reviews present in the markup
func (c *StaticSummaryCrawler) FetchReviews(ctx context.Context) (*Collection, error) {
	reader, err := c.fetch(ctx, c.URL)
	if err != nil {
		return nil, crawlerrors.NewNetwork(c.URL, "failed to fetch page", err)
	}

	doc, err := c.createDocument(reader)
	if err != nil {
		return nil, err
	}

	collection := &Collection{
		URL:     c.URL,
		Summary: c.extractor.ExtractSummary(doc),
		Reviews: c.extractor.ExtractReviews(doc),
	}
	c.log.Debug().
		Str("model", collection.Summary.ModelName).
		Int("reviews", len(collection.Reviews)).
		Int("total", loader.ParseTargetCount(c.extractor.CountLabel(doc))).
		Msg("Static page parsed")
	return collection, nil
}
