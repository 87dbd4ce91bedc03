package crawler

import (
	"io"
	"strings"

	"sjsage522/reviewworker/helpers"
	"sjsage522/reviewworker/internal/review"
	crawlerrors "sjsage522/reviewworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// BaseCrawler provides common functionality for all crawlers
type BaseCrawler struct {
	URL       string
	Selectors Selectors
	extractor *review.Extractor
}

func newBaseCrawler(config CrawlerConfig) BaseCrawler {
	return BaseCrawler{
		URL:       config.URL,
		Selectors: config.Selectors,
		extractor: review.NewExtractor(config.Selectors.review(), config.MediaBaseURL),
	}
}

// createDocument creates a goquery document from a reader
func (c *BaseCrawler) createDocument(reader io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, crawlerrors.NewParsing(c.URL, "HTML 파싱 오류", err)
	}
	return doc, nil
}

// parseHTML parses a page snapshot
func (c *BaseCrawler) parseHTML(html string) (*goquery.Document, error) {
	return c.createDocument(strings.NewReader(html))
}

// GetName returns the crawler's name for logging
func (c *BaseCrawler) GetName() string {
	return helpers.PageSlug(c.URL)
}

// GetProvider returns the page URL the crawler scrapes
func (c *BaseCrawler) GetProvider() string {
	return c.URL
}
