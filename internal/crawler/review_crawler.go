package crawler

import (
	"context"
	"fmt"
	"time"

	"sjsage522/reviewworker/internal/browser"
	"sjsage522/reviewworker/internal/loader"
	"sjsage522/reviewworker/logger"
	crawlerrors "sjsage522/reviewworker/pkg/errors"
)

// Page is a live product page the review crawler can paginate
type Page interface {
	loader.Document
	Navigate(ctx context.Context, url string) error
	CountLabel(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
}

// snapshotTimeout bounds reading the document once loading has stopped
const snapshotTimeout = 30 * time.Second

// PageOpener opens pages for the review crawler
type PageOpener interface {
	OpenPage(ctx context.Context, selectors Selectors) (Page, func(), error)
}

// BrowserOpener opens pages as chromedp tabs
type BrowserOpener struct {
	Browser *browser.Browser
}

// OpenPage opens a new tab. The returned func closes it.
func (o BrowserOpener) OpenPage(ctx context.Context, selectors Selectors) (Page, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	tab, cancel := o.Browser.NewTab(browser.Selectors{
		Item:  selectors.ReviewItem,
		More:  selectors.MoreButton,
		Count: selectors.Count,
	})
	return tab, cancel, nil
}

// ReviewCrawler loads every review of a product page through the load-more
// control and extracts them
type ReviewCrawler struct {
	BaseCrawler
	opener     PageOpener
	loaderOpts loader.Options
	extraOpts  []loader.Option
	timeout    time.Duration
	skipLoad   bool
	log        *logger.Logger
}

// NewReviewCrawler creates a review crawler. extra options are passed to the
// loader after the configured ones.
func NewReviewCrawler(config CrawlerConfig, opener PageOpener, extra ...loader.Option) *ReviewCrawler {
	base := newBaseCrawler(config)
	opts := config.Loader
	if opts == (loader.Options{}) {
		opts = loader.DefaultOptions()
	}
	return &ReviewCrawler{
		BaseCrawler: base,
		opener:      opener,
		loaderOpts:  opts,
		extraOpts:   extra,
		timeout:     config.PageTimeout,
		skipLoad:    config.SkipLoading,
		log:         logger.ForCrawler(base.GetName()),
	}
}

// FetchReviews loads all reviews and the summary. A partial collection is
// returned with the error when loading was interrupted.
func (c *ReviewCrawler) FetchReviews(ctx context.Context) (*Collection, error) {
	page, closePage, err := c.opener.OpenPage(ctx, c.Selectors)
	if err != nil {
		return nil, crawlerrors.NewBrowser(c.URL, "failed to open page", err)
	}
	defer closePage()

	loadCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := page.Navigate(loadCtx, c.URL); err != nil {
		return nil, crawlerrors.NewBrowser(c.URL, "failed to navigate", err)
	}

	var result *loader.Result
	var loadErr error
	if !c.skipLoad {
		result, loadErr = c.loadAll(loadCtx, page)
		if result == nil {
			return nil, loadErr
		}
	}

	// The snapshot is not bound to the load deadline or to cancellation, so
	// an interrupted load still returns whatever the page held
	snapshotCtx, cancelSnapshot := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancelSnapshot()
	html, err := page.HTML(snapshotCtx)
	if err != nil {
		if loadErr != nil {
			return nil, crawlerrors.NewBrowser(c.URL, "review loading failed", loadErr)
		}
		return nil, crawlerrors.NewBrowser(c.URL, "failed to snapshot page", err)
	}

	doc, err := c.parseHTML(html)
	if err != nil {
		return nil, err
	}

	collection := &Collection{
		URL:     c.URL,
		Summary: c.extractor.ExtractSummary(doc),
		Reviews: c.extractor.ExtractReviews(doc),
		Load:    result,
	}
	if len(collection.Reviews) == 0 {
		c.log.Warn().Msg("No reviews loaded")
	}

	if loadErr != nil {
		return collection, crawlerrors.NewBrowser(c.URL, fmt.Sprintf("review loading stopped after %d items", result.State.CurrentCount), loadErr)
	}
	return collection, nil
}

// loadAll reads the review counter and runs the loader against the page
func (c *ReviewCrawler) loadAll(ctx context.Context, page Page) (*loader.Result, error) {
	label, err := page.CountLabel(ctx)
	if err != nil {
		return nil, crawlerrors.NewBrowser(c.URL, "failed to read review count", err)
	}
	target := loader.ParseTargetCount(label)
	c.log.Info().Str("label", label).Int("target", target).Msg("Loading reviews")

	opts := append([]loader.Option{
		loader.WithOptions(c.loaderOpts),
		loader.WithLogger(logger.ForLoader(c.GetName())),
	}, c.extraOpts...)
	result, err := loader.New(page, opts...).Load(ctx, target)

	c.log.Info().
		Int("count", result.State.CurrentCount).
		Int("attempts", result.State.AttemptCount).
		Str("mode", string(result.Mode)).
		Str("reason", string(result.Reason)).
		Msg("Review loading finished")
	return &result, err
}
