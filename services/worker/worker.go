package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"
	"time"

	"sjsage522/reviewworker/helpers"
	"sjsage522/reviewworker/internal/crawler"
	"sjsage522/reviewworker/internal/review"
	crawlerrors "sjsage522/reviewworker/pkg/errors"
	"sjsage522/reviewworker/services/cache"
	"sjsage522/reviewworker/services/publisher"
)

// Exporter writes the export files of a collection
type Exporter interface {
	ExportReviews(ctx context.Context, reviews []review.Review) (string, error)
	ExportSummary(ctx context.Context, summary review.Summary) (string, error)
	ExportWorkbook(ctx context.Context, summary review.Summary, reviews []review.Review) (string, error)
}

// Options select what a round produces
type Options struct {
	// CrawlInterval between rounds. Zero runs a single round.
	CrawlInterval time.Duration
	// Archive writes the per-review ZIP
	Archive bool
	// Summary writes the summary text file
	Summary bool
	// Retries of a fetch that failed with a retryable error
	Retries    int
	RetryDelay time.Duration
}

// Report describes what happened to one crawler in a round
type Report struct {
	Crawler string
	Model   string
	Reviews int
	Files   []string
	Skipped bool
	Err     error
}

// Worker handles the crawling, exporting and publishing process
type Worker struct {
	crawlers  []crawler.Crawler
	exporter  Exporter
	publisher publisher.Publisher
	guard     *cache.ExportGuard
	logger    helpers.LoggerInterface
	opts      Options
}

// NewWorker creates a new worker
func NewWorker(
	crawlers []crawler.Crawler,
	exporter Exporter,
	pub publisher.Publisher,
	guard *cache.ExportGuard,
	logger helpers.LoggerInterface,
	opts Options,
) *Worker {
	if pub == nil {
		pub = publisher.NopPublisher{}
	}
	if guard == nil {
		guard = cache.NewExportGuard(nil, 0)
	}
	return &Worker{
		crawlers:  crawlers,
		exporter:  exporter,
		publisher: pub,
		guard:     guard,
		logger:    logger,
		opts:      opts,
	}
}

// Start runs crawl rounds until ctx is done. With a zero interval it runs a
// single round and returns the joined crawler errors.
func (w *Worker) Start(ctx context.Context) error {
	for {
		start := time.Now()
		reports := w.RunOnce(ctx)
		if os.Getenv("REVIEW_ENVIRONMENT") != "production" {
			w.logger.LogInfo("크롤링 소요 시간: %s", time.Since(start))
		}

		if w.opts.CrawlInterval <= 0 {
			var errs []error
			for _, r := range reports {
				if r.Err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", r.Crawler, r.Err))
				}
			}
			return errors.Join(errs...)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.opts.CrawlInterval):
		}
	}
}

// RunOnce runs all the crawlers in parallel and then trims the streams
func (w *Worker) RunOnce(ctx context.Context) []Report {
	reports := make([]Report, len(w.crawlers))
	var wg sync.WaitGroup
	for i, c := range w.crawlers {
		wg.Add(1)
		go func(i int, c crawler.Crawler) {
			defer wg.Done()
			reports[i] = w.crawlAndExport(ctx, c)
		}(i, c)
	}
	wg.Wait()

	// Trim all streams after crawling
	if err := w.publisher.TrimStreams(); err != nil {
		w.logger.LogError("StreamTrimming", err)
	}
	return reports
}

// crawlAndExport crawls one product page, exports and publishes its reviews
func (w *Worker) crawlAndExport(ctx context.Context, c crawler.Crawler) Report {
	crawlerName := c.GetName()
	if crawlerName == "" {
		crawlerName = reflect.TypeOf(c).Elem().Name()
	}
	report := Report{Crawler: crawlerName}

	held, err := w.guard.Held(crawlerName)
	if err != nil {
		// A broken cache should not stop the export
		w.logger.LogError(crawlerName, err)
	}
	if held {
		w.logger.LogInfo("%s: 최근에 내보낸 상품, 건너뜀", crawlerName)
		report.Skipped = true
		return report
	}

	collection, err := w.fetch(ctx, c, crawlerName)
	if err != nil {
		w.logger.LogError(crawlerName, err)
		report.Err = err
		// Partial results are still exported while the context is alive
		if collection == nil || ctx.Err() != nil {
			return report
		}
	}

	report.Model = collection.ModelKey()
	report.Reviews = len(collection.Reviews)

	if err := w.export(ctx, collection, &report); err != nil {
		w.logger.LogError(crawlerName, err)
		report.Err = errors.Join(report.Err, err)
		return report
	}

	w.publish(collection, crawlerName)

	if report.Err == nil {
		if err := w.guard.Hold(crawlerName, report.Reviews); err != nil {
			w.logger.LogError(crawlerName, err)
		}
	}
	return report
}

// fetch runs the crawler, retrying retryable failures that produced nothing
func (w *Worker) fetch(ctx context.Context, c crawler.Crawler, crawlerName string) (*crawler.Collection, error) {
	for attempt := 0; ; attempt++ {
		collection, err := c.FetchReviews(ctx)
		if err == nil || collection != nil || attempt >= w.opts.Retries || !crawlerrors.Retryable(err) {
			return collection, err
		}
		w.logger.LogInfo("%s: 재시도 %d/%d (%v)", crawlerName, attempt+1, w.opts.Retries, err)
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(w.opts.RetryDelay):
		}
	}
}

func (w *Worker) export(ctx context.Context, collection *crawler.Collection, report *Report) error {
	if w.opts.Archive {
		name, err := w.exporter.ExportReviews(ctx, collection.Reviews)
		if err != nil {
			return err
		}
		report.Files = append(report.Files, name)
	}

	if w.opts.Summary {
		name, err := w.exporter.ExportSummary(ctx, collection.Summary)
		if err != nil {
			return err
		}
		report.Files = append(report.Files, name)
	}

	name, err := w.exporter.ExportWorkbook(ctx, collection.Summary, collection.Reviews)
	if err != nil {
		return err
	}
	if name != "" {
		report.Files = append(report.Files, name)
	}
	return nil
}

// publish sends every review as JSON under the model key
func (w *Worker) publish(collection *crawler.Collection, crawlerName string) {
	key := collection.ModelKey()
	if key == "" {
		key = crawlerName
	}

	for i, r := range collection.Reviews {
		reviewData, err := json.Marshal(r)
		if err != nil {
			w.logger.LogError(crawlerName, err)
			return
		}

		if err := w.publisher.Publish(key, reviewData); err != nil {
			w.logger.LogError(crawlerName, err)
			return
		}

		if i == 0 {
			w.logFirstReview(r, crawlerName)
		}
	}
}

// logFirstReview logs the first review of each product outside production
func (w *Worker) logFirstReview(r review.Review, crawlerName string) {
	if os.Getenv("REVIEW_ENVIRONMENT") == "production" {
		return
	}
	loggable := r
	if n := len(loggable.ImageURLs) + len(loggable.VideoURLs); n > 0 {
		loggable.ImageURLs = []string{fmt.Sprintf("%d media", n)}
		loggable.VideoURLs = nil
	}
	data, err := json.Marshal(loggable)
	if err != nil {
		w.logger.LogError(crawlerName, err)
		return
	}
	w.logger.LogInfo("크롤링 데이터: %s", string(data))
}
