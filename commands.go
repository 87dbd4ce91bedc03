package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"sjsage522/reviewworker/config"
	"sjsage522/reviewworker/internal/crawler"
	"sjsage522/reviewworker/internal/export"
	"sjsage522/reviewworker/logger"
	crawlerrors "sjsage522/reviewworker/pkg/errors"
	"sjsage522/reviewworker/services/cache"
	"sjsage522/reviewworker/services/worker"

	"github.com/spf13/cobra"
)

// defaultWatchInterval is used by watch when CRAWL_INTERVAL_SECONDS is unset
const defaultWatchInterval = time.Hour

var (
	flagURLs   []string
	flagOutput string
	flagXLSX   bool
	flagStatic bool
)

var rootCmd = &cobra.Command{
	Use:           "reviewworker",
	Short:         "reviewworker loads every review of an LG product page and exports them.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var reviewsCmd = &cobra.Command{
	Use:   "reviews [--url <product page>]... [--output <dir>]",
	Short: "Loads all reviews through the load-more button and writes reviews_all_<n>.zip.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd.Context(), args, worker.Options{Archive: true, Retries: 1, RetryDelay: 5 * time.Second}, false)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary [--url <product page>]... [--static]",
	Short: "Writes the review summary text file of each product page.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd.Context(), args, worker.Options{Summary: true, Retries: 1, RetryDelay: 5 * time.Second}, true)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [--url <product page>]...",
	Short: "Exports and publishes reviews of every product page on an interval.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}
		interval := cfg.CrawlInterval
		if interval <= 0 {
			interval = defaultWatchInterval
		}
		return run(cmd.Context(), cfg, worker.Options{
			CrawlInterval: interval,
			Archive:       true,
			Summary:       true,
		}, false)
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&flagURLs, "url", nil, "Product page URL (repeatable, overrides PRODUCT_URLS)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output directory (overrides OUTPUT_DIR)")
	rootCmd.PersistentFlags().BoolVar(&flagXLSX, "xlsx", false, "Also write an XLSX workbook")
	summaryCmd.Flags().BoolVar(&flagStatic, "static", false, "Fetch the page over HTTP instead of a browser")

	rootCmd.AddCommand(reviewsCmd, summaryCmd, watchCmd)
}

// ExecuteContext runs the CLI and exits non-zero on failure
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the command line overrides.
// Positional arguments are product URLs too.
func loadConfig(args []string) (*config.Config, error) {
	cfg := config.LoadConfig()
	if urls := append(append([]string{}, flagURLs...), args...); len(urls) > 0 {
		cfg.ProductURLs = urls
	}
	if flagOutput != "" {
		cfg.OutputDir = flagOutput
	}
	if flagXLSX {
		cfg.ExportXLSX = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, crawlerrors.NewConfiguration("invalid configuration", err)
	}
	if len(cfg.ProductURLs) == 0 {
		return nil, crawlerrors.NewValidation("PRODUCT_URLS", "no product url given, use --url or PRODUCT_URLS")
	}
	return cfg, nil
}

func runOnce(ctx context.Context, args []string, opts worker.Options, summaryOnly bool) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	return run(ctx, cfg, opts, summaryOnly)
}

// run builds the crawlers and services and starts the worker
func run(ctx context.Context, cfg *config.Config, opts worker.Options, summaryOnly bool) error {
	log := logger.ForWorker()
	log.Info().
		Str("environment", cfg.Environment).
		Strs("urls", cfg.ProductURLs).
		Str("output", cfg.OutputDir).
		Dur("crawl_interval", opts.CrawlInterval).
		Msg("Starting application")

	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	crawlers, err := createCrawlers(ctx, cfg, services, summaryOnly)
	if err != nil {
		return err
	}

	exporter := export.NewExporter(export.NewDirSink(cfg.OutputDir), cfg.ExportXLSX)
	var guard *cache.ExportGuard
	if opts.CrawlInterval > 0 {
		guard = cache.NewExportGuard(services.Cache, cfg.ExportBlockTime)
	}

	w := worker.NewWorker(crawlers, exporter, services.Publisher, guard, services.Logger, opts)
	err = w.Start(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("Shutting down gracefully...")
		return nil
	}
	return err
}

// createCrawlers creates one crawler per product page. Summary-only runs do
// not paginate; --static skips the browser entirely.
func createCrawlers(ctx context.Context, cfg *config.Config, services *Services, summaryOnly bool) ([]crawler.Crawler, error) {
	crawlers := make([]crawler.Crawler, 0, len(cfg.ProductURLs))

	if summaryOnly && flagStatic {
		for _, url := range cfg.ProductURLs {
			crawlers = append(crawlers, crawler.NewStaticSummaryCrawler(crawlerConfig(cfg, url, true)))
		}
		return crawlers, nil
	}

	b, err := services.Browser(ctx, cfg)
	if err != nil {
		return nil, crawlerrors.NewBrowser("chrome", "failed to start browser", err)
	}
	opener := crawler.BrowserOpener{Browser: b}
	for _, url := range cfg.ProductURLs {
		crawlers = append(crawlers, crawler.NewReviewCrawler(crawlerConfig(cfg, url, summaryOnly), opener))
	}
	return crawlers, nil
}
