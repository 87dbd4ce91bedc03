package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/reviewworker/config"
	"sjsage522/reviewworker/helpers"
	"sjsage522/reviewworker/internal/browser"
	"sjsage522/reviewworker/internal/crawler"
	"sjsage522/reviewworker/internal/loader"
	"sjsage522/reviewworker/logger"
	"sjsage522/reviewworker/services/cache"
	"sjsage522/reviewworker/services/publisher"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	// Set up context cancelled by shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ExecuteContext(ctx)
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Logger    *helpers.Logger
	browser   *browser.Browser
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.browser != nil {
		s.browser.Close()
	}
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices initializes the cache and the publisher. Missing
// addresses fall back to no-op implementations.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	log := logger.Default
	services := &Services{
		Cache:     cache.NopCache{},
		Publisher: publisher.NopPublisher{},
		Logger:    helpers.NewLogger(cfg.ErrorLogFile),
	}

	if cfg.MemcacheAddr != "" {
		memcacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcacheService.Ping(); err != nil {
			log.Warn().Err(err).Msg("Memcache unavailable, export guard disabled")
		} else {
			services.Cache = memcacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, reviews will not be published")
			redisPublisher.Close()
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return services
}

// Browser starts Chrome on first use
func (s *Services) Browser(ctx context.Context, cfg *config.Config) (*browser.Browser, error) {
	if s.browser != nil {
		return s.browser, nil
	}
	b, err := browser.NewBrowser(ctx, browser.Options{
		RemoteURL: cfg.ChromeRemoteURL,
		Headless:  cfg.Headless,
	})
	if err != nil {
		return nil, err
	}
	s.browser = b
	return b, nil
}

// crawlerConfig builds the crawler configuration for one product page
func crawlerConfig(cfg *config.Config, url string, skipLoading bool) crawler.CrawlerConfig {
	opts := loader.DefaultOptions()
	opts.MaxRetries = cfg.LoaderMaxRetries
	opts.MaxConsecutiveFailures = cfg.LoaderMaxConsecutiveFailures
	opts.AttemptCap = cfg.LoaderAttemptCap
	opts.ClickDelay = cfg.LoaderClickDelay

	return crawler.CrawlerConfig{
		URL: url,
		Selectors: crawler.Selectors{
			ReviewItem: cfg.ReviewItemSelector,
			MoreButton: cfg.ReviewMoreSelector,
			Count:      cfg.ReviewCountSelector,
		},
		MediaBaseURL: cfg.MediaBaseURL,
		Loader:       opts,
		PageTimeout:  cfg.PageTimeout,
		SkipLoading:  skipLoading,
	}
}
