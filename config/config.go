package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Target product pages
	ProductURLs []string
	OutputDir   string

	// Browser configuration
	ChromeRemoteURL string
	Headless        bool
	PageTimeout     time.Duration

	// Review page selectors
	ReviewItemSelector  string
	ReviewMoreSelector  string
	ReviewCountSelector string
	MediaBaseURL        string

	// Pagination loader tuning
	LoaderMaxRetries             int
	LoaderMaxConsecutiveFailures int
	LoaderAttemptCap             int
	LoaderClickDelay             time.Duration

	// Export configuration
	ExportXLSX      bool
	ExportBlockTime time.Duration

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Worker configuration
	CrawlInterval time.Duration
	ErrorLogFile  string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))
	crawlInterval, _ := strconv.Atoi(getEnv("CRAWL_INTERVAL_SECONDS", "0"))
	pageTimeout, _ := strconv.Atoi(getEnv("PAGE_TIMEOUT_SECONDS", "600"))
	maxRetries, _ := strconv.Atoi(getEnv("LOADER_MAX_RETRIES", "5"))
	maxFailures, _ := strconv.Atoi(getEnv("LOADER_MAX_CONSECUTIVE_FAILURES", "3"))
	attemptCap, _ := strconv.Atoi(getEnv("LOADER_ATTEMPT_CAP", "100"))
	clickDelay, _ := strconv.Atoi(getEnv("LOADER_CLICK_DELAY_MS", "2000"))
	blockTime, _ := strconv.Atoi(getEnv("EXPORT_BLOCK_SECONDS", "3600"))

	return &Config{
		ProductURLs:                  splitList(getEnv("PRODUCT_URLS", "")),
		OutputDir:                    getEnv("OUTPUT_DIR", "./output"),
		ChromeRemoteURL:              getEnv("CHROME_REMOTE_URL", ""),
		Headless:                     getBool("CHROME_HEADLESS", true),
		PageTimeout:                  time.Duration(pageTimeout) * time.Second,
		ReviewItemSelector:           getEnv("REVIEW_ITEM_SELECTOR", "#divReviewList li[data-review-id]"),
		ReviewMoreSelector:           getEnv("REVIEW_MORE_SELECTOR", "#reviewMoreBtn"),
		ReviewCountSelector:          getEnv("REVIEW_COUNT_SELECTOR", "#reviewCount"),
		MediaBaseURL:                 getEnv("MEDIA_BASE_URL", "https://www.lge.co.kr"),
		LoaderMaxRetries:             maxRetries,
		LoaderMaxConsecutiveFailures: maxFailures,
		LoaderAttemptCap:             attemptCap,
		LoaderClickDelay:             time.Duration(clickDelay) * time.Millisecond,
		ExportXLSX:                   getBool("EXPORT_XLSX", false),
		ExportBlockTime:              time.Duration(blockTime) * time.Second,
		RedisAddr:                    getEnv("REDIS_ADDR", ""),
		RedisDB:                      redisDB,
		RedisStream:                  getEnv("REDIS_STREAM", "reviews"),
		RedisStreamCount:             streamCount,
		RedisStreamMaxLength:         streamMaxLength,
		MemcacheAddr:                 getEnv("MEMCACHE_ADDR", ""),
		CrawlInterval:                time.Duration(crawlInterval) * time.Second,
		ErrorLogFile:                 getEnv("ERROR_LOG_FILE", "error.log"),
		Environment:                  getEnv("REVIEW_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the crawler cannot run with
func (c *Config) Validate() error {
	for _, raw := range c.ProductURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid product url %q", raw)
		}
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}
	if c.ReviewItemSelector == "" || c.ReviewMoreSelector == "" || c.ReviewCountSelector == "" {
		return fmt.Errorf("review selectors must not be empty")
	}
	if c.LoaderMaxRetries < 1 {
		return fmt.Errorf("LOADER_MAX_RETRIES must be positive, got %d", c.LoaderMaxRetries)
	}
	if c.LoaderMaxConsecutiveFailures < 0 {
		return fmt.Errorf("LOADER_MAX_CONSECUTIVE_FAILURES must not be negative, got %d", c.LoaderMaxConsecutiveFailures)
	}
	if c.LoaderAttemptCap < 1 {
		return fmt.Errorf("LOADER_ATTEMPT_CAP must be positive, got %d", c.LoaderAttemptCap)
	}
	if c.LoaderClickDelay < 0 {
		return fmt.Errorf("LOADER_CLICK_DELAY_MS must not be negative")
	}
	if c.RedisAddr != "" && c.RedisStreamCount < 1 {
		return fmt.Errorf("REDIS_STREAM_COUNT must be positive, got %d", c.RedisStreamCount)
	}
	if c.CrawlInterval < 0 {
		return fmt.Errorf("CRAWL_INTERVAL_SECONDS must not be negative")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

// splitList splits a comma separated list, dropping blanks
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
