package cache

import (
	"errors"
	"strconv"
	"time"

	"sjsage522/reviewworker/logger"
)

// ErrCacheMiss is returned by Get when the key is absent
var ErrCacheMiss = errors.New("cache: miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// NopCache never stores anything. It is used when no memcache server is
// configured, so every export runs.
type NopCache struct{}

func (NopCache) Get(key string) ([]byte, error) { return nil, ErrCacheMiss }

func (NopCache) Set(key string, value []byte, expiration time.Duration) error { return nil }

func (NopCache) Delete(key string) error { return nil }

// ExportGuard remembers recently exported products so a watch loop does not
// export the same product again inside the block time
type ExportGuard struct {
	cache     CacheService
	blockTime time.Duration
}

// NewExportGuard creates a guard. A zero block time disables it.
func NewExportGuard(c CacheService, blockTime time.Duration) *ExportGuard {
	if c == nil {
		c = NopCache{}
	}
	return &ExportGuard{cache: c, blockTime: blockTime}
}

// Key returns the cache key for a product
func (g *ExportGuard) Key(model string) string {
	return "review_export:" + model
}

// Held reports whether model was exported within the block time. Cache
// errors other than a miss are returned so the caller can log them.
func (g *ExportGuard) Held(model string) (bool, error) {
	if g.blockTime <= 0 || model == "" {
		return false, nil
	}
	stamp, err := g.cache.Get(g.Key(model))
	if err == nil {
		logger.ForCache().Debug().Str("model", model).Str("exported", string(stamp)).Msg("Export guard held")
		return true, nil
	}
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	return false, err
}

// Hold marks model as exported for the block time
func (g *ExportGuard) Hold(model string, reviewCount int) error {
	if g.blockTime <= 0 || model == "" {
		return nil
	}
	value := []byte(time.Now().UTC().Format(time.RFC3339) + " " + strconv.Itoa(reviewCount))
	return g.cache.Set(g.Key(model), value, g.blockTime)
}
