package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"sjsage522/reviewworker/helpers"
	"sjsage522/reviewworker/internal/crawler"
	"sjsage522/reviewworker/internal/export"
	"sjsage522/reviewworker/internal/review"
	crawlerrors "sjsage522/reviewworker/pkg/errors"
	"sjsage522/reviewworker/services/cache"
	"sjsage522/reviewworker/services/publisher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCrawler implements the crawler.Crawler interface for testing
type MockCrawler struct {
	mu         sync.Mutex
	name       string
	collection *crawler.Collection
	fetchErr   error
	calls      int
}

// Ensure MockCrawler implements crawler.Crawler
var _ crawler.Crawler = (*MockCrawler)(nil)

func (m *MockCrawler) FetchReviews(ctx context.Context) (*crawler.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.collection, m.fetchErr
}

func (m *MockCrawler) GetName() string {
	return m.name
}

func (m *MockCrawler) GetProvider() string {
	return "https://www.lge.co.kr/" + m.name
}

// MockPublisher implements the publisher.Publisher interface for testing
type MockPublisher struct {
	mu       sync.Mutex
	messages map[string][][]byte
	trimmed  int
	err      error
}

// Ensure MockPublisher implements publisher.Publisher
var _ publisher.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		messages: make(map[string][][]byte),
	}
}

func (m *MockPublisher) Publish(key string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	// Copy the message to ensure thread safety
	messageCopy := make([]byte, len(message))
	copy(messageCopy, message)

	m.messages[key] = append(m.messages[key], messageCopy)
	return nil
}

func (m *MockPublisher) TrimStreams() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimmed++
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// MockLogger implements the helpers.LoggerInterface for testing
type MockLogger struct {
	mu     sync.Mutex
	errors []string
	infos  []string
}

// Ensure MockLogger implements helpers.LoggerInterface
var _ helpers.LoggerInterface = (*MockLogger)(nil)

func NewMockLogger() *MockLogger {
	return &MockLogger{
		errors: make([]string, 0),
		infos:  make([]string, 0),
	}
}

func (m *MockLogger) LogError(crawlerName string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, crawlerName+": "+err.Error())
}

func (m *MockLogger) LogInfo(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}

// memorySink keeps exported files in memory
type memorySink struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemorySink() *memorySink {
	return &memorySink{files: map[string][]byte{}}
}

func (s *memorySink) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
	return nil
}

// mapCache is an in-memory cache.CacheService
type mapCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (m *mapCache) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m *mapCache) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *mapCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func sampleCollection(model string, n int) *crawler.Collection {
	c := &crawler.Collection{
		URL:     "https://www.lge.co.kr/" + model,
		Summary: review.Summary{ModelName: model, ReviewCount: fmt.Sprint(n), Score: "4.5"},
	}
	for i := 0; i < n; i++ {
		c.Reviews = append(c.Reviews, review.Review{
			ModelID:   model,
			ReviewID:  fmt.Sprintf("R%d", i),
			Message:   "좋아요",
			ImageURLs: []string{"https://www.lge.co.kr/kr/a.jpg"},
		})
	}
	return c
}

func allOutputs() Options {
	return Options{Archive: true, Summary: true}
}

// TestWorkerCrawlAndExport tests the crawlAndExport method
func TestWorkerCrawlAndExport(t *testing.T) {
	ctx := context.Background()
	mockLogger := NewMockLogger()
	mockPublisher := NewMockPublisher()
	sink := newMemorySink()

	mockCrawler := &MockCrawler{name: "t873mee111", collection: sampleCollection("T873MEE111", 3)}

	w := NewWorker(
		[]crawler.Crawler{mockCrawler},
		export.NewExporter(sink, true),
		mockPublisher,
		nil,
		mockLogger,
		allOutputs(),
	)

	report := w.crawlAndExport(ctx, mockCrawler)

	require.NoError(t, report.Err)
	assert.Equal(t, "T873MEE111", report.Model)
	assert.Equal(t, 3, report.Reviews)
	assert.Equal(t, []string{"reviews_all_3.zip", "T873MEE111.txt", "T873MEE111.xlsx"}, report.Files)
	assert.Len(t, sink.files, 3)

	// Every review is published under the model key
	require.Len(t, mockPublisher.messages["T873MEE111"], 3)
	var published review.Review
	require.NoError(t, json.Unmarshal(mockPublisher.messages["T873MEE111"][2], &published))
	assert.Equal(t, "R2", published.ReviewID)

	// Ensure no errors were logged
	assert.Empty(t, mockLogger.errors, "No errors should have been logged")
}

// TestWorkerWithError tests error handling in the worker
func TestWorkerWithError(t *testing.T) {
	ctx := context.Background()
	mockLogger := NewMockLogger()
	mockPublisher := NewMockPublisher()
	sink := newMemorySink()

	mockCrawler := &MockCrawler{name: "ErrorCrawler", fetchErr: errors.New("test error")}

	w := NewWorker(nil, export.NewExporter(sink, false), mockPublisher, nil, mockLogger, allOutputs())
	report := w.crawlAndExport(ctx, mockCrawler)

	// Verify that the error was logged
	require.NotEmpty(t, mockLogger.errors, "An error should have been logged")
	assert.Contains(t, mockLogger.errors[0], "ErrorCrawler", "Error should mention the crawler name")
	assert.Contains(t, mockLogger.errors[0], "test error", "Error should contain the error message")
	assert.Error(t, report.Err)

	// Verify that nothing was exported or published
	assert.Empty(t, sink.files)
	assert.Empty(t, mockPublisher.messages, "No messages should have been published")
}

func TestWorkerExportsPartialCollection(t *testing.T) {
	mockLogger := NewMockLogger()
	sink := newMemorySink()
	c := new(mapCache)
	c.items = map[string][]byte{}

	mockCrawler := &MockCrawler{
		name:       "partial",
		collection: sampleCollection("M1", 2),
		fetchErr:   errors.New("review loading stopped after 2 items"),
	}

	w := NewWorker(nil, export.NewExporter(sink, false), nil, cache.NewExportGuard(c, time.Hour), mockLogger, allOutputs())
	report := w.crawlAndExport(context.Background(), mockCrawler)

	assert.Error(t, report.Err)
	assert.Equal(t, 2, report.Reviews)
	assert.Contains(t, sink.files, "reviews_all_2.zip")
	// an incomplete export does not block the next round
	assert.Empty(t, c.items)
}

func TestWorkerSkipsRecentlyExported(t *testing.T) {
	mockLogger := NewMockLogger()
	sink := newMemorySink()
	c := new(mapCache)
	c.items = map[string][]byte{}
	guard := cache.NewExportGuard(c, time.Hour)

	mockCrawler := &MockCrawler{name: "t873mee111", collection: sampleCollection("T873MEE111", 1)}
	w := NewWorker([]crawler.Crawler{mockCrawler}, export.NewExporter(sink, false), nil, guard, mockLogger, allOutputs())

	first := w.RunOnce(context.Background())
	second := w.RunOnce(context.Background())

	assert.False(t, first[0].Skipped)
	assert.True(t, second[0].Skipped)
	assert.Equal(t, 1, mockCrawler.calls)
	assert.Contains(t, c.items, "review_export:t873mee111")
}

func TestWorkerSummaryOnly(t *testing.T) {
	sink := newMemorySink()
	mockCrawler := &MockCrawler{name: "m1", collection: sampleCollection("M1", 2)}

	w := NewWorker(nil, export.NewExporter(sink, false), nil, nil, NewMockLogger(), Options{Summary: true})
	report := w.crawlAndExport(context.Background(), mockCrawler)

	require.NoError(t, report.Err)
	assert.Equal(t, []string{"M1.txt"}, report.Files)
	assert.Equal(t, sampleCollection("M1", 2).Summary.Text(), string(sink.files["M1.txt"]))
}

func TestWorkerPublishError(t *testing.T) {
	mockLogger := NewMockLogger()
	mockPublisher := NewMockPublisher()
	mockPublisher.err = errors.New("redis down")

	mockCrawler := &MockCrawler{name: "m1", collection: sampleCollection("M1", 2)}
	w := NewWorker(nil, export.NewExporter(newMemorySink(), false), mockPublisher, nil, mockLogger, allOutputs())
	report := w.crawlAndExport(context.Background(), mockCrawler)

	// Publishing failures are logged once and do not fail the export
	require.NoError(t, report.Err)
	assert.Len(t, mockLogger.errors, 1)
	assert.Contains(t, mockLogger.errors[0], "redis down")
}

// TestWorkerRunOnce tests that all crawlers run and streams are trimmed
func TestWorkerRunOnce(t *testing.T) {
	mockLogger := NewMockLogger()
	mockPublisher := NewMockPublisher()
	sink := newMemorySink()

	crawler1 := &MockCrawler{name: "m1", collection: sampleCollection("M1", 1)}
	crawler2 := &MockCrawler{name: "m2", collection: sampleCollection("M2", 2)}

	w := NewWorker(
		[]crawler.Crawler{crawler1, crawler2},
		export.NewExporter(sink, false),
		mockPublisher,
		nil,
		mockLogger,
		Options{Summary: true},
	)

	reports := w.RunOnce(context.Background())

	require.Len(t, reports, 2)
	assert.Equal(t, "M1", reports[0].Model)
	assert.Equal(t, "M2", reports[1].Model)
	assert.Len(t, mockPublisher.messages["M1"], 1)
	assert.Len(t, mockPublisher.messages["M2"], 2)
	assert.Equal(t, 1, mockPublisher.trimmed)
	assert.Contains(t, sink.files, "M1.txt")
	assert.Contains(t, sink.files, "M2.txt")

	// Ensure no errors were logged
	assert.Empty(t, mockLogger.errors, "No errors should have been logged")
}

func TestWorkerStartOnce(t *testing.T) {
	good := &MockCrawler{name: "m1", collection: sampleCollection("M1", 1)}
	bad := &MockCrawler{name: "broken", fetchErr: errors.New("boom")}

	w := NewWorker([]crawler.Crawler{good, bad}, export.NewExporter(newMemorySink(), false), nil, nil, NewMockLogger(), Options{Summary: true})
	err := w.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: boom")
	assert.Equal(t, 1, good.calls)
}

func TestWorkerStartStopsOnCancel(t *testing.T) {
	mockCrawler := &MockCrawler{name: "m1", collection: sampleCollection("M1", 1)}
	w := NewWorker([]crawler.Crawler{mockCrawler}, export.NewExporter(newMemorySink(), false), nil, nil, NewMockLogger(),
		Options{CrawlInterval: 10 * time.Millisecond, Summary: true})

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	err := w.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	mockCrawler.mu.Lock()
	defer mockCrawler.mu.Unlock()
	assert.GreaterOrEqual(t, mockCrawler.calls, 2)
}

// flakyCrawler fails with a browser error before succeeding
type flakyCrawler struct {
	MockCrawler
	failures int
}

func (f *flakyCrawler) FetchReviews(ctx context.Context) (*crawler.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, crawlerrors.NewBrowser(f.name, "navigate", errors.New("net::ERR_TIMED_OUT"))
	}
	return f.collection, nil
}

func TestWorkerRetriesRetryableErrors(t *testing.T) {
	flaky := &flakyCrawler{MockCrawler: MockCrawler{name: "m1", collection: sampleCollection("M1", 1)}, failures: 1}
	mockLogger := NewMockLogger()

	w := NewWorker(nil, export.NewExporter(newMemorySink(), false), nil, nil, mockLogger,
		Options{Summary: true, Retries: 1, RetryDelay: time.Millisecond})
	report := w.crawlAndExport(context.Background(), flaky)

	require.NoError(t, report.Err)
	assert.Equal(t, 2, flaky.calls)
	assert.Empty(t, mockLogger.errors)
}

func TestWorkerDoesNotRetryOtherErrors(t *testing.T) {
	mockCrawler := &MockCrawler{name: "m1", fetchErr: crawlerrors.NewParsing("m1", "bad html", nil)}

	w := NewWorker(nil, export.NewExporter(newMemorySink(), false), nil, nil, NewMockLogger(),
		Options{Summary: true, Retries: 3, RetryDelay: time.Millisecond})
	report := w.crawlAndExport(context.Background(), mockCrawler)

	assert.Error(t, report.Err)
	assert.Equal(t, 1, mockCrawler.calls)
}
