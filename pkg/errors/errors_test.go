package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrawlerErrorMessage(t *testing.T) {
	err := NewBrowser("https://www.lge.co.kr/x", "navigate failed", errors.New("timeout"))
	assert.Equal(t, "[browser] https://www.lge.co.kr/x: navigate failed - timeout", err.Error())

	err = NewValidation("T873MEE111", "no reviews")
	assert.Equal(t, "[validation] T873MEE111: no reviews", err.Error())
}

func TestCrawlerErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("export: %w", NewExport("reviews_all_3.zip", "write failed", cause))

	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsType(err, ErrorTypeExport))
	assert.False(t, IsType(err, ErrorTypeCache))
	assert.False(t, IsType(cause, ErrorTypeExport))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, NewNetwork("a", "b", nil).IsRetryable())
	assert.True(t, NewBrowser("a", "b", nil).IsRetryable())
	assert.False(t, NewParsing("a", "b", nil).IsRetryable())
	assert.False(t, NewPublisher("a", "b", nil).IsRetryable())
	assert.False(t, NewConfiguration("b", nil).IsRetryable())
}

func TestRetryable(t *testing.T) {
	wrapped := fmt.Errorf("round 1: %w", NewBrowser("page", "navigate", nil))
	assert.True(t, Retryable(wrapped))
	assert.False(t, Retryable(NewExport("a.zip", "write", nil)))
	assert.False(t, Retryable(fmt.Errorf("plain")))
}
