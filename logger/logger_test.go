package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		env      string
		expected zerolog.Level
	}{
		{"explicit level", "warn", "", zerolog.WarnLevel},
		{"invalid level", "loud", "", zerolog.InfoLevel},
		{"production", "", "production", zerolog.InfoLevel},
		{"development", "", "development", zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.level)
			t.Setenv("REVIEW_ENVIRONMENT", tt.env)
			assert.Equal(t, tt.expected, getLogLevel())
		})
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{logger: zerolog.New(&buf)}

	l.WithFields(Fields{"component": "loader", "page": "t873mee111"}).
		Info().Err(errors.New("boom")).Msg("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "loader", line["component"])
	assert.Equal(t, "t873mee111", line["page"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "hello", line["message"])
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	prev := Default
	Default = &Logger{logger: zerolog.New(&buf)}
	t.Cleanup(func() { Default = prev })

	LogError("t873mee111", errors.New("navigate timeout"), "crawl failed after %d tries", 2)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "t873mee111", line["component"])
	assert.Equal(t, "navigate timeout", line["error"])
	assert.Equal(t, "crawl failed after 2 tries", line["message"])
}

func TestComponentLoggers(t *testing.T) {
	Init()
	assert.NotNil(t, ForCrawler("x"))
	assert.NotNil(t, ForLoader("x"))
	assert.NotNil(t, ForExporter())
	assert.NotNil(t, Nop())
}
