package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tftcrawler/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "crawl.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)

			if tt.cfg.File != "" {
				l.Info("written to file")
				data, err := os.ReadFile(tt.cfg.File)
				require.NoError(t, err)
				assert.Contains(t, string(data), "written to file")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "debug")
	require.NoError(t, err)

	l.WithField("phase", "expand").
		WithFields(map[string]interface{}{"identity": "p-1", "children": 3}).
		WithError(errors.New("boom")).
		Warn("child fetch degraded")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "child fetch degraded", entry["message"])
	assert.Equal(t, "expand", entry["phase"])
	assert.Equal(t, "p-1", entry["identity"])
	assert.Equal(t, float64(3), entry["children"])
	assert.Equal(t, "boom", entry["error"])
}

func TestWriterLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "warn")
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("hidden too")
	l.ErrorWithFields("visible", map[string]interface{}{
		"sleep": 2 * time.Second,
		"ids":   []string{"a", "b"},
	})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "visible", entries[0]["message"])
	assert.Equal(t, []interface{}{"a", "b"}, entries[0]["ids"])
}

func TestWithNilError(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "info")
	require.NoError(t, err)

	assert.Same(t, l, l.WithError(nil))
}

func TestTestLogger(t *testing.T) {
	l := NewTestLogger()

	l.Info("plain")
	derived := l.WithField("collection", "details").WithError(errors.New("disk"))
	derived.ErrorWithFields("save failed", map[string]interface{}{"records": 2})

	messages := l.GetMessages()
	require.Len(t, messages, 2)
	assert.True(t, l.HasMessage("save failed"))
	assert.True(t, l.HasError())

	saved := l.GetMessagesByLevel("ERROR")[0]
	assert.Equal(t, "details", saved.Fields["collection"])
	assert.Equal(t, 2, saved.Fields["records"])
	assert.EqualError(t, saved.Error, "disk")

	l.Clear()
	assert.Empty(t, l.GetMessages())
}

func TestHelpers(t *testing.T) {
	l := NewTestLogger()

	LogRequest(l, "GET", "https://example.test/a", 200, time.Millisecond)
	LogRequest(l, "GET", "https://example.test/b", 404, time.Millisecond)
	LogRequest(l, "GET", "https://example.test/c", 503, time.Millisecond)
	LogRateLimit(l, "per_second", 300*time.Millisecond)
	LogCrawlProgress(l, "expand", 1, 4)

	assert.Len(t, l.GetMessagesByLevel("WARN"), 1)
	assert.Len(t, l.GetMessagesByLevel("ERROR"), 1)
	assert.True(t, l.HasMessage("Rate limit reached, sleeping"))

	progress := l.GetMessagesByLevel("INFO")
	require.NotEmpty(t, progress)
	assert.Equal(t, "25.0%", progress[len(progress)-1].Fields["percentage"])
}
