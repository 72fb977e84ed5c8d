package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestInitialize_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Format: "json", Output: &buf})

	Info("user signed up", Fields{"user_id": 7})
	Error("store failed", errors.New("boom"), Fields{"email": "a@x.com"})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "user signed up", entries[0]["message"])
	assert.EqualValues(t, 7, entries[0]["user_id"])
	assert.Contains(t, entries[0]["caller"], "logger_test.go")

	assert.Equal(t, "error", entries[1]["level"])
	assert.Equal(t, "boom", entries[1]["error"])
	assert.Equal(t, "a@x.com", entries[1]["email"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "warn", Format: "json", Output: &buf})
	defer Initialize(Config{Level: "debug", Format: "json", Output: &bytes.Buffer{}})

	Debug("hidden")
	Info("hidden too")
	Warn("visible")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "visible", entries[0]["message"])
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Format: "json", Output: &buf})

	reqLog := WithContext(Fields{"request_id": "abc"})
	reqLog.Debug("handled")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0]["request_id"])
	assert.Contains(t, entries[0]["caller"], "logger_test.go")
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "debug",
		"INFO":    "info",
		"warn":    "warn",
		"error":   "error",
		"fatal":   "fatal",
		"unknown": "info",
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in).String(), in)
	}
}
