package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	logger.Info("Checkpoint saved",
		"file", "ccr_final.xlsx",
		"rows", 15,
		"elapsed", 90*time.Second,
		"error", errors.New("boom"),
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Checkpoint saved", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "ccr_final.xlsx", entry["file"])
	assert.EqualValues(t, 15, entry["rows"])
	assert.Equal(t, "1m30s", entry["elapsed"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown")
}

func TestLoggerOddFields(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "debug").Debug("odd", "page")

	assert.Contains(t, buf.String(), `"page":"(MISSING)"`)
}
