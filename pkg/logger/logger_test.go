package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFieldsAndCaller(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Format: "json", Output: &buf})

	Info("cart saved", map[string]interface{}{"user_id": "u-1", "version": 3})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "cart saved", entry["message"])
	assert.Equal(t, "u-1", entry["user_id"])
	assert.EqualValues(t, 3, entry["version"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestLogger_ErrorAndContext(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "info", Format: "json", Output: &buf})

	WithContext(map[string]interface{}{"request_id": "r-9"}).
		Error("gateway call failed", errors.New("timeout"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "timeout", entry["error"])
	assert.Equal(t, "r-9", entry["request_id"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "warn", Format: "json", Output: &buf})

	Debug("dropped")
	Info("dropped")
	assert.Empty(t, buf.String())

	Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
