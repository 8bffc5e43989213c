package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithLevel_WritesJSONWithServiceAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithLevel("portal-test", "debug", &buf)

	log.Info("session created", map[string]interface{}{"session_id": "abc"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "portal-test", entry["service"])
	assert.Equal(t, "session created", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "abc", entry["session_id"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestNewWithLevel_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithLevel("portal-test", "warn", &buf)

	log.Debug("hidden", nil)
	log.Info("hidden", nil)
	assert.Zero(t, buf.Len())

	log.Warn("shown", nil)
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWithLevel_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithLevel("portal-test", "loud", &buf)

	log.Debug("hidden", nil)
	assert.Zero(t, buf.Len())
	log.Info("shown", nil)
	assert.Contains(t, buf.String(), "shown")
}
