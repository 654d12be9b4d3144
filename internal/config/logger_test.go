package config

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := newLogger(LoggerConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("dropped")
	logger.Warn().Str("order_id", "abc").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "storefront", entry["app"])
	assert.Equal(t, "abc", entry["order_id"])
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := newLogger(LoggerConfig{Level: "verbose", Format: "console"}, &buf)

	logger.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Info().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}
