package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFields_Redacts(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter(Config{Level: "debug", Format: "json"}, &buf)

	sid := "abcdefghijklmnopqrstuvwxyz0123456789ABCDEFG"
	SessionFields(log.Info(), "admin", sid).Msg("session started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "admin", entry["username"])
	assert.Equal(t, "abcdefgh", entry["session"])
	assert.NotContains(t, buf.String(), sid)
}

func TestNewLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	SetupWithWriter(Config{Level: "info"}, &buf)

	logger := NewLogger("session_registry")
	logger.Info().Msg("hello")
	logger.Debug().Msg("hidden")

	assert.Contains(t, buf.String(), `"component":"session_registry"`)
	assert.NotContains(t, buf.String(), "hidden")
}

func TestRedact_Short(t *testing.T) {
	assert.Equal(t, "", Redact(""))
	assert.Equal(t, "abc", Redact("abc"))
}
