package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false, false)
	logger.Debug("hidden")
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")

	verbose := New(&buf, true, false)
	assert.Equal(t, log.DebugLevel, verbose.GetLevel())
}

func TestNew_TextFields(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true, false).WithFields(log.Fields{"mode": "production"}).Debug("resolved")

	assert.Contains(t, buf.String(), "level=debug")
	assert.Contains(t, buf.String(), `msg=resolved`)
	assert.Contains(t, buf.String(), "mode=production")
	assert.NotContains(t, buf.String(), "time=")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false, true).WithField("schema", "envschema.yaml").Warn("loaded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "loaded", entry["msg"])
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "envschema.yaml", entry["schema"])
}
