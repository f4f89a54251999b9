package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"informeclaro/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("bogus"))
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info")

	log.Debug("hidden")
	log.WithField("session_id", "abc").Info("stage completed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stage completed", entry["msg"])
	assert.Equal(t, "abc", entry["session_id"])
	assert.Equal(t, "info", entry["level"])
	assert.NotEmpty(t, entry["ts"])
}

func TestNewWritesActivityFile(t *testing.T) {
	dir := t.TempDir()
	log, closer := New(config.LogConfig{Level: "info", MaxSizeMB: 1, MaxBackups: 1}, dir)

	log.Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, ActivityFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
