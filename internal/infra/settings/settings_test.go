package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := Defaults()
	assert.Equal(t, DefaultQueuePath, s.QueuePath)
	assert.Equal(t, DefaultRunPath, s.RunPath)
	assert.Equal(t, DefaultConfigPath, s.ConfigPath)
	assert.Empty(t, s.MetricsAddr)
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultQueuePath, s.QueuePath)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lmapd.yaml")
	doc := `
queue: /tmp/queue
run: /tmp/run
metrics_addr: "127.0.0.1:9209"
logger:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/queue", s.QueuePath)
	assert.Equal(t, "/tmp/run", s.RunPath)
	assert.Equal(t, DefaultConfigPath, s.ConfigPath, "unset keys keep defaults")
	assert.Equal(t, "127.0.0.1:9209", s.MetricsAddr)
	assert.Equal(t, "debug", s.Logger.Level)
	assert.Equal(t, "json", s.Logger.Format)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lmapd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queue: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("LMAPD_QUEUE", "/env/queue")
	t.Setenv("LMAPD_LOG_LEVEL", "warn")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/env/queue", s.QueuePath)
	assert.Equal(t, "warn", s.Logger.Level)
	assert.Equal(t, DefaultRunPath, s.RunPath)
}
