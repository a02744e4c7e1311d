package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enamlerrors "github.com/CrimsonAS/enaml/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "enaml.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
toolkit: WX
transport:
  kind: nats
  nats:
    url: nats://bus:4222
    timeout: 2s
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ToolkitWx, cfg.Toolkit)
	assert.Equal(t, TransportNATS, cfg.Transport.Kind)
	assert.Equal(t, "nats://bus:4222", cfg.Transport.NATS.URL)
	assert.Equal(t, 2*time.Second, cfg.Transport.NATS.Timeout)
	// Untouched nested defaults survive
	assert.Equal(t, "enaml.pipe", cfg.Transport.NATS.Subject)
	assert.Equal(t, NativeMemory, cfg.Native.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadParseError(t *testing.T) {
	path := writeConfig(t, "toolkit: [qt\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeConfigParse))
}

func TestValidateRejectsUnknown(t *testing.T) {
	cfg := Default()
	cfg.Toolkit = "gtk"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeConfigInvalid))

	cfg = Default()
	cfg.Native.Backend = NativeScene
	cfg.Native.QML = "main.qml"
	assert.Error(t, cfg.Validate(), "qmlscene needs the qt toolkit")

	cfg.Toolkit = ToolkitQt
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"ENAML_TOOLKIT":      "qt",
		"ENAML_TRANSPORT":    "queue",
		"ENAML_NATS_TIMEOUT": "7",
		"ENAML_LOG_LEVEL":    "warn",
	}
	cfg := Default()
	require.NoError(t, applyEnv(cfg, func(k string) string { return env[k] }))

	assert.Equal(t, ToolkitQt, cfg.Toolkit)
	assert.Equal(t, TransportQueue, cfg.Transport.Kind)
	assert.Equal(t, 7*time.Second, cfg.Transport.NATS.Timeout)
	assert.Equal(t, "warn", cfg.Logging.Level)

	env["ENAML_NATS_TIMEOUT"] = "soon"
	err := applyEnv(Default(), func(k string) string { return env[k] })
	assert.True(t, enamlerrors.IsCode(err, enamlerrors.ErrCodeConfigInvalid))
}
