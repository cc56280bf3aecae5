package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadApplicationConfig(t *testing.T) {
	path := writeConfig(t, `
name = "demo"
start_width = 800
start_height = 600
log_level = "debug"
hot_reload = true
clear_color = [0.1, 0.2, 0.3, 1.0]
`)
	config, err := LoadApplicationConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", config.Name)
	assert.Equal(t, int32(800), config.StartWidth)
	assert.Equal(t, int32(600), config.StartHeight)
	assert.Equal(t, "debug", config.LogLevel)
	assert.True(t, config.HotReload)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, config.ClearColor)

	// Keys missing from the file keep their default.
	defaults := DefaultApplicationConfig()
	assert.Equal(t, defaults.StartPosX, config.StartPosX)
	assert.Equal(t, defaults.VSync, config.VSync)
	assert.Equal(t, defaults.AssetsDir, config.AssetsDir)
}

func TestLoadApplicationConfigMissingFile(t *testing.T) {
	config, err := LoadApplicationConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultApplicationConfig(), config)
}

func TestLoadApplicationConfigRejectsInvalidFiles(t *testing.T) {
	cases := map[string]string{
		"unknown key":   `window_width = 800`,
		"bad syntax":    `name = `,
		"wrong type":    `start_width = "wide"`,
		"negative size": `start_width = -1`,
		"negative fps":  `target_fps = -30`,
		"bad log level": `log_level = "loud"`,
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadApplicationConfig(writeConfig(t, contents))
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrInvalidConfig), err.Error())
		})
	}
}

func TestDefaultApplicationConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultApplicationConfig().Validate())
}

func TestNewValidatesTheConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	config := DefaultApplicationConfig()
	config.StartWidth = 0
	_, err = New(&Game{ApplicationConfig: config})
	assert.True(t, errors.Is(err, core.ErrInvalidConfig))
}
