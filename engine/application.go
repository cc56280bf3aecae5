package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/glitch/engine/core"
)

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// Window starting position x axis, if applicable.
	StartPosX int32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY int32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth int32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight int32 `toml:"start_height"`
	// One of debug, info, warn, error, fatal.
	LogLevel string `toml:"log_level"`
	// Wait for the display refresh before presenting.
	VSync bool `toml:"vsync"`
	// Frames per second the loop sleeps down to. Zero does not limit.
	TargetFPS int `toml:"target_fps"`
	// The directory holding the shader sources.
	AssetsDir string `toml:"assets_dir"`
	// Recompile shaders when their sources change on disk.
	HotReload  bool       `toml:"hot_reload"`
	ClearColor [4]float32 `toml:"clear_color"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:        "GLitch",
		StartPosX:   100,
		StartPosY:   100,
		StartWidth:  1280,
		StartHeight: 720,
		LogLevel:    "info",
		VSync:       true,
		AssetsDir:   "assets",
		ClearColor:  [4]float32{0, 0, 0, 1},
	}
}

/**
 * @brief Reads the application config from a TOML file. Keys missing from the
 * file keep their default value.
 * @param path The file to read. A missing file yields the defaults.
 */
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		core.LogInfo("no config at `%s`, using the defaults", path)
		return config, nil
	}
	if err != nil {
		return nil, err
	}

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(config); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s: %s", core.ErrInvalidConfig, path, strict.String())
		}
		return nil, fmt.Errorf("%w: %s: %s", core.ErrInvalidConfig, path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Validate checks the values a window and a logger can be created with.
func (c *ApplicationConfig) Validate() error {
	if c.StartWidth <= 0 || c.StartHeight <= 0 {
		return fmt.Errorf("%w: window size %dx%d", core.ErrInvalidConfig, c.StartWidth, c.StartHeight)
	}
	if c.TargetFPS < 0 {
		return fmt.Errorf("%w: target fps %d", core.ErrInvalidConfig, c.TargetFPS)
	}
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %s", core.ErrInvalidConfig, err)
	}
	return nil
}
