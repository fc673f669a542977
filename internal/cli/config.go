package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/schemalab/circuitlay/pkg/pipeline"
)

// Config holds user defaults loaded from the config file. Every field is
// optional; zero values defer to the pipeline defaults. Command-line
// flags override config values.
type Config struct {
	Canvas struct {
		Width  float64 `toml:"width"`
		Height float64 `toml:"height"`
	} `toml:"canvas"`

	Layout struct {
		Clearance       float64 `toml:"clearance"`
		Margin          float64 `toml:"margin"`
		ChipMargin      float64 `toml:"chip_margin"`
		MaxAttempts     int     `toml:"max_attempts"`
		SpiralStep      float64 `toml:"spiral_step"`
		SpiralSamples   int     `toml:"spiral_samples"`
		MaxRadiusFactor float64 `toml:"max_radius_factor"`
	} `toml:"layout"`

	Render struct {
		Scale  float64 `toml:"scale"`
		Labels bool    `toml:"labels"`
		BBoxes bool    `toml:"bboxes"`
	} `toml:"render"`
}

// configPath returns the config file path using XDG standard
// (~/.config/circuitlay/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadConfigOrDefault reads the user config file. A missing file yields
// an empty config; a malformed file is reported and skipped so the CLI
// stays usable.
func loadConfigOrDefault(logger *log.Logger) *Config {
	cfg := &Config{}
	path, err := configPath()
	if err != nil {
		return cfg
	}
	if err := loadConfig(path, cfg); err != nil {
		logger.Warn("ignoring config file", "path", path, "error", err)
		return &Config{}
	}
	return cfg
}

func loadConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return toml.Unmarshal(data, cfg)
}

// Apply copies configured values onto pipeline options. Only non-zero
// config values are applied.
func (c *Config) Apply(opts *pipeline.Options) {
	if c == nil {
		return
	}
	opts.CanvasWidth = c.Canvas.Width
	opts.CanvasHeight = c.Canvas.Height
	opts.Clearance = c.Layout.Clearance
	opts.Margin = c.Layout.Margin
	opts.ChipMargin = c.Layout.ChipMargin
	opts.MaxAttempts = c.Layout.MaxAttempts
	opts.SpiralStep = c.Layout.SpiralStep
	opts.SpiralSamples = c.Layout.SpiralSamples
	opts.MaxRadiusFactor = c.Layout.MaxRadiusFactor
	opts.Scale = c.Render.Scale
	opts.Labels = c.Render.Labels
	opts.BBoxes = c.Render.BBoxes
}
