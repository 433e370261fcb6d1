package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-overlay/common"
	"github.com/Carmen-Shannon/oxy-overlay/engine/oneoff"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings of an overlay host.
// Values are resolved in order: DefaultConfig, then the YAML file, then environment variables.
type Config struct {
	// Name names the one-off component; its graph is called "<Name> - Graph".
	Name string `yaml:"name" env:"OXY_OVERLAY_NAME"`

	// Curves lists the property names sampled every frame.
	Curves []string `yaml:"curves" env:"OXY_OVERLAY_CURVES" envSeparator:","`

	// FadeIn and FadeOut are the crossfade windows as fractions of the overlay clip, each in (0, 1].
	FadeIn  float32 `yaml:"fade_in" env:"OXY_OVERLAY_FADE_IN"`
	FadeOut float32 `yaml:"fade_out" env:"OXY_OVERLAY_FADE_OUT"`

	// SamplerWorkers is the size of the curve sampler's worker pool; 0 samples on the tick goroutine.
	SamplerWorkers int `yaml:"sampler_workers" env:"OXY_OVERLAY_SAMPLER_WORKERS"`

	// BatchSize is the number of properties per sampler task.
	BatchSize int `yaml:"batch_size" env:"OXY_OVERLAY_BATCH_SIZE"`

	// TickRate is the host's target ticks per second.
	TickRate int `yaml:"tick_rate" env:"OXY_OVERLAY_TICK_RATE"`

	// Profiling enables the periodic profiler log.
	Profiling bool `yaml:"profiling" env:"OXY_OVERLAY_PROFILING"`

	// Logging enables overlay event logging.
	Logging bool `yaml:"logging" env:"OXY_OVERLAY_LOGGING"`

	// LibraryPath points at the clip library YAML; empty uses the built-in library.
	LibraryPath string `yaml:"library" env:"OXY_OVERLAY_LIBRARY"`

	// MetricsAddr is the listen address of the /metrics endpoint; empty disables it.
	MetricsAddr string `yaml:"metrics_addr" env:"OXY_OVERLAY_METRICS_ADDR"`
}

// DefaultConfig returns the built-in settings.
//
// Returns:
//   - Config: the default configuration
func DefaultConfig() Config {
	return Config{
		Name:      "OneOff",
		Curves:    []string{"FootHeight", "Grip"},
		FadeIn:    oneoff.DefaultFade,
		FadeOut:   oneoff.DefaultFade,
		BatchSize: 64,
		TickRate:  60,
	}
}

// Load resolves the configuration from defaults, the YAML file at path and the environment.
// A missing file, or an empty path, leaves the defaults in place.
//
// Parameters:
//   - path: the YAML file path, may be empty
//
// Returns:
//   - Config: the resolved configuration
//   - error: an error if the file cannot be parsed, the environment is malformed, or validation fails
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := readYAML(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Name = common.Coalesce(cfg.Name, DefaultConfig().Name)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// readYAML decodes the file at path over target. A missing file is not an error.
func readYAML(path string, target any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(b, target)
}

// Validate checks that every setting is in range.
//
// Returns:
//   - error: a description of the first invalid setting
func (c Config) Validate() error {
	switch {
	case len(c.Curves) == 0:
		return errors.New("config: no curves")
	case c.FadeIn <= 0 || c.FadeIn > 1:
		return fmt.Errorf("config: fade_in %v outside (0, 1]", c.FadeIn)
	case c.FadeOut <= 0 || c.FadeOut > 1:
		return fmt.Errorf("config: fade_out %v outside (0, 1]", c.FadeOut)
	case c.SamplerWorkers < 0:
		return fmt.Errorf("config: sampler_workers %d is negative", c.SamplerWorkers)
	case c.BatchSize < 0:
		return fmt.Errorf("config: batch_size %d is negative", c.BatchSize)
	case c.TickRate <= 0:
		return fmt.Errorf("config: tick_rate %d must be positive", c.TickRate)
	}
	return nil
}

// OneOffOptions translates the settings into one-off builder options.
// The worker pool is supplied by the caller because its lifetime belongs to the host.
//
// Returns:
//   - []oneoff.OneOffBuilderOption: the options for oneoff.Initialize
func (c Config) OneOffOptions() []oneoff.OneOffBuilderOption {
	return []oneoff.OneOffBuilderOption{
		oneoff.WithName(c.Name),
		oneoff.WithFadeIn(c.FadeIn),
		oneoff.WithFadeOut(c.FadeOut),
		oneoff.WithLogging(c.Logging),
	}
}
