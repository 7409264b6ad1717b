// Package config handles engine configuration loading and management.
package config

// Config holds all engine settings.
type Config struct {
	Playback PlaybackConfig `yaml:"playback"`
	Assets   AssetsConfig   `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PlaybackConfig holds animation playback settings.
type PlaybackConfig struct {
	// FixedTimestep is the simulation step in seconds used when no frame
	// clock is available (headless playback, tools).
	FixedTimestep float32 `yaml:"fixed_timestep"`
	// DefaultBlendTime is the cross-fade duration in seconds used when a
	// caller does not specify one.
	DefaultBlendTime float32 `yaml:"default_blend_time"`
	// DefaultLoop controls whether newly set animations loop.
	DefaultLoop bool `yaml:"default_loop"`
}

// AssetsConfig holds model asset settings.
type AssetsConfig struct {
	// ModelPaths are directories searched for .gltf/.glb files.
	ModelPaths []string `yaml:"model_paths"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Playback: PlaybackConfig{
			FixedTimestep:    1.0 / 60.0,
			DefaultBlendTime: 0.25,
			DefaultLoop:      true,
		},
		Assets: AssetsConfig{
			ModelPaths: []string{"assets/models"},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
