// Package config loads the takedeck configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Audio   AudioConfig   `mapstructure:"audio" yaml:"audio"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
}

type StorageConfig struct {
	// Directory holds the take assets and the catalog document.
	Directory string `mapstructure:"directory" yaml:"directory"`
}

type AudioConfig struct {
	SampleRate  int `mapstructure:"sample_rate" yaml:"sample_rate"`
	ChunkFrames int `mapstructure:"chunk_frames" yaml:"chunk_frames"`
}

type ServerConfig struct {
	Transport string `mapstructure:"transport" yaml:"transport"` // "http" or "stdio"
	Port      int    `mapstructure:"port" yaml:"port"`
}

// Load reads the config file at path, falling back to defaults when
// the file does not exist. Environment variables in the storage
// directory are expanded.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("storage.directory", "$HOME/.local/share/takedeck")
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.chunk_frames", 1024)
	v.SetDefault("server.transport", "http")
	v.SetDefault("server.port", 8000)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Storage.Directory = os.ExpandEnv(cfg.Storage.Directory)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Storage.Directory == "" {
		return fmt.Errorf("storage.directory must not be empty")
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.ChunkFrames <= 0 {
		return fmt.Errorf("audio.chunk_frames must be positive, got %d", c.Audio.ChunkFrames)
	}
	switch c.Server.Transport {
	case "http", "stdio":
	default:
		return fmt.Errorf("server.transport must be 'http' or 'stdio', got %q", c.Server.Transport)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	return nil
}
