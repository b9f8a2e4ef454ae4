// Package config loads a server's on-disk configuration via viper,
// matching the sibling repos in this stack that reach for viper + YAML
// instead of hand-rolling a flag/file parser.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of a content server's configuration.
type FileConfig struct {
	ServerID        uint8  `mapstructure:"server_id" yaml:"server_id"`
	FileDirectory   string `mapstructure:"file_directory" yaml:"file_directory"`
	MediaDirectory  string `mapstructure:"media_directory" yaml:"media_directory"`
	ServerType      string `mapstructure:"server_type" yaml:"server_type"` // "text" | "media"
	Debug           bool   `mapstructure:"debug" yaml:"debug"`
	FloodCooldownMS int    `mapstructure:"flood_cooldown_ms" yaml:"flood_cooldown_ms"`
}

// Load reads and decodes the YAML config file at path.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("flood_cooldown_ms", 1000)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg FileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %q: %w", path, err)
	}
	return &cfg, nil
}

// Default returns a minimal, valid starting configuration for a text
// server rooted at dir.
func Default(serverID uint8, dir string) FileConfig {
	return FileConfig{
		ServerID:        serverID,
		FileDirectory:   dir,
		ServerType:      "text",
		FloodCooldownMS: 1000,
	}
}

// Save writes cfg to path as YAML, for bootstrapping a fresh deployment.
func (c FileConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %q: %w", path, err)
	}
	return nil
}
