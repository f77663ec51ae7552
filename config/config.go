// Package config loads notegraph settings from a TOML file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/TFMV/notegraph/physics"
)

// Config holds all notegraph configuration.
type Config struct {
	Physics  physics.Params `toml:"physics"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	View     ViewConfig     `toml:"view"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
	FPS  int    `toml:"fps"` // Simulation ticks per second while unsettled
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type ViewConfig struct {
	FPS      int    `toml:"fps"`
	Palette  string `toml:"palette"` // "default" or "dark"
	MaxTicks int    `toml:"max_ticks"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Physics: physics.DefaultParams(),
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37780,
			FPS:  60,
		},
		View: ViewConfig{
			FPS:      30,
			Palette:  "default",
			MaxTicks: 2000,
		},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default value. An empty path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values the rest of the program relies on.
func (c *Config) Validate() error {
	if err := c.Physics.Validate(); err != nil {
		return fmt.Errorf("physics: %w", err)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: port %d out of range", c.Server.Port)
	}
	if c.Server.FPS < 1 || c.View.FPS < 1 {
		return fmt.Errorf("fps must be at least 1")
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
