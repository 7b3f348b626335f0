// Package config loads server settings from an INI file layered over the
// built-in defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/ini.v1"
)

//go:embed default.ini
var defaultConfig []byte

// ErrInvalidConfig is returned for settings the server cannot run with.
var ErrInvalidConfig = errors.New("invalid config")

type Server struct {
	SSHAddr  string `ini:"ssh_addr"`
	HostKey  string `ini:"host_key"`
	HTTPAddr string `ini:"http_addr"`
	TickRate int    `ini:"tick_rate"`
}

type Assets struct {
	MapsDir    string `ini:"maps_dir"`
	SheetsDir  string `ini:"sheets_dir"`
	DefaultMap string `ini:"default_map"`
}

type Reconcile struct {
	SnapFactor float64 `ini:"snap_factor"`
}

type Log struct {
	Level string `ini:"level"`
}

// Config is the full server configuration.
type Config struct {
	Server    Server    `ini:"server"`
	Assets    Assets    `ini:"assets"`
	Reconcile Reconcile `ini:"reconcile"`
	Log       Log       `ini:"log"`
}

// Load reads the defaults, then path if it exists, then the environment.
// An empty path loads the defaults only.
func Load(path string) (*Config, error) {
	options := ini.LoadOptions{
		SkipUnrecognizableLines: true,
		KeyValueDelimiters:      "=",
	}

	sources := []any{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			sources = append(sources, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	f, err := ini.LoadSources(options, defaultConfig, sources...)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := f.MapTo(&c); err != nil {
		return nil, fmt.Errorf("map config: %w", err)
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.SSHAddr = ":" + port
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.Server.TickRate <= 0 {
		return fmt.Errorf("%w: tick_rate %d", ErrInvalidConfig, c.Server.TickRate)
	}
	if c.Reconcile.SnapFactor <= 0 {
		return fmt.Errorf("%w: snap_factor %v", ErrInvalidConfig, c.Reconcile.SnapFactor)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SlogLevel parses the configured level name.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}
