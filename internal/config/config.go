package config

import (
	"fmt"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/TheMichaelB/tomb/internal/crypto"
	"github.com/TheMichaelB/tomb/internal/storage"
)

// Default file locations. Each one can be overridden by its TOMB_* variable.
const (
	DefaultKeyPath    = "~/.tomb.key"
	DefaultTombPath   = "~/.tomb.yaml"
	DefaultConfigPath = "~/.tombconfig"
)

// UIColors lists the accent colors accepted for ui_color.
var UIColors = []interface{}{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}

// Config holds all application configuration.
type Config struct {
	// File locations
	KeyFilename  string `yaml:"key_filename" mapstructure:"key_filename"`
	TombFilename string `yaml:"tomb_filename" mapstructure:"tomb_filename"`

	// Accent color for the shell and CLI output
	UIColor string `yaml:"ui_color" mapstructure:"ui_color"`

	// Password sources. The password itself is never written back to disk.
	Password       string `yaml:"-" mapstructure:"password"`
	PasswordSecret string `yaml:"password_secret,omitempty" mapstructure:"password_secret"`

	// Key derivation cycles used by init and by password based keys
	Cycles crypto.CyclesConfig `yaml:"cycles" mapstructure:"cycles"`

	// Logging
	Log LogConfig `yaml:"log" mapstructure:"log"`

	// Version of tomb that last wrote the file
	Version string `yaml:"version,omitempty" mapstructure:"version"`

	// ConfigFilename is where the config was loaded from and where Save writes.
	ConfigFilename string `yaml:"-" mapstructure:"-"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
	File   string `yaml:"file,omitempty" mapstructure:"file"`
	Color  bool   `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		KeyFilename:    DefaultKeyPath,
		TombFilename:   DefaultTombPath,
		UIColor:        "cyan",
		Cycles:         crypto.Builtin(nil).Cycles,
		ConfigFilename: DefaultConfigPath,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Color:  true,
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.KeyFilename, validation.Required),
		validation.Field(&c.TombFilename, validation.Required),
		validation.Field(&c.UIColor, validation.Required, validation.In(UIColors...)),
	); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := validation.ValidateStruct(&c.Cycles,
		validation.Field(&c.Cycles.Key, validation.Required),
		validation.Field(&c.Cycles.Salt, validation.Required),
		validation.Field(&c.Cycles.IV, validation.Required),
	); err != nil {
		return fmt.Errorf("cycles: %w", err)
	}
	return nil
}

// Validate validates the logging configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.Required, validation.In("text", "json")),
	)
}

// CryptoConfig returns the key derivation config for this application config.
func (c *Config) CryptoConfig() crypto.Config {
	keyPath := c.KeyFilename
	cfg := crypto.Builtin(&keyPath)
	cfg.Cycles = c.Cycles
	return cfg
}

// Save writes the config to ConfigFilename and returns the path written.
func (c *Config) Save() (string, error) {
	path := c.ConfigFilename
	if path == "" {
		path = DefaultConfigPath
	}
	written, err := storage.Export(path, c)
	if err != nil {
		return "", fmt.Errorf("save config: %w", err)
	}
	return written, nil
}

// EnsureDirectories creates the parent directories of the configured files.
func (c *Config) EnsureDirectories() error {
	files := []string{c.KeyFilename, c.TombFilename}
	if c.Log.File != "" {
		files = append(files, c.Log.File)
	}

	for _, file := range files {
		dir := filepath.Dir(storage.ExpandPath(file))
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
