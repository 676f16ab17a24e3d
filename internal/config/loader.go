package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/TheMichaelB/tomb/internal/storage"
)

// Environment variables read by the loader.
const (
	EnvKey            = "TOMB_KEY"
	EnvFile           = "TOMB_FILE"
	EnvConfig         = "TOMB_CONFIG"
	EnvLog            = "TOMB_LOG"
	EnvLogLevel       = "TOMB_LOG_LEVEL"
	EnvPassword       = "TOMB_PASSWORD"
	EnvPasswordSecret = "TOMB_PASSWORD_SECRET"
)

var envBindings = map[string]string{
	"key_filename":    EnvKey,
	"tomb_filename":   EnvFile,
	"log.file":        EnvLog,
	"log.level":       EnvLogLevel,
	"password":        EnvPassword,
	"password_secret": EnvPasswordSecret,
}

// Loader handles configuration loading from multiple sources.
// Precedence: flags, environment, config file, defaults.
type Loader struct {
	configPath string
	v          *viper.Viper
}

// NewLoader creates a config loader. An empty configPath falls back to
// TOMB_CONFIG and then to ~/.tombconfig.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		v:          viper.New(),
	}
}

// BindFlag makes a command line flag override the config key.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: flag not defined", key)
	}
	if err := l.v.BindPFlag(key, flag); err != nil {
		return fmt.Errorf("bind %s: %w", key, err)
	}
	return nil
}

// Path returns the config file the loader reads.
func (l *Loader) Path() string {
	path := l.configPath
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path = DefaultConfigPath
	}
	return storage.ExpandPath(path)
}

// Load reads configuration from file and environment.
func (l *Loader) Load() (*Config, error) {
	l.setDefaults(DefaultConfig())

	for key, env := range envBindings {
		if err := l.v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	path := l.Path()
	if err := l.loadFile(path); err != nil {
		return nil, fmt.Errorf("load config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFilename = path
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFile reads the YAML config file. A missing file is not an error
// unless the path was given explicitly.
func (l *Loader) loadFile(path string) error {
	if !storage.Exists(path) {
		if l.configPath != "" {
			return fmt.Errorf("config file not found")
		}
		return nil
	}

	l.v.SetConfigFile(path)
	l.v.SetConfigType("yaml")
	if err := l.v.ReadInConfig(); err != nil {
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			return fmt.Errorf("parse YAML: %w", err)
		}
		return err
	}
	return nil
}

func (l *Loader) setDefaults(cfg *Config) {
	l.v.SetDefault("key_filename", cfg.KeyFilename)
	l.v.SetDefault("tomb_filename", cfg.TombFilename)
	l.v.SetDefault("ui_color", cfg.UIColor)
	l.v.SetDefault("password", "")
	l.v.SetDefault("password_secret", "")
	l.v.SetDefault("cycles.key", cfg.Cycles.Key)
	l.v.SetDefault("cycles.salt", cfg.Cycles.Salt)
	l.v.SetDefault("cycles.iv", cfg.Cycles.IV)
	l.v.SetDefault("log.level", cfg.Log.Level)
	l.v.SetDefault("log.format", cfg.Log.Format)
	l.v.SetDefault("log.file", cfg.Log.File)
	l.v.SetDefault("log.color", cfg.Log.Color)
	l.v.SetDefault("version", "")
}
