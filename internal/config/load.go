package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/gary-dev/gary-install/internal/messages"
)

// Environment overrides applied after the config file.
const (
	EnvURL         = "GARY_INSTALL_URL"
	EnvMirrorURL   = "GARY_INSTALL_MIRROR"
	EnvInstallDir  = "GARY_INSTALL_DIR"
	EnvLauncherDir = "GARY_BIN_DIR"
)

// ErrConfigValidation wraps validation failures so callers can tell them
// apart from filesystem and TOML syntax errors.
var ErrConfigValidation = errors.New("config validation failed")

// LoadOptions controls Load.
type LoadOptions struct {
	// Path is the config file. Empty means DefaultPath().
	Path string
	// Explicit makes a missing Path an error instead of falling back to defaults.
	Explicit bool
	GOOS     string
	Getenv   func(string) string
}

// DefaultPath returns the config file location under XDG_CONFIG_HOME.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "gary-install", "config.toml")
}

// Load builds the effective configuration: defaults for the current home
// directory, then the TOML file, then environment overrides.
func Load(opts LoadOptions) (Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return Config{}, fmt.Errorf(messages.ConfigResolveHomeFmt, err)
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	path := opts.Path
	if path == "" {
		path = DefaultPath()
	}

	cfg := Defaults(opts.GOOS, home)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeInto(&cfg, data, path); err != nil {
			return Config{}, err
		}
	case errors.Is(err, os.ErrNotExist) && !opts.Explicit:
	default:
		return Config{}, fmt.Errorf(messages.ConfigReadFileFmt, path, err)
	}

	applyEnv(&cfg, getenv)
	if err := cfg.expandPaths(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(path); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	if err := checkInstallDir(path, cfg.Install.Dir, "home directory", home); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	return cfg, nil
}

// decodeInto overlays TOML data onto cfg. Keys absent from data keep their
// current values; unknown keys are rejected.
func decodeInto(cfg *Config, data []byte, source string) error {
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf(messages.ConfigInvalidFileFmt, source, err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvURL)); v != "" {
		cfg.Source.URL = v
	}
	if v := strings.TrimSpace(getenv(EnvMirrorURL)); v != "" {
		cfg.Source.MirrorURL = v
	}
	if v := strings.TrimSpace(getenv(EnvInstallDir)); v != "" {
		cfg.Install.Dir = v
	}
	if v := strings.TrimSpace(getenv(EnvLauncherDir)); v != "" {
		cfg.Launcher.Dir = v
	}
}

func (c *Config) expandPaths() error {
	var err error
	if c.Install.Dir, err = expand(c.Install.Dir); err != nil {
		return err
	}
	if c.Launcher.Dir, err = expand(c.Launcher.Dir); err != nil {
		return err
	}
	for i, rc := range c.Shell.RCFiles {
		if c.Shell.RCFiles[i], err = expand(rc); err != nil {
			return err
		}
	}
	return nil
}

func expand(path string) (string, error) {
	expanded, err := homedir.Expand(strings.TrimSpace(path))
	if err != nil {
		return "", fmt.Errorf(messages.ConfigExpandPathFmt, path, err)
	}
	return expanded, nil
}
