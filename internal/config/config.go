// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package config loads the settings that steer platform
// selection: which window system backend to use, where
// the Vulkan loader lives, how the application identifies
// itself and whether debug output is on.
//
// Settings come from three layers, each overriding the
// previous one: defaults, an optional TOML or YAML file,
// and NGL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/gviegas/ngl/internal/debug"
)

// Config is the effective configuration.
type Config struct {
	// Backend names the window system backend.
	// "auto" (or empty) lets the selector decide.
	Backend string `toml:"backend" yaml:"backend"`

	// VulkanLibrary is tried before the platform's
	// conventional library names.
	VulkanLibrary string `toml:"vulkan_library" yaml:"vulkan_library"`

	// AppName identifies the application to the window
	// system (app_id, WM_CLASS, window class).
	AppName string `toml:"app_name" yaml:"app_name"`

	// Debug enables debug logging on stderr.
	Debug bool `toml:"debug" yaml:"debug"`

	// File is the configuration file that was read, if any.
	File string `toml:"-" yaml:"-"`
}

// Environment variables.
const (
	EnvConfig        = "NGL_CONFIG"
	EnvBackend       = "NGL_BACKEND"
	EnvVulkanLibrary = "NGL_VULKAN_LIBRARY"
	EnvAppName       = "NGL_APP_NAME"
	EnvDebug         = "NGL_DEBUG"
)

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Backend: "auto",
		AppName: "ngl",
	}
}

var (
	loadMu sync.Mutex
	loaded *Config
)

// Load returns the process configuration.
// The first successful call reads the file and the
// environment, and its result is kept for the lifetime of
// the process. Errors are not kept: a later call reads
// again.
func Load() (Config, error) {
	loadMu.Lock()
	defer loadMu.Unlock()
	if loaded != nil {
		return *loaded, nil
	}
	cfg, err := LoadFrom("", os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	if cfg.Debug {
		debug.Enable(os.Stderr)
	}
	if cfg.File != "" {
		debug.Printf("config: read %s", cfg.File)
	}
	loaded = &cfg
	return cfg, nil
}

// LoadFrom builds a Config from the file at path and the
// environment as seen through lookup.
// If path is empty, $NGL_CONFIG is used, and failing that,
// the first of config.toml, config.yaml and config.yml found
// in the ngl configuration directory. A missing default file
// is not an error; a missing explicit file is.
func LoadFrom(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		if s, ok := lookup(EnvConfig); ok && s != "" {
			path = s
			explicit = true
		}
	}
	if !explicit {
		path = findDefault(lookup)
	}
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
		cfg.File = path
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.Backend == "" {
		cfg.Backend = "auto"
	}
	return cfg, nil
}

// Dir returns the ngl configuration directory, following
// XDG_CONFIG_HOME with a fallback to $HOME/.config, or
// %APPDATA% when neither is set.
func Dir(lookup func(string) (string, bool)) string {
	if s, ok := lookup("XDG_CONFIG_HOME"); ok && s != "" {
		return filepath.Join(s, "ngl")
	}
	if s, ok := lookup("HOME"); ok && s != "" {
		return filepath.Join(s, ".config", "ngl")
	}
	if s, ok := lookup("APPDATA"); ok && s != "" {
		return filepath.Join(s, "ngl")
	}
	return ""
}

func findDefault(lookup func(string) (string, bool)) string {
	dir := Dir(lookup)
	if dir == "" {
		return ""
	}
	for _, name := range [...]string{"config.toml", "config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// ErrFormat means that the file extension names no
// supported format.
var ErrFormat = errors.New("config: unsupported file format")

func decodeFile(path string, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return fmt.Errorf("config: %s: %w", path, err)
		}
		if keys := md.Undecoded(); len(keys) > 0 {
			return fmt.Errorf("config: %s: unknown key %q", path, keys[0].String())
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return fmt.Errorf("config: %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrFormat, ext)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if s, ok := lookup(EnvBackend); ok && s != "" {
		cfg.Backend = s
	}
	if s, ok := lookup(EnvVulkanLibrary); ok && s != "" {
		cfg.VulkanLibrary = s
	}
	if s, ok := lookup(EnvAppName); ok && s != "" {
		cfg.AppName = s
	}
	if s, ok := lookup(EnvDebug); ok && s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvDebug, err)
		}
		cfg.Debug = b
	}
	return nil
}
