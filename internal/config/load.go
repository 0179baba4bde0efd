package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidMaterialScope is returned for an unknown export.material_scope.
var ErrInvalidMaterialScope = errors.New("invalid material scope")

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over standard locations
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./matbind.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Matbind")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Matbind")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "matbind")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "matbind")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize lower-cases extensions, ensures a leading dot and validates enums.
func (c *Config) normalize() error {
	exts := make([]string, 0, len(c.Textures.Extensions))
	for _, ext := range c.Textures.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Textures.Extensions = exts

	switch c.Export.MaterialScope {
	case "", "selection-only":
		c.Export.MaterialScope = "selection-only"
	case "all":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMaterialScope, c.Export.MaterialScope)
	}
	return nil
}

// ExportPath returns the default GLB output path.
func (c *Config) ExportPath() string {
	return filepath.Join(c.Export.Dir, c.Export.FileName)
}
