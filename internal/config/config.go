// Package config handles tool configuration loading and management.
package config

// Config holds all settings.
type Config struct {
	Textures TexturesConfig `yaml:"textures"`
	Scene    SceneConfig    `yaml:"scene"`
	Export   ExportConfig   `yaml:"export"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TexturesConfig holds texture source settings.
type TexturesConfig struct {
	Root         string   `yaml:"root"`          // Folder whose subfolders are texture sources
	Extensions   []string `yaml:"extensions"`    // Allowed image extensions, case-insensitive
	SinglePrefix string   `yaml:"single_prefix"` // Name prefix marking single-strategy materials
	Multiple     string   `yaml:"multiple"`      // Fixed folder for the multi-material button
	Single       string   `yaml:"single"`        // Fixed folder for the single-material button
}

// SceneConfig holds scene file settings.
type SceneConfig struct {
	Path string `yaml:"path"`
}

// ExportConfig holds GLB export settings.
type ExportConfig struct {
	Dir           string `yaml:"dir"`
	FileName      string `yaml:"file_name"`
	MaterialScope string `yaml:"material_scope"` // "selection-only" or "all"
	Generator     string `yaml:"generator"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Textures: TexturesConfig{
			Root:         "textures",
			Extensions:   []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".tif"},
			SinglePrefix: "__SINGLE__",
			Multiple:     "textures/multiple",
			Single:       "textures/single",
		},
		Scene: SceneConfig{
			Path: "scene.db",
		},
		Export: ExportConfig{
			Dir:           "textures",
			FileName:      "export.glb",
			MaterialScope: "selection-only",
			Generator:     "matbind",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
