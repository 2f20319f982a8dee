package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Project contains settings describing the on-disk project format.
type Project struct {
	// Manifest is the manifest file name under the project root.
	Manifest string `toml:"manifest"`
}

// Engine contains settings for layout rewrites.
type Engine struct {
	// Workers bounds how many layouts a project-wide conversion rewrites at
	// once. 1 processes layouts sequentially.
	Workers int `toml:"workers"`

	// Lock enables advisory per-layout locks around load/mutate/write.
	Lock bool `toml:"lock"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Bundle contains configuration for project bundle import.
type Bundle struct {
	// CacheDir is where bundles are extracted; empty uses Paths.Bundles.
	CacheDir string `toml:"cache_dir"`
}

// Config encapsulates all configuration values for c3crawl.
type Config struct {
	Project Project `toml:"project"`
	Engine  Engine  `toml:"engine"`
	Logging Logging `toml:"logging"`
	Bundle  Bundle  `toml:"bundle"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Project: Project{Manifest: "project.caproj"},
		Engine:  Engine{Workers: 1, Lock: true},
		Logging: Logging{Level: "info", Format: "console"},
	}
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the resolved path and whether that file existed. A missing file
// is not an error; defaults are used.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = os.Getenv("C3CRAWL_CONFIG")
	}
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := ExpandPath("~/.config/c3crawl/config.toml")
	if err != nil {
		return "", false, err
	}
	localPath, err := filepath.Abs("c3crawl.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(localPath); err == nil && !info.IsDir() {
		return localPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	c.Project.Manifest = strings.TrimSpace(c.Project.Manifest)
	if c.Engine.Workers < 1 {
		c.Engine.Workers = 1
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	if c.Bundle.CacheDir != "" {
		expanded, err := ExpandPath(c.Bundle.CacheDir)
		if err != nil {
			return fmt.Errorf("bundle.cache_dir: %w", err)
		}
		c.Bundle.CacheDir = expanded
	}
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Project.Manifest == "" {
		return errors.New("project.manifest must be set")
	}
	if strings.ContainsAny(c.Project.Manifest, `/\`) {
		return fmt.Errorf("project.manifest must be a file name, got %q", c.Project.Manifest)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// ExpandPath expands a leading ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
