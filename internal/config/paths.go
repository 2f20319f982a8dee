// Package config manages c3crawl configuration and filesystem paths.
//
// Configuration is read from a TOML file (see Load) and includes the
// locations of c3crawl data directories, which can be customized via
// environment variables. The default data root is ~/.c3crawl/ containing
// locks/ and bundles/.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the filesystem paths used by c3crawl.
type Paths struct {
	// Root is the base directory for all c3crawl data (default: ~/.c3crawl)
	Root string

	// Locks holds advisory per-layout lock files
	Locks string

	// Bundles is where opened project bundles are extracted
	Bundles string
}

// DefaultPaths returns the default paths for c3crawl.
// Paths can be overridden with environment variables:
// - C3CRAWL_ROOT: Override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("C3CRAWL_ROOT")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".c3crawl")
	}

	return &Paths{
		Root:    root,
		Locks:   filepath.Join(root, "locks"),
		Bundles: filepath.Join(root, "bundles"),
	}, nil
}

// WithBundleDir returns a copy of p whose Bundles directory is dir, or p
// unchanged when dir is empty.
func (p Paths) WithBundleDir(dir string) Paths {
	if dir != "" {
		p.Bundles = dir
	}
	return p
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.Locks,
		p.Bundles,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
