// Package engine provides the core business logic for c3crawl operations.
//
// The engine package acts as the orchestration layer between CLI commands and
// lower-level operations. It resolves project and layout paths, reads the
// manifest, derives the template registry and applies replica conversions
// through the layout store.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - Layouts/BuildRegistry: Manifest listing and template discovery
//   - ListInstances: Flat instance summaries for one layout
//   - ConvertByUID/ConvertByType: Replica rewrites with per-file isolation
//   - OpenBundle/ExportBundle: Whole-project zip import and export
//
// Single-layout operations fail on missing or malformed input. Multi-layout
// operations turn per-file failures into Warnings and keep going; write
// failures are always returned as errors.
package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/danieljhkim/c3crawl/internal/bundle"
	"github.com/danieljhkim/c3crawl/internal/clock"
	"github.com/danieljhkim/c3crawl/internal/config"
	"github.com/danieljhkim/c3crawl/internal/fsops"
	"github.com/danieljhkim/c3crawl/internal/layout"
	"github.com/danieljhkim/c3crawl/internal/manifest"
)

// LayoutStore loads and persists whole layout documents.
type LayoutStore interface {
	Load(path string) (*layout.Document, error)
	Write(path string, doc *layout.Document) error
}

// Engine orchestrates all c3crawl operations.
// It is the main API surface called by the CLI.
type Engine struct {
	fs      fsops.FS
	layouts LayoutStore
	bundles bundle.Service
	logger  *slog.Logger
	clock   clock.Clock
	cfg     config.Config
	paths   config.Paths
}

// New creates a new Engine with the given dependencies.
func New(
	fs fsops.FS,
	layouts LayoutStore,
	bundles bundle.Service,
	logger *slog.Logger,
	clk clock.Clock,
	cfg config.Config,
	paths config.Paths,
) *Engine {
	return &Engine{
		fs:      fs,
		layouts: layouts,
		bundles: bundles,
		logger:  logger,
		clock:   clk,
		cfg:     cfg,
		paths:   paths,
	}
}

// checkProjectRoot verifies the project root is an existing directory.
func (e *Engine) checkProjectRoot(root string) error {
	if root == "" {
		return fmt.Errorf("%w: project root is required", ErrValidation)
	}
	info, err := e.fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: project root %s", ErrNotFound, root)
		}
		return fmt.Errorf("%w: failed to stat project root: %v", ErrIO, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: project root %s is not a directory", ErrValidation, root)
	}
	return nil
}

// manifestPath returns the manifest location for a project root.
func (e *Engine) manifestPath(root string) string {
	return filepath.Join(root, e.cfg.Project.Manifest)
}

// readManifest reads the project's layout entries.
func (e *Engine) readManifest(root string) ([]manifest.Entry, error) {
	entries, err := manifest.Read(e.manifestPath(root))
	if err != nil {
		return nil, classify(err)
	}
	return entries, nil
}

// resolveLayout maps a layout path onto the filesystem. Absolute paths are
// used as given; relative ones must stay inside root.
func (e *Engine) resolveLayout(root, layoutPath string) (string, error) {
	if filepath.IsAbs(layoutPath) {
		return filepath.Clean(layoutPath), nil
	}
	abs, err := fsops.ResolveUnder(root, layoutPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return abs, nil
}

// withLock runs fn while holding the per-path lock for path, when locking is
// enabled.
func (e *Engine) withLock(path string, fn func() error) error {
	if !e.cfg.Engine.Lock {
		return fn()
	}
	unlock, err := e.fs.Lock(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			e.logger.Warn("failed to release layout lock", "path", path, "error", err)
		}
	}()
	return fn()
}

// warn logs w and appends it to dst.
func (e *Engine) warn(dst *[]Warning, w Warning) {
	e.logger.Warn(w.Message, "kind", string(w.Kind), "path", w.Path)
	*dst = append(*dst, w)
}
