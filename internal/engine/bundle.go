package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/c3crawl/internal/bundle"
	"github.com/danieljhkim/c3crawl/internal/clock"
)

// OpenBundle extracts a bundle and locates the project inside it.
//
// Without an explicit DestDir the bundle lands in a fresh directory under the
// bundle cache named after the archive, replacing any previous extraction of
// the same name. An explicit DestDir is extracted into as is, keeping files
// that already exist.
func (e *Engine) OpenBundle(ctx context.Context, req *OpenBundleRequest) (*OpenBundleResult, error) {
	if req.ArchivePath == "" {
		return nil, fmt.Errorf("%w: bundle path is required", ErrValidation)
	}
	exists, err := e.fs.Exists(req.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat bundle: %v", ErrIO, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: bundle %s", ErrNotFound, req.ArchivePath)
	}

	dest := req.DestDir
	if dest == "" {
		name := strings.TrimSuffix(filepath.Base(req.ArchivePath), filepath.Ext(req.ArchivePath))
		if name == "" || name == "." || name == ".." {
			return nil, fmt.Errorf("%w: cannot derive a cache directory from %s, pass a destination", ErrValidation, filepath.Base(req.ArchivePath))
		}
		dest = filepath.Join(e.paths.Bundles, name)
		if err := e.fs.RemoveAll(dest); err != nil {
			return nil, fmt.Errorf("%w: failed to clear %s: %v", ErrIO, dest, err)
		}
	}

	stats, err := e.bundles.Extract(ctx, req.ArchivePath, dest, req.OnProgress)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	root, err := e.findProjectRoot(dest)
	if err != nil {
		return nil, err
	}

	e.logger.Info("bundle opened",
		"archive", req.ArchivePath,
		"project", root,
		"files", stats.Files,
		"skipped", stats.Skipped,
		"bytes", stats.Bytes,
	)
	return &OpenBundleResult{ProjectRoot: root, Stats: *stats}, nil
}

// findProjectRoot returns dir, or its single-level child, holding the
// manifest. Archives are commonly zipped with or without the top folder.
func (e *Engine) findProjectRoot(dir string) (string, error) {
	if ok, _ := e.fs.Exists(e.manifestPath(dir)); ok {
		return dir, nil
	}
	children, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %v", ErrIO, dir, err)
	}
	for _, child := range children {
		if !child.IsDir() {
			continue
		}
		candidate := filepath.Join(dir, child.Name())
		if ok, _ := e.fs.Exists(e.manifestPath(candidate)); ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no %s in bundle", ErrNotFound, e.cfg.Project.Manifest)
}

// ExportBundle packs a project directory into a bundle.
func (e *Engine) ExportBundle(ctx context.Context, req *ExportBundleRequest) (*ExportBundleResult, error) {
	if err := e.checkProjectRoot(req.ProjectRoot); err != nil {
		return nil, err
	}

	root := filepath.Clean(req.ProjectRoot)
	archive := req.ArchivePath
	if archive == "" {
		name := fmt.Sprintf("%s-%s%s", filepath.Base(root), clock.Stamp(e.clock), bundle.Ext)
		archive = filepath.Join(filepath.Dir(root), name)
	}

	stats, err := e.bundles.Create(ctx, root, archive, req.OnProgress)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	e.logger.Info("bundle exported",
		"project", root,
		"archive", archive,
		"files", stats.Files,
		"bytes", stats.Bytes,
	)
	return &ExportBundleResult{ArchivePath: archive, Stats: *stats}, nil
}
