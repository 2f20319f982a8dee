// Package fsops provides filesystem operations with safety guarantees.
//
// All layout and bundle writes in c3crawl go through the FS interface, which
// provides abstractions for the handful of operations the engine needs along
// with path validation so manifest-supplied paths cannot escape the project.
//
// Key features:
//   - Atomic writes using temp file + rename
//   - Relative path validation and resolution under a root
//   - Advisory per-path locks backed by gofrs/flock
//   - Testable via the FS interface
package fsops

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// FS provides an abstraction for filesystem operations.
type FS interface {
	// Stat returns file info, following symlinks.
	Stat(path string) (os.FileInfo, error)

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// AtomicWrite writes data to path atomically using temp file + rename.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// Exists checks if a path exists.
	Exists(path string) (bool, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// RemoveAll removes a path and all its contents.
	RemoveAll(path string) error

	// ValidateRelPath validates a relative path for safety.
	ValidateRelPath(relPath string) error

	// Lock takes an exclusive advisory lock for path. The returned func
	// releases it.
	Lock(path string) (func() error, error)
}

// RealFS implements FS using actual OS operations.
type RealFS struct {
	lockDir string
}

// NewRealFS creates a new RealFS. Lock files are kept in lockDir so they
// never show up inside a project tree.
func NewRealFS(lockDir string) *RealFS {
	return &RealFS{lockDir: lockDir}
}

// Stat returns file info, following symlinks.
func (fs *RealFS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads the entire contents of a file.
func (fs *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// MkdirAll creates a directory and all parent directories.
func (fs *RealFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// RemoveAll removes a path and all its contents.
func (fs *RealFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// AtomicWrite writes data to path atomically using temp file + rename.
func (fs *RealFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	// Temp file must live next to the target for rename to be atomic.
	tmpFile, err := os.CreateTemp(dir, ".c3crawl-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	tmpFile = nil
	return nil
}

// Exists checks if a path exists.
func (fs *RealFS) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ValidateRelPath validates a relative path for safety.
// Returns an error if the path is invalid or unsafe.
func (fs *RealFS) ValidateRelPath(relPath string) error {
	return ValidateRelPath(relPath)
}

// Lock takes an exclusive advisory lock keyed on the absolute form of path.
func (fs *RealFS) Lock(path string) (func() error, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lock path: %w", err)
	}

	dir := fs.lockDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "c3crawl-locks")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	sum := sha256.Sum256([]byte(abs))
	lock := flock.New(filepath.Join(dir, hex.EncodeToString(sum[:8])+".lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	return lock.Unlock, nil
}

// ValidateRelPath rejects empty, absolute and parent-escaping relative paths.
func ValidateRelPath(relPath string) error {
	cleaned := filepath.Clean(relPath)

	if cleaned == "" || cleaned == "." {
		return fmt.Errorf("invalid path: empty or current directory")
	}
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "/") {
		return fmt.Errorf("invalid path: must be relative, got absolute path %q", cleaned)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("invalid path: path traversal not allowed in %q", cleaned)
	}

	return nil
}

// ResolveUnder joins a slash-separated relative path onto root after
// validating it.
func ResolveUnder(root, relPath string) (string, error) {
	native := filepath.FromSlash(relPath)
	if err := ValidateRelPath(native); err != nil {
		return "", err
	}
	return filepath.Join(root, native), nil
}
