// Package bundle imports and exports whole projects as zip archives.
//
// A bundle (.c3p) is a zip of the project directory. Extraction streams
// entries into a destination directory, skipping files that already exist,
// and refuses entries whose names would land outside the destination.
// Creation walks a directory in lexical order.
// Both directions report progress as a completed fraction plus the entry
// currently being processed.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Ext is the conventional bundle extension.
const Ext = ".c3p"

// ErrUnsafeEntry is returned for archive entries that escape the destination.
var ErrUnsafeEntry = errors.New("unsafe archive entry")

// Progress receives the completed fraction in [0,1] and the current entry.
type Progress func(fraction float64, current string)

// Stats summarises one extraction or creation.
type Stats struct {
	Files   int   `json:"files"`
	Skipped int   `json:"skipped"`
	Bytes   int64 `json:"bytes"`
}

// Service extracts and creates project bundles.
type Service interface {
	// Extract unpacks archivePath into destDir.
	Extract(ctx context.Context, archivePath, destDir string, onProgress Progress) (*Stats, error)

	// Create packs sourceDir into archivePath.
	Create(ctx context.Context, sourceDir, archivePath string, onProgress Progress) (*Stats, error)
}

// ZipService implements Service with zip archives.
type ZipService struct{}

// NewZipService creates a new ZipService.
func NewZipService() *ZipService {
	return &ZipService{}
}

// Extract unpacks archivePath into destDir.
func (s *ZipService) Extract(ctx context.Context, archivePath, destDir string, onProgress Progress) (*Stats, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle: %w", err)
	}
	defer func() {
		_ = r.Close()
	}()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination: %w", err)
	}

	stats := &Stats{}
	total := len(r.File)
	for i, f := range r.File {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		target, err := entryTarget(destDir, f.Name)
		if err != nil {
			return stats, err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return stats, fmt.Errorf("failed to create directory %s: %w", f.Name, err)
			}
		} else {
			written, skipped, err := extractFile(f, target)
			if err != nil {
				return stats, err
			}
			if skipped {
				stats.Skipped++
			} else {
				stats.Files++
				stats.Bytes += written
			}
		}

		report(onProgress, i+1, total, f.Name)
	}

	if total == 0 {
		report(onProgress, 1, 1, "")
	}
	return stats, nil
}

func extractFile(f *zip.File, target string) (int64, bool, error) {
	if _, err := os.Lstat(target); err == nil {
		return 0, true, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, false, fmt.Errorf("failed to create parent directory for %s: %w", f.Name, err)
	}

	src, err := f.Open()
	if err != nil {
		return 0, false, fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	defer func() {
		_ = src.Close()
	}()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create %s: %w", f.Name, err)
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, false, fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return n, false, nil
}

// entryTarget maps an archive entry name onto destDir, rejecting absolute
// names and names that climb out of it.
func entryTarget(destDir, name string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("%w: %s", ErrUnsafeEntry, name)
	}
	return filepath.Join(destDir, filepath.FromSlash(clean)), nil
}

// Create packs sourceDir into archivePath.
func (s *ZipService) Create(ctx context.Context, sourceDir, archivePath string, onProgress Progress) (*Stats, error) {
	files, err := collectFiles(sourceDir, archivePath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create bundle directory: %w", err)
	}
	out, err := os.Create(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create bundle: %w", err)
	}
	defer func() {
		_ = out.Close()
	}()

	zw := zip.NewWriter(out)
	stats := &Stats{}
	for i, rel := range files {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return stats, err
		}

		n, err := addFile(zw, sourceDir, rel)
		if err != nil {
			_ = zw.Close()
			return stats, err
		}
		stats.Files++
		stats.Bytes += n

		report(onProgress, i+1, len(files), rel)
	}

	if err := zw.Close(); err != nil {
		return stats, fmt.Errorf("failed to finalize bundle: %w", err)
	}
	if err := out.Close(); err != nil {
		return stats, fmt.Errorf("failed to close bundle: %w", err)
	}
	if len(files) == 0 {
		report(onProgress, 1, 1, "")
	}
	return stats, nil
}

// collectFiles lists regular files under root as slash-separated relative
// names in lexical order, leaving out the archive itself.
func collectFiles(root, archivePath string) ([]string, error) {
	absArchive, _ := filepath.Abs(archivePath)

	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if abs, _ := filepath.Abs(p); abs == absArchive {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}

func addFile(zw *zip.Writer, root, rel string) (int64, error) {
	src, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", rel, err)
	}
	defer func() {
		_ = src.Close()
	}()

	info, err := src.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", rel, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return 0, fmt.Errorf("failed to build header for %s: %w", rel, err)
	}
	header.Name = rel
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return 0, fmt.Errorf("failed to add %s: %w", rel, err)
	}
	n, err := io.Copy(w, src)
	if err != nil {
		return n, fmt.Errorf("failed to compress %s: %w", rel, err)
	}
	return n, nil
}

func report(onProgress Progress, done, total int, current string) {
	if onProgress == nil || total == 0 {
		return
	}
	onProgress(float64(done)/float64(total), current)
}
