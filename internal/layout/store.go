package layout

import (
	"fmt"
	"os"

	"github.com/danieljhkim/c3crawl/internal/fsops"
)

// Store reads and writes whole layout documents.
type Store struct {
	fs fsops.FS
}

// NewStore creates a Store on top of fs.
func NewStore(fs fsops.FS) *Store {
	return &Store{fs: fs}
}

// Load reads and parses the layout at path.
func (s *Store) Load(path string) (*Document, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrIO, path, err)
	}

	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Write serialises doc and atomically replaces path. An existing file keeps
// its permission bits.
func (s *Store) Write(path string, doc *Document) error {
	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	perm := os.FileMode(0644)
	if info, err := s.fs.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	if err := s.fs.AtomicWrite(path, data, perm); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", ErrIO, path, err)
	}
	return nil
}
