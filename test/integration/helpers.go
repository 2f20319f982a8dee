package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danieljhkim/c3crawl/internal/bundle"
	"github.com/danieljhkim/c3crawl/internal/clock"
	"github.com/danieljhkim/c3crawl/internal/config"
	"github.com/danieljhkim/c3crawl/internal/engine"
	"github.com/danieljhkim/c3crawl/internal/fsops"
	"github.com/danieljhkim/c3crawl/internal/layout"
	"github.com/danieljhkim/c3crawl/internal/logging"
)

// testFS is a filesystem implementation that tracks files in memory for
// testing. It is safe for concurrent use and checks that every write happens
// under the path's lock.
type testFS struct {
	mu        sync.Mutex
	files     map[string][]byte
	dirs      map[string]bool
	locked    map[string]bool
	failWrite map[string]bool

	writes         map[string]int
	unlockedWrites int
	maxHeld        int
}

func newTestFS() *testFS {
	return &testFS{
		files:     make(map[string][]byte),
		dirs:      make(map[string]bool),
		locked:    make(map[string]bool),
		failWrite: make(map[string]bool),
		writes:    make(map[string]int),
	}
}

func (fs *testFS) addFile(path, content string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[path] = []byte(content)
	for dir := filepath.Dir(path); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		fs.dirs[dir] = true
	}
}

func (fs *testFS) content(path string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return string(fs.files[path])
}

func (fs *testFS) Stat(path string) (os.FileInfo, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.dirs[path] {
		return &mockFileInfo{name: filepath.Base(path), isDir: true, mode: os.ModeDir | 0755}, nil
	}
	if data, ok := fs.files[path]; ok {
		return &mockFileInfo{name: filepath.Base(path), size: int64(len(data)), mode: 0644}, nil
	}
	return nil, os.ErrNotExist
}

func (fs *testFS) ReadFile(path string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	data, ok := fs.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (fs *testFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if !fs.locked[path] {
		fs.unlockedWrites++
	}
	if fs.failWrite[path] {
		return fmt.Errorf("write %s: no space left on device", path)
	}
	fs.files[path] = append([]byte(nil), data...)
	fs.writes[path]++
	return nil
}

func (fs *testFS) Exists(path string) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	_, hasFile := fs.files[path]
	return hasFile || fs.dirs[path], nil
}

func (fs *testFS) MkdirAll(path string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.dirs[path] = true
	return nil
}

func (fs *testFS) RemoveAll(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.files, path)
	delete(fs.dirs, path)
	return nil
}

func (fs *testFS) ValidateRelPath(relPath string) error {
	return fsops.ValidateRelPath(relPath)
}

func (fs *testFS) Lock(path string) (func() error, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.locked[path] {
		return nil, fmt.Errorf("lock %s already held", path)
	}
	fs.locked[path] = true
	if n := len(fs.locked); n > fs.maxHeld {
		fs.maxHeld = n
	}
	return func() error {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		delete(fs.locked, path)
		return nil
	}, nil
}

type mockFileInfo struct {
	name  string
	size  int64
	mode  os.FileMode
	isDir bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() os.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() interface{}   { return nil }

// setupTestEngine wires an engine over the in-memory filesystem.
func setupTestEngine(t *testing.T, workers int) (*engine.Engine, *testFS) {
	t.Helper()
	fs := newTestFS()
	fs.dirs["/game"] = true

	cfg := config.Default()
	cfg.Engine.Workers = workers
	eng := engine.New(
		fs,
		layout.NewStore(fs),
		bundle.NewZipService(),
		logging.NewNop(),
		clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		cfg,
		config.Paths{Root: "/data", Locks: "/data/locks", Bundles: "/data/bundles"},
	)
	return eng, fs
}

// setupDiskEngine wires an engine over the real filesystem rooted in a
// temporary directory.
func setupDiskEngine(t *testing.T) *engine.Engine {
	t.Helper()
	base := t.TempDir()
	paths := config.Paths{
		Root:    base,
		Locks:   filepath.Join(base, "locks"),
		Bundles: filepath.Join(base, "bundles"),
	}
	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	fs := fsops.NewRealFS(paths.Locks)
	return engine.New(
		fs,
		layout.NewStore(fs),
		bundle.NewZipService(),
		logging.NewNop(),
		&clock.RealClock{},
		config.Default(),
		paths,
	)
}

// enemyLayout returns a layout with one EnemyBase template in the first
// layout only, plus n plain enemies and one coin.
func enemyLayout(withTemplate bool, n int) string {
	instances := ""
	uid := 1
	if withTemplate {
		instances += `{"uid": 1, "type": "Enemy", "template": {"mode": "template", "templateName": "EnemyBase"}},`
		uid++
	}
	for i := 0; i < n; i++ {
		instances += fmt.Sprintf(`{"uid": %d, "type": "Enemy", "world": {"x": %d, "y": 0}},`, uid, i*32)
		uid++
	}
	instances += fmt.Sprintf(`{"uid": %d, "type": "Coin"}`, uid)
	return `{"name": "level", "layers": [{"name": "Main", "instances": [` + instances + `]}]}`
}
