package vtree

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Store is the persistent storage a Tree reads its base snapshot from and
// commits into. Paths are slash-separated and relative to the store root.
// ReadFile must return an error satisfying errors.Is(err, fs.ErrNotExist)
// for missing files.
type Store interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	Remove(name string) error
}

// DiskStore is a Store rooted at a directory on disk.
type DiskStore struct {
	Root string
	Mode fs.FileMode // file mode for new files (default 0644)
}

// NewDiskStore creates a store rooted at root.
func NewDiskStore(root string) *DiskStore {
	return &DiskStore{Root: root, Mode: 0644}
}

func (s *DiskStore) abs(name string) string {
	return filepath.Join(s.Root, filepath.FromSlash(name))
}

// ReadFile reads name relative to the store root.
func (s *DiskStore) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(s.abs(name))
}

// WriteFile writes data, creating parent directories as needed.
func (s *DiskStore) WriteFile(name string, data []byte) error {
	p := s.abs(name)
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	mode := s.Mode
	if mode == 0 {
		mode = 0644
	}
	if info, err := os.Stat(p); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(p, data, mode)
}

// Remove deletes name relative to the store root.
func (s *DiskStore) Remove(name string) error {
	return os.Remove(s.abs(name))
}

// MemStore is an in-memory Store, used for tests and dry runs.
type MemStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemStore creates a store seeded with files.
func NewMemStore(files map[string]string) *MemStore {
	m := &MemStore{files: make(map[string][]byte, len(files))}
	for name, content := range files {
		m.files[Clean(name)] = []byte(content)
	}
	return m
}

// ReadFile returns a copy of the stored content, or fs.ErrNotExist.
func (m *MemStore) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[Clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// WriteFile stores a copy of data.
func (m *MemStore) WriteFile(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[Clean(name)] = append([]byte(nil), data...)
	return nil
}

// Remove deletes name, or fails with fs.ErrNotExist.
func (m *MemStore) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = Clean(name)
	if _, ok := m.files[name]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(m.files, name)
	return nil
}

// Files lists stored paths, sorted.
func (m *MemStore) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clean normalises a tree path: slash-separated, no leading "/" or "./".
func Clean(name string) string {
	name = path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimPrefix(name, "/")
}
