// Package storage persists exported files, either on disk or in memory.
package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Storage creates named files. Paths use forward slashes.
type Storage interface {
	Create(path string) (io.WriteCloser, error)
}

// Dir writes below a root directory, creating parent directories.
type Dir struct {
	Root string
}

// Create opens root/path for writing, truncating an existing file.
func (d Dir) Create(path string) (io.WriteCloser, error) {
	full := filepath.Join(d.Root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return nil, fmt.Errorf("storage: mkdir for %s: %w", path, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", path, err)
	}
	return f, nil
}

// Memory keeps files in memory. Content becomes visible on Close.
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

type memFile struct {
	bytes.Buffer
	m    *Memory
	path string
}

func (f *memFile) Close() error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	f.m.files[f.path] = bytes.Clone(f.Bytes())
	return nil
}

// Create starts a new file; it replaces any previous file at path when closed.
func (m *Memory) Create(path string) (io.WriteCloser, error) {
	return &memFile{m: m, path: filepath.ToSlash(path)}, nil
}

// File returns the content stored at path.
func (m *Memory) File(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[filepath.ToSlash(path)]
	return b, ok
}

// Paths lists the stored files in sorted order.
func (m *Memory) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Size returns the total number of stored bytes.
func (m *Memory) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.files {
		n += len(b)
	}
	return n
}
