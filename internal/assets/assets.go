// Package assets handles asset lookup and caching.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned when no search directory holds an asset.
var ErrNotFound = errors.New("asset not found")

// Manager resolves asset paths against a list of search directories.
type Manager struct {
	roots []string
	mu    sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{}
}

// AddRoot adds a search directory.
// Directories are searched in reverse order (last added = highest priority).
func (m *Manager) AddRoot(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding asset root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding asset root %s: not a directory", dir)
	}

	m.mu.Lock()
	m.roots = append(m.roots, dir)
	m.mu.Unlock()

	return nil
}

// Roots returns the search directories in priority order.
func (m *Manager) Roots() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	roots := make([]string, 0, len(m.roots))
	for i := len(m.roots) - 1; i >= 0; i-- {
		roots = append(roots, m.roots[i])
	}
	return roots
}

// Resolve returns the file path of an asset. Absolute paths are used as
// is; relative paths are looked up in the search directories, then in the
// working directory.
func (m *Manager) Resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		if isFile(path) {
			return path, nil
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	for _, root := range m.Roots() {
		candidate := filepath.Join(root, path)
		if isFile(candidate) {
			return candidate, nil
		}
	}
	if isFile(path) {
		return path, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Load reads an asset.
func (m *Manager) Load(path string) ([]byte, error) {
	resolved, err := m.Resolve(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(resolved)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache[T any] struct {
	data map[string]T
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{
		data: make(map[string]T),
	}
}

// Get retrieves an item from cache.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return v, ok
}

// Set stores an item in cache.
func (c *Cache[T]) Set(key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
}

// Len returns the number of cached items.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]T)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache[T]) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
