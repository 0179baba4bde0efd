// Package assets loads texture images from disk and caches them.
package assets

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Texture is a decoded image file.
type Texture struct {
	Path   string
	Format string
	Width  int
	Height int
	Data   []byte // Raw file contents
	Image  image.Image
}

// Manager handles texture loading from the filesystem.
type Manager struct {
	cache *Cache
	mu    sync.Mutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// Load reads and decodes the image at path.
// A cached texture is returned only while the file's size and
// modification time are unchanged.
func (m *Manager) Load(path string) (*Texture, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	key := cacheKey{path: path, size: info.Size(), modTime: info.ModTime()}
	if tex, ok := m.cache.get(key); ok {
		return tex, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	img, format, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	b := img.Bounds()
	tex := &Texture{
		Path:   path,
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
		Data:   data,
		Image:  img,
	}
	m.cache.set(key, tex)
	return tex, nil
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Close drops all cached textures.
func (m *Manager) Close() {
	m.cache.Clear()
}

type cacheKey struct {
	path    string
	size    int64
	modTime time.Time
}

// Cache is a simple in-memory cache for loaded textures.
// A path holds at most one entry; a newer key replaces the old one.
type Cache struct {
	data map[string]cacheEntry
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

type cacheEntry struct {
	key cacheKey
	tex *Texture
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]cacheEntry),
	}
}

// get retrieves an item from cache.
func (c *Cache) get(key cacheKey) (*Texture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key.path]
	if ok && e.key.size == key.size && e.key.modTime.Equal(key.modTime) {
		c.hits++
		return e.tex, true
	}
	c.misses++
	return nil, false
}

// set stores an item in cache.
func (c *Cache) set(key cacheKey, tex *Texture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key.path] = cacheEntry{key: key, tex: tex}
}

// Len returns the number of cached paths.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]cacheEntry)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
