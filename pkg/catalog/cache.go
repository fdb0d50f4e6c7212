package catalog

import (
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/muremwa/djurls/pkg/urlconf"
)

// DefaultCacheSize is the number of files kept by NewCache when size <= 0.
const DefaultCacheSize = 512

type cacheEntry struct {
	sum    [sha256.Size]byte
	routes *urlconf.FileRoutes
}

// Cache remembers parsed files by path and content hash, so repeated builds
// of a mostly unchanged project only re-parse edited files.
// It is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, cacheEntry]
}

// NewCache creates a cache holding up to size files.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached parse of src if its content is unchanged.
func (c *Cache) Get(src Source) (*urlconf.FileRoutes, bool) {
	e, ok := c.entries.Get(src.Path)
	if !ok || e.sum != sha256.Sum256([]byte(src.Text)) {
		return nil, false
	}
	return e.routes, true
}

// Add stores the parse of src.
func (c *Cache) Add(src Source, routes *urlconf.FileRoutes) {
	c.entries.Add(src.Path, cacheEntry{
		sum:    sha256.Sum256([]byte(src.Text)),
		routes: routes,
	})
}

// Remove drops path from the cache.
func (c *Cache) Remove(path string) {
	c.entries.Remove(path)
}

// Len returns the number of cached files.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.entries.Purge()
}
