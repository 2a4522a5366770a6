package vintagepress

import (
	"sync"
	"time"
)

// ContentCache is an in-memory cache of the hot read paths on the public
// site: featured posts and the tag cloud, keyed by language, with TTL.
// Listing queries with arbitrary filters always go to the store.
type ContentCache struct {
	mu       sync.RWMutex
	featured map[Language][]Post
	tags     map[Language][]string
	fetched  time.Time
	ttl      time.Duration
	store    *Store
}

// NewContentCache creates a ContentCache backed by the given Store.
func NewContentCache(s *Store, ttl time.Duration) *ContentCache {
	return &ContentCache{store: s, ttl: ttl}
}

func (c *ContentCache) valid() bool {
	return c.featured != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
// Called after every admin write.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.featured = nil
	c.tags = nil
	c.mu.Unlock()
}

func (c *ContentCache) load() {
	if c.valid() {
		return
	}
	featured := make(map[Language][]Post, len(Languages)+1)
	tags := make(map[Language][]string, len(Languages)+1)
	featured[""] = c.store.FeaturedPosts("")
	tags[""] = c.store.AllTags("")
	for _, lang := range Languages {
		featured[lang] = c.store.FeaturedPosts(lang)
		tags[lang] = c.store.AllTags(lang)
	}
	c.featured = featured
	c.tags = tags
	c.fetched = time.Now()
}

// ensureLoaded refreshes the cache if stale. It tries a read lock first and
// only takes the write lock when a reload is needed.
func (c *ContentCache) ensureLoaded() (map[Language][]Post, map[Language][]string) {
	c.mu.RLock()
	if c.valid() {
		featured, tags := c.featured, c.tags
		c.mu.RUnlock()
		return featured, tags
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.load()
	return c.featured, c.tags
}

// FeaturedPosts returns the cached featured posts for a language ("" for all).
func (c *ContentCache) FeaturedPosts(language Language) []Post {
	featured, _ := c.ensureLoaded()
	return featured[language]
}

// AllTags returns the cached tag list for a language ("" for all).
func (c *ContentCache) AllTags(language Language) []string {
	_, tags := c.ensureLoaded()
	return tags[language]
}
