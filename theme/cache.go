package theme

import "sync"

// Cache holds loaded manifests keyed by theme id
// Population is explicit: the loader sets entries, callers may seed or clear
type Cache struct {
	mu    sync.RWMutex
	items map[string]*Manifest
}

// NewCache creates an empty manifest cache
func NewCache() *Cache {
	return &Cache{items: make(map[string]*Manifest)}
}

// Get returns the cached manifest for id
func (c *Cache) Get(id string) (*Manifest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.items[id]
	return m, ok
}

// Set stores m under its own id, nil is ignored
func (c *Cache) Set(m *Manifest) {
	if m == nil {
		return
	}
	c.mu.Lock()
	c.items[m.ID] = m
	c.mu.Unlock()
}

// Seed pre-populates the cache for fallback or offline use
func (c *Cache) Seed(ms ...*Manifest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range ms {
		if m != nil {
			c.items[m.ID] = m
		}
	}
}

// Delete drops one entry
func (c *Cache) Delete(id string) {
	c.mu.Lock()
	delete(c.items, id)
	c.mu.Unlock()
}

// Clear drops every entry
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]*Manifest)
	c.mu.Unlock()
}

// Len returns the number of cached manifests
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// IDs returns the cached theme ids in no particular order
func (c *Cache) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	return ids
}
