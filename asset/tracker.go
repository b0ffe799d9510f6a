package asset

import (
	"context"
	"image"
	"sort"
	"sync"
)

// Tracker records the references one owner took from a shared Cache
// Close releases exactly those references, once
type Tracker struct {
	cache  *Cache
	mu     sync.Mutex
	owned  map[string]int
	closed bool
}

// NewTracker creates a ledger over cache
func NewTracker(cache *Cache) *Tracker {
	return &Tracker{cache: cache, owned: make(map[string]int)}
}

// LoadImage loads through the cache and records the reference
func (t *Tracker) LoadImage(ctx context.Context, url string) (image.Image, error) {
	img, err := t.cache.LoadImage(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := t.keep(url); err != nil {
		return nil, err
	}
	return img, nil
}

// LoadModel loads through the cache and records the reference
func (t *Tracker) LoadModel(ctx context.Context, url string) (*Model, error) {
	m, err := t.cache.LoadModel(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := t.keep(url); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadBytes loads through the cache and records the reference
func (t *Tracker) LoadBytes(ctx context.Context, url string) ([]byte, error) {
	data, err := t.cache.LoadBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := t.keep(url); err != nil {
		return nil, err
	}
	return data, nil
}

// keep records a fresh reference, or gives it back if the owner already closed
func (t *Tracker) keep(url string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		t.cache.Unload(url)
		return ErrDiscarded
	}
	t.owned[url]++
	t.mu.Unlock()
	return nil
}

// Release gives back one reference to url early
func (t *Tracker) Release(url string) bool {
	t.mu.Lock()
	n := t.owned[url]
	if n == 0 {
		t.mu.Unlock()
		return false
	}
	if n == 1 {
		delete(t.owned, url)
	} else {
		t.owned[url] = n - 1
	}
	t.mu.Unlock()
	return t.cache.Unload(url)
}

// Owned lists the URLs currently held, sorted
func (t *Tracker) Owned() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	urls := make([]string, 0, len(t.owned))
	for u := range t.owned {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Closed reports whether Close ran
func (t *Tracker) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Close releases every recorded reference and rejects later loads
// Returns the number of references released, zero on repeat calls
func (t *Tracker) Close() int {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0
	}
	t.closed = true
	owned := t.owned
	t.owned = make(map[string]int)
	t.mu.Unlock()

	released := 0
	for url, n := range owned {
		for i := 0; i < n; i++ {
			if t.cache.Unload(url) {
				released++
			}
		}
	}
	return released
}
