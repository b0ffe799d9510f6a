package asset

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Kind is the decoded form requested for an asset
type Kind int

const (
	KindBytes Kind = iota
	KindImage
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindModel:
		return "model"
	default:
		return "bytes"
	}
}

// ErrDiscarded is returned when a load completes after its owner was torn down
var ErrDiscarded = errors.New("asset load discarded after teardown")

// LoadError wraps a fetch or decode failure for one asset
type LoadError struct {
	URL  string
	Kind Kind
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s %s: %v", e.Kind, e.URL, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type entry struct {
	url  string
	data []byte
	refs int

	mu        sync.Mutex
	img       image.Image
	imgErr    error
	imgDone   bool
	model     *Model
	modelErr  error
	modelDone bool
}

func (e *entry) image() (image.Image, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.imgDone {
		e.img, e.imgErr = DecodeImage(e.data)
		e.imgDone = true
	}
	return e.img, e.imgErr
}

func (e *entry) decodeModel() (*Model, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.modelDone {
		e.model, e.modelErr = DecodeModel(e.data)
		e.modelDone = true
	}
	return e.model, e.modelErr
}

// Stats summarizes cache occupancy
type Stats struct {
	Entries int
	Refs    int
	Bytes   int64
}

func (s Stats) String() string {
	return fmt.Sprintf("%d assets, %d refs, %s", s.Entries, s.Refs, humanize.Bytes(uint64(s.Bytes)))
}

// Cache is the process-wide asset store keyed by URL
// Every successful load takes a reference, Unload drops one, the entry is freed at zero
type Cache struct {
	src     Source
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	logger  *zap.Logger
}

// NewCache creates a cache over src
func NewCache(src Source, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		src:     src,
		entries: make(map[string]*entry),
		logger:  logger.Named("asset"),
	}
}

// LoadBytes returns the raw asset, taking a reference
func (c *Cache) LoadBytes(ctx context.Context, url string) ([]byte, error) {
	e, err := c.acquire(ctx, url, KindBytes)
	if err != nil {
		return nil, err
	}
	return e.data, nil
}

// LoadImage returns the decoded image, taking a reference
func (c *Cache) LoadImage(ctx context.Context, url string) (image.Image, error) {
	e, err := c.acquire(ctx, url, KindImage)
	if err != nil {
		return nil, err
	}
	img, err := e.image()
	if err != nil {
		c.Unload(url)
		return nil, &LoadError{URL: url, Kind: KindImage, Err: err}
	}
	return img, nil
}

// LoadModel returns the shared decoded model, taking a reference
func (c *Cache) LoadModel(ctx context.Context, url string) (*Model, error) {
	e, err := c.acquire(ctx, url, KindModel)
	if err != nil {
		return nil, err
	}
	m, err := e.decodeModel()
	if err != nil {
		c.Unload(url)
		return nil, &LoadError{URL: url, Kind: KindModel, Err: err}
	}
	return m, nil
}

func (c *Cache) acquire(ctx context.Context, url string, kind Kind) (*entry, error) {
	c.mu.Lock()
	if e, ok := c.entries[url]; ok {
		e.refs++
		c.mu.Unlock()
		return e, nil
	}
	c.mu.Unlock()

	// The fetch is shared, so it runs detached from any one caller
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(url, func() (any, error) {
		if c.src == nil {
			return nil, ErrNotFound
		}
		return c.src.Fetch(shared, url)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, &LoadError{URL: url, Kind: kind, Err: ctx.Err()}
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, &LoadError{URL: url, Kind: kind, Err: res.Err}
	}
	data := res.Val.([]byte)

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[url]
	if !ok {
		e = &entry{url: url, data: data}
		c.entries[url] = e
		c.logger.Debug("asset cached", zap.String("url", url), zap.String("size", humanize.Bytes(uint64(len(data)))))
	}
	e.refs++
	return e, nil
}

// Unload drops one reference to url and frees the entry at zero
// Returns false when url holds no reference
func (c *Cache) Unload(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[url]
	if !ok || e.refs <= 0 {
		c.logger.Debug("unload without reference", zap.String("url", url))
		return false
	}
	e.refs--
	if e.refs == 0 {
		delete(c.entries, url)
		c.logger.Debug("asset freed", zap.String("url", url))
	}
	return true
}

// Refs returns the reference count for url
func (c *Cache) Refs(url string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[url]; ok {
		return e.refs
	}
	return 0
}

// Contains reports whether url is cached
func (c *Cache) Contains(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[url]
	return ok
}

// Stats returns the current occupancy
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	var s Stats
	for _, e := range c.entries {
		s.Entries++
		s.Refs += e.refs
		s.Bytes += int64(len(e.data))
	}
	return s
}
