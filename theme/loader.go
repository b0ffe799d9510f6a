package theme

import (
	"context"
	"errors"
	"fmt"

	"github.com/lixenwraith/vi-office/asset"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MaxManifestSize bounds the theme.json payload
const MaxManifestSize = 256 * 1024

var (
	ErrNotFound = errors.New("theme not found")
	ErrTooLarge = errors.New("theme manifest too large")
)

// Loader fetches, validates and caches manifests
type Loader struct {
	src    asset.Source
	cache  *Cache
	group  singleflight.Group
	logger *zap.Logger
}

// NewLoader creates a loader over src, nil cache allocates a private one
func NewLoader(src asset.Source, cache *Cache, logger *zap.Logger) *Loader {
	if cache == nil {
		cache = NewCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		src:    src,
		cache:  cache,
		logger: logger.Named("theme"),
	}
}

// Cache exposes the manifest cache
func (l *Loader) Cache() *Cache {
	return l.cache
}

// CacheTheme seeds m so later loads of m.ID skip the network
func (l *Loader) CacheTheme(m *Manifest) {
	l.cache.Set(m)
}

// ClearCache forgets every loaded manifest
func (l *Loader) ClearCache() {
	l.cache.Clear()
}

// Load returns the manifest for themeID, fetching it once per process
func (l *Loader) Load(ctx context.Context, themeID string) (*Manifest, error) {
	if m, ok := l.cache.Get(themeID); ok {
		return m, nil
	}
	if !idPattern.MatchString(themeID) {
		return nil, fmt.Errorf("theme %q: %w", themeID, ErrNotFound)
	}

	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan(themeID, func() (any, error) {
		if m, ok := l.cache.Get(themeID); ok {
			return m, nil
		}
		return l.fetch(shared, themeID)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("theme %q: %w", themeID, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Manifest), nil
	}
}

func (l *Loader) fetch(ctx context.Context, themeID string) (*Manifest, error) {
	if l.src == nil {
		return nil, fmt.Errorf("theme %q: no source: %w", themeID, ErrNotFound)
	}
	url := ManifestURL(themeID)
	raw, err := l.src.Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, asset.ErrNotFound) {
			return nil, fmt.Errorf("theme %q: %w", themeID, ErrNotFound)
		}
		return nil, fmt.Errorf("theme %q: fetch %s: %w", themeID, url, err)
	}
	if len(raw) > MaxManifestSize {
		return nil, fmt.Errorf("theme %q: %d bytes: %w", themeID, len(raw), ErrTooLarge)
	}

	m, err := Validate(raw)
	if err != nil {
		l.logger.Warn("manifest rejected", zap.String("theme", themeID), zap.Error(err))
		return nil, err
	}
	if m.ID != themeID {
		ve := &ValidationError{ThemeID: m.ID}
		ve.add("id", "manifest id %q does not match requested theme %q", m.ID, themeID)
		return nil, ve
	}

	l.cache.Set(m)
	l.logger.Debug("manifest loaded",
		zap.String("theme", themeID),
		zap.String("renderer", string(m.Kind())),
		zap.Int("zones", len(m.Zones)),
	)
	return m, nil
}
