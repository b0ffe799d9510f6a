// Package asset fetches, decodes and reference-counts theme assets
package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// MaxAssetSize bounds any single fetched asset
const MaxAssetSize = 64 << 20

// FetchTimeout bounds one HTTP fetch, shared fetches outlive their callers
const FetchTimeout = 30 * time.Second

var (
	ErrNotFound    = errors.New("asset not found")
	ErrUnsafePath  = errors.New("unsafe asset path")
	ErrAssetTooBig = errors.New("asset exceeds size limit")
)

// Source resolves an asset URL of the form /themes/{themeID}/{path} to bytes
type Source interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context, url string) ([]byte, error)

func (f SourceFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// SplitThemeURL breaks /themes/{id}/{rel} into its parts
func SplitThemeURL(url string) (themeID, rel string, ok bool) {
	rest, found := strings.CutPrefix(url, "/themes/")
	if !found {
		return "", "", false
	}
	themeID, rel, found = strings.Cut(rest, "/")
	if !found || themeID == "" || rel == "" {
		return "", "", false
	}
	return themeID, rel, true
}

// SafeEntry reports whether a theme-relative name stays inside its theme
func SafeEntry(name string) bool {
	if name == "" || strings.Contains(name, "..") || strings.HasPrefix(name, "/") || strings.HasPrefix(name, "\\") {
		return false
	}
	if strings.HasSuffix(name, "/") {
		return true
	}
	return allowedExt[strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))]
}

var allowedExt = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "webp": true, "gif": true, "svg": true,
	"glb": true, "gltf": true,
	"mp3": true, "ogg": true, "wav": true,
	"json": true,
}

// HTTPSource fetches assets relative to a base URL
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource creates a source rooted at base, e.g. https://example.com
func NewHTTPSource(base string) *HTTPSource {
	return &HTTPSource{BaseURL: strings.TrimRight(base, "/"), Client: &http.Client{Timeout: FetchTimeout}}
}

func (s *HTTPSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	target := url
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		target = s.BaseURL + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s: unexpected status %s", url, resp.Status)
	}
	return readLimited(resp.Body, url)
}

// DirSource serves /themes/{id}/{rel} from Root/{id}/{rel}
type DirSource struct {
	Root string
}

func (s DirSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	themeID, rel, ok := SplitThemeURL(url)
	if !ok {
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	}
	if !SafeEntry(rel) || strings.ContainsAny(themeID, `/\`) {
		return nil, fmt.Errorf("%s: %w", url, ErrUnsafePath)
	}
	f, err := os.Open(filepath.Join(s.Root, themeID, filepath.FromSlash(rel)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
		}
		return nil, err
	}
	defer f.Close()
	return readLimited(f, url)
}

// MemSource serves assets from memory, used for built-in themes and tests
type MemSource struct {
	mu      sync.Mutex
	files   map[string][]byte
	fail    map[string]error
	fetches map[string]int
}

// NewMemSource creates an empty in-memory source
func NewMemSource() *MemSource {
	return &MemSource{
		files:   make(map[string][]byte),
		fail:    make(map[string]error),
		fetches: make(map[string]int),
	}
}

// Put registers data under url
func (s *MemSource) Put(url string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[url] = data
}

// Fail makes every fetch of url return err
func (s *MemSource) Fail(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[url] = err
}

// Fetches returns how many times url was requested
func (s *MemSource) Fetches(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[url]
}

func (s *MemSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches[url]++
	if err, ok := s.fail[url]; ok {
		return nil, err
	}
	data, ok := s.files[url]
	if !ok {
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	}
	return data, nil
}

// Chain tries sources in order, moving on only when an asset is missing
type Chain []Source

func (c Chain) Fetch(ctx context.Context, url string) ([]byte, error) {
	err := fmt.Errorf("%s: %w", url, ErrNotFound)
	for _, s := range c {
		if s == nil {
			continue
		}
		var data []byte
		data, err = s.Fetch(ctx, url)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, err
}

func readLimited(r io.Reader, url string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAssetSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxAssetSize {
		return nil, fmt.Errorf("%s: %w", url, ErrAssetTooBig)
	}
	return data, nil
}
