package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
)

// BundleSource serves themes packed as Dir/{themeID}.zip archives
// Archives are opened lazily and indexed once
type BundleSource struct {
	Dir string

	mu      sync.Mutex
	bundles map[string]*bundle
}

type bundle struct {
	rc    *zip.ReadCloser
	files map[string]*zip.File
}

// NewBundleSource creates a source over a directory of theme zips
func NewBundleSource(dir string) *BundleSource {
	return &BundleSource{Dir: dir, bundles: make(map[string]*bundle)}
}

func (s *BundleSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	themeID, rel, ok := SplitThemeURL(url)
	if !ok {
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	}
	if !SafeEntry(rel) || strings.ContainsAny(themeID, `/\.`) {
		return nil, fmt.Errorf("%s: %w", url, ErrUnsafePath)
	}

	b, err := s.open(themeID)
	if err != nil {
		return nil, err
	}
	f, ok := b.files[rel]
	if !ok {
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	}
	if f.UncompressedSize64 > MaxAssetSize {
		return nil, fmt.Errorf("%s: %w", url, ErrAssetTooBig)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	defer rc.Close()
	return readLimited(rc, url)
}

func (s *BundleSource) open(themeID string) (*bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.bundles[themeID]; ok {
		return b, nil
	}
	rc, err := zip.OpenReader(filepath.Join(s.Dir, themeID+".zip"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("bundle %s: %w", themeID, ErrNotFound)
		}
		return nil, fmt.Errorf("bundle %s: %w", themeID, err)
	}

	b := &bundle{rc: rc, files: make(map[string]*zip.File, len(rc.File))}
	for _, f := range rc.File {
		// Bundles may wrap everything in a top-level folder named after the theme
		name := strings.TrimPrefix(f.Name, themeID+"/")
		if !SafeEntry(name) || strings.HasSuffix(name, "/") {
			continue
		}
		b.files[name] = f
	}
	if s.bundles == nil {
		s.bundles = make(map[string]*bundle)
	}
	s.bundles[themeID] = b
	return b, nil
}

// Close releases every opened archive
func (s *BundleSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for id, b := range s.bundles {
		if err := b.rc.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(s.bundles, id)
	}
	return errors.Join(errs...)
}

// WriteBundle packs files (theme-relative name -> data) into w as a theme zip
func WriteBundle(w io.Writer, files map[string][]byte) error {
	zw := zip.NewWriter(w)
	for name, data := range files {
		if !SafeEntry(name) {
			return fmt.Errorf("%s: %w", name, ErrUnsafePath)
		}
		fw, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := fw.Write(data); err != nil {
			return err
		}
	}
	return zw.Close()
}
