// Package registry maps renderer kinds to backend factories
// Backend packages register themselves from init
package registry

import (
	"sort"
	"sync"

	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/theme"
)

// BackendFactory creates an uninitialized backend
type BackendFactory func(opts render.Options) render.Backend

var (
	backendsMu sync.RWMutex
	backends   = make(map[theme.RendererKind]BackendFactory)
)

// RegisterBackend adds a backend factory for kind, replacing any previous one
func RegisterBackend(kind theme.RendererKind, factory BackendFactory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[kind] = factory
}

// GetBackend retrieves the factory for kind
func GetBackend(kind theme.RendererKind) (BackendFactory, bool) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	f, ok := backends[kind]
	return f, ok
}

// BackendNames returns all registered kinds, sorted
func BackendNames() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for kind := range backends {
		names = append(names, string(kind))
	}
	sort.Strings(names)
	return names
}
