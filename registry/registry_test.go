package registry

import (
	"testing"

	"github.com/lixenwraith/vi-office/render"
	"github.com/lixenwraith/vi-office/theme"
	"github.com/stretchr/testify/assert"
)

func TestRegisterBackend(t *testing.T) {
	const kind theme.RendererKind = "test-kind"
	_, ok := GetBackend(kind)
	assert.False(t, ok)

	calls := 0
	RegisterBackend(kind, func(opts render.Options) render.Backend {
		calls++
		return nil
	})
	f, ok := GetBackend(kind)
	assert.True(t, ok)
	f(render.Options{})
	assert.Equal(t, 1, calls)
	assert.Contains(t, BackendNames(), "test-kind")
}
