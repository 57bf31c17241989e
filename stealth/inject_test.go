package stealth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInjectorScriptOrder(t *testing.T) {
	in := NewInjector()

	// The surface patch must register before the timing wrapper so both are in
	// place ahead of any page script.
	require.Len(t, in.scripts, 2)
	assert.Equal(t, surfacePatchJS, in.scripts[0])
	assert.Equal(t, timingConsistencyJS, in.scripts[1])
}

func TestSurfacePatchContent(t *testing.T) {
	assert.Contains(t, surfacePatchJS, "'webdriver'")
	assert.Contains(t, surfacePatchJS, "get: () => false")
	assert.Contains(t, surfacePatchJS, "length: 3")
	assert.Contains(t, surfacePatchJS, "Chrome PDF Plugin")
	assert.Contains(t, surfacePatchJS, "window.chrome")
	assert.Contains(t, surfacePatchJS, "'en-US', 'en', 'es'")
	assert.Contains(t, surfacePatchJS, "effectiveType: '4g'")
	assert.Contains(t, surfacePatchJS, "toDataURL")
	assert.Contains(t, surfacePatchJS, "WebGLRenderingContext")
}

func TestTimingConsistencyContent(t *testing.T) {
	assert.Contains(t, timingConsistencyJS, "getChannelData")
	assert.Contains(t, timingConsistencyJS, "getTimezoneOffset")
	assert.Contains(t, timingConsistencyJS, "performance.now")
}

func TestAttachRequiresLaunchedSession(t *testing.T) {
	in := NewInjector()

	err := in.Attach(nil)
	assert.ErrorIs(t, err, ErrNotLaunched)

	err = in.Attach(&Session{})
	assert.ErrorIs(t, err, ErrNotLaunched)
}
