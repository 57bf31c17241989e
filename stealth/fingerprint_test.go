package stealth

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGenerateFingerprintFieldsComeFromPools(t *testing.T) {
	log := zap.NewNop().Sugar()

	for seed := int64(0); seed < 20; seed++ {
		fp := GenerateFingerprint(rand.New(rand.NewSource(seed)), log)

		assert.Contains(t, userAgents, fp.UserAgent)
		assert.Contains(t, viewports, fp.Viewport)
		assert.Contains(t, engines, fp.Engine)
		assert.Contains(t, platforms, fp.Platform)
		assert.Contains(t, locales, fp.Locale)
		assert.Contains(t, timezones, fp.Timezone)
		assert.Contains(t, colorDepths, fp.ColorDepth)
		assert.Contains(t, scaleFactors, fp.DeviceScaleFactor)
		assert.Contains(t, concurrencyLevels, fp.HardwareConcurrency)
	}
}

func TestGenerateFingerprintDeterministicPerSeed(t *testing.T) {
	log := zap.NewNop().Sugar()

	a := GenerateFingerprint(rand.New(rand.NewSource(42)), log)
	b := GenerateFingerprint(rand.New(rand.NewSource(42)), log)
	assert.Equal(t, a, b)
}

func TestGenerateFingerprintVariesAcrossSeeds(t *testing.T) {
	log := zap.NewNop().Sugar()

	distinct := map[Fingerprint]bool{}
	for seed := int64(0); seed < 50; seed++ {
		distinct[GenerateFingerprint(rand.New(rand.NewSource(seed)), log)] = true
	}
	assert.Greater(t, len(distinct), 1)
}

func TestFingerprintMobile(t *testing.T) {
	assert.True(t, Fingerprint{Viewport: Viewport{390, 844}}.mobile())
	assert.False(t, Fingerprint{Viewport: Viewport{1920, 1080}}.mobile())
}
