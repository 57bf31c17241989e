package stealth

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/TOTskillconnect/tikscrap/config"
)

func TestCloseIdempotentWithoutLaunch(t *testing.T) {
	s := &Session{log: zap.NewNop().Sugar()}

	assert.NotPanics(t, func() {
		s.Close()
		s.Close()
	})
	assert.Nil(t, s.browser)
	assert.Nil(t, s.context)
}

func TestNewPageBeforeLaunchReturnsNil(t *testing.T) {
	s := &Session{log: zap.NewNop().Sugar()}
	assert.Nil(t, s.NewPage())
}

func TestLauncherResolveBin(t *testing.T) {
	log := zap.NewNop().Sugar()
	rng := rand.New(rand.NewSource(1))

	t.Run("explicit binary wins", func(t *testing.T) {
		l := NewLauncher(config.BrowserConfig{Bin: "/opt/chromium"}, config.TimingConfig{}, rng, log)
		assert.Equal(t, "/opt/chromium", l.resolveBin(EngineFirefox))
	})

	t.Run("non-chromium engines fall back to default", func(t *testing.T) {
		l := NewLauncher(config.BrowserConfig{}, config.TimingConfig{}, rng, log)
		assert.Equal(t, "", l.resolveBin(EngineFirefox))
		assert.Equal(t, "", l.resolveBin(EngineWebkit))
		assert.Equal(t, "", l.resolveBin(EngineChromium))
	})
}

func TestSessionPauseHonorsBounds(t *testing.T) {
	s := &Session{
		timing: config.TimingConfig{MinDelayMs: 1, MaxDelayMs: 2},
		rng:    rand.New(rand.NewSource(1)),
		log:    zap.NewNop().Sugar(),
	}

	start := time.Now()
	s.Pause()
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 1*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestSessionFingerprintAccessor(t *testing.T) {
	fp := Fingerprint{UserAgent: "ua", Viewport: Viewport{800, 600}}
	s := &Session{fp: fp, log: zap.NewNop().Sugar()}
	assert.Equal(t, fp, s.Fingerprint())
}
