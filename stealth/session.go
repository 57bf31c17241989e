package stealth

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/TOTskillconnect/tikscrap/config"
)

var (
	// ErrLaunch means the browser process could not be started. Fatal; retry
	// policy, if any, belongs to the orchestration layer.
	ErrLaunch = errors.New("browser launch failed")

	// ErrNotLaunched means an operation ran against a Session whose browser or
	// context is absent (before Launch, or after Close).
	ErrNotLaunched = errors.New("browser context not initialized")
)

// Launcher builds stealth Sessions from explicit configuration. Visibility and
// stealth level are read from the config passed at construction, never from
// process-wide state.
type Launcher struct {
	cfg    config.BrowserConfig
	timing config.TimingConfig
	rng    *rand.Rand
	log    *zap.SugaredLogger
}

func NewLauncher(cfg config.BrowserConfig, timing config.TimingConfig, rng *rand.Rand, log *zap.SugaredLogger) *Launcher {
	return &Launcher{cfg: cfg, timing: timing, rng: rng, log: log}
}

// Session owns one browser process, one browsing context, and the Fingerprint
// used to create them. All operations against a Session belong to a single
// cooperative flow; concurrency is sanctioned only across Sessions.
type Session struct {
	fp       Fingerprint
	browser  *rod.Browser
	context  *rod.Browser
	cleanup  func()
	injector *Injector
	timing   config.TimingConfig
	rng      *rand.Rand
	log      *zap.SugaredLogger
}

// Launch generates a fresh Fingerprint, starts the browser process with the
// tiered stealth flags, opens one browsing context parameterized by the
// fingerprint, and attaches the anti-detection init scripts.
//
// headless == nil resolves from the visibility config, inverted: visible means
// non-headless.
func (l *Launcher) Launch(headless *bool) (*Session, error) {
	hl := !l.cfg.Visible
	if headless != nil {
		hl = *headless
	}

	fp := GenerateFingerprint(l.rng, l.log)
	level := ParseLevel(l.cfg.StealthLevel)

	l.log.Infow("launching stealth browser",
		"headless", hl,
		"stealthLevel", string(level),
		"engine", string(fp.Engine),
	)

	la := launcher.New().
		Bin(l.resolveBin(fp.Engine)).
		// Disable the leakless wrapper; it trips AV tooling on some hosts.
		Leakless(false).
		Headless(hl)
	applyFlags(la, FlagsFor(level, fp.UserAgent))

	controlURL, err := la.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		la.Kill()
		return nil, fmt.Errorf("%w: connect: %v", ErrLaunch, err)
	}

	// One isolated browsing context per session; pages opened against it share
	// cookies and storage with each other but not with other sessions.
	context, err := browser.Incognito()
	if err != nil {
		_ = browser.Close()
		la.Kill()
		return nil, fmt.Errorf("%w: create context: %v", ErrLaunch, err)
	}

	// Grant geolocation/notifications up front so permission prompts never
	// block automation.
	err = proto.BrowserGrantPermissions{
		Permissions: []proto.BrowserPermissionType{
			proto.BrowserPermissionTypeGeolocation,
			proto.BrowserPermissionTypeNotifications,
		},
		BrowserContextID: context.BrowserContextID,
	}.Call(browser)
	if err != nil {
		l.log.Warnw("permission grant failed", "error", err)
	}

	s := &Session{
		fp:      fp,
		browser: browser,
		context: context,
		cleanup: la.Kill,
		timing:  l.timing,
		rng:     l.rng,
		log:     l.log,
	}

	if err := NewInjector().Attach(s); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// resolveBin maps the fingerprint's engine preference onto an installed
// browser binary. Sessions are driven over CDP, which only Chromium-family
// engines speak, so firefox/webkit preferences fall back to the primary
// engine; the preference still varies the claimed user agent.
func (l *Launcher) resolveBin(engine Engine) string {
	if l.cfg.Bin != "" {
		return l.cfg.Bin
	}
	if engine != EngineChromium {
		l.log.Debugw("engine preference has no driveable binary, using default", "engine", string(engine))
	}
	return ""
}

// Fingerprint returns the immutable identity this Session was created with.
func (s *Session) Fingerprint() Fingerprint {
	return s.fp
}

// Pause sleeps for a random duration inside the configured pacing window.
// Callers use it between successive actions on the same page.
func (s *Session) Pause() {
	time.Sleep(RandomDelay(s.rng, s.timing.MinDelayMs, s.timing.MaxDelayMs))
}

// NewPage opens a page in the Session's context with the init scripts
// registered and the per-page configuration applied. Returns nil (with a
// logged error) when the context is absent; callers must check.
func (s *Session) NewPage() *rod.Page {
	if s.context == nil {
		s.log.Errorw("new page requested before launch", "error", ErrNotLaunched)
		return nil
	}

	page, err := s.context.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		s.log.Errorw("open page failed", "error", err)
		return nil
	}

	if s.injector != nil {
		if err := s.injector.apply(page); err != nil {
			s.log.Errorw("init script registration failed", "error", err)
			_ = page.Close()
			return nil
		}
	}

	if err := s.emulateFingerprint(page); err != nil {
		s.log.Warnw("fingerprint emulation incomplete", "error", err)
	}

	s.configurePage(page)

	return page
}

// emulateFingerprint applies the context-level device parameters to a page:
// viewport, scale factor, locale, and timezone all come from the one
// Fingerprint so the presented signals stay mutually consistent.
func (s *Session) emulateFingerprint(page *rod.Page) error {
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.fp.Viewport.Width,
		Height:            s.fp.Viewport.Height,
		DeviceScaleFactor: s.fp.DeviceScaleFactor,
		Mobile:            s.fp.mobile(),
	}); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}

	if err := (proto.EmulationSetLocaleOverride{Locale: s.fp.Locale}).Call(page); err != nil {
		return fmt.Errorf("set locale: %w", err)
	}

	if err := (proto.EmulationSetTimezoneOverride{TimezoneID: s.fp.Timezone}).Call(page); err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}

	return nil
}

// Close tears down the context and browser process. Idempotent: absent handles
// are tolerated, internal handles are always nilled, and teardown errors are
// logged but never propagated so they cannot mask the run's outcome.
func (s *Session) Close() {
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.log.Warnw("browser close failed", "error", err)
		}
	}
	if s.cleanup != nil {
		s.cleanup()
	}

	s.context = nil
	s.browser = nil
	s.cleanup = nil

	s.log.Infow("stealth browser closed")
}
