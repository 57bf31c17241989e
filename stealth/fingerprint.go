package stealth

import (
	"math/rand"

	"go.uber.org/zap"
)

// Engine is the browser engine a fingerprint claims to be.
type Engine string

const (
	EngineChromium Engine = "chromium"
	EngineFirefox  Engine = "firefox"
	EngineWebkit   Engine = "webkit"
)

type Viewport struct {
	Width  int
	Height int
}

// Fingerprint is the device/browser identity presented to the remote site.
// It is generated once per Session and never mutated afterwards; launch
// arguments, context parameters, headers, and injected script constants all
// derive from the same instance so the session's signals stay coherent.
type Fingerprint struct {
	UserAgent           string
	Viewport            Viewport
	Engine              Engine
	Platform            string
	Locale              string
	Timezone            string
	ColorDepth          int
	DeviceScaleFactor   float64
	HardwareConcurrency int
}

var userAgents = []string{
	// Chrome on Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",

	// Chrome on Mac
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",

	// Firefox on Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/120.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/119.0",

	// Firefox on Mac
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/120.0",

	// Safari on Mac
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",

	// Edge on Windows
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/119.0.0.0",
}

var viewports = []Viewport{
	{1920, 1080}, // Desktop (Full HD)
	{1536, 864},  // Desktop (smaller)
	{1440, 900},  // MacBook Pro 13"
	{1680, 1050}, // MacBook Pro 15"
	{1366, 768},  // Laptop common resolution
	{390, 844},   // iPhone 13/14
	{430, 932},   // iPhone 15 Pro Max
	{393, 873},   // Pixel 7
	{360, 800},   // Samsung Galaxy S23
}

var timezones = []string{
	"America/New_York",
	"America/Chicago",
	"America/Denver",
	"America/Los_Angeles",
	"America/Toronto",
	"Europe/London",
	"Europe/Paris",
	"Europe/Berlin",
	"Asia/Tokyo",
	"Asia/Singapore",
	"Australia/Sydney",
}

var locales = []string{
	"en-US",
	"en-GB",
	"en-CA",
	"en-AU",
	"fr-FR",
	"de-DE",
	"es-ES",
	"it-IT",
	"pt-BR",
	"ja-JP",
}

var (
	engines           = []Engine{EngineChromium, EngineFirefox, EngineWebkit}
	platforms         = []string{"Windows", "MacOS", "Linux"}
	colorDepths       = []int{24, 30, 48}
	scaleFactors      = []float64{1, 1.5, 2, 2.5}
	concurrencyLevels = []int{2, 4, 6, 8, 12, 16}
)

// GenerateFingerprint samples a fully populated Fingerprint from the static
// pools. Fields are sampled independently; no cross-field consistency beyond
// the engine/binary resolution at launch is enforced.
func GenerateFingerprint(rng *rand.Rand, log *zap.SugaredLogger) Fingerprint {
	fp := Fingerprint{
		UserAgent:           userAgents[rng.Intn(len(userAgents))],
		Viewport:            viewports[rng.Intn(len(viewports))],
		Engine:              engines[rng.Intn(len(engines))],
		Platform:            platforms[rng.Intn(len(platforms))],
		Locale:              locales[rng.Intn(len(locales))],
		Timezone:            timezones[rng.Intn(len(timezones))],
		ColorDepth:          colorDepths[rng.Intn(len(colorDepths))],
		DeviceScaleFactor:   scaleFactors[rng.Intn(len(scaleFactors))],
		HardwareConcurrency: concurrencyLevels[rng.Intn(len(concurrencyLevels))],
	}

	log.Debugw("generated browser fingerprint",
		"userAgent", fp.UserAgent,
		"viewportWidth", fp.Viewport.Width,
		"viewportHeight", fp.Viewport.Height,
		"engine", string(fp.Engine),
		"platform", fp.Platform,
		"locale", fp.Locale,
		"timezone", fp.Timezone,
		"colorDepth", fp.ColorDepth,
		"deviceScaleFactor", fp.DeviceScaleFactor,
		"hardwareConcurrency", fp.HardwareConcurrency,
	)

	return fp
}

// mobile reports whether the viewport belongs to the phone-sized pool entries.
func (f Fingerprint) mobile() bool {
	return f.Viewport.Width < 500
}
